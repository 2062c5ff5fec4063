package monster

import (
	"fmt"
	"math"
)

// ItemDrop is a single entry in a drop table. Chance is a percentage in (0, 100].
type ItemDrop struct {
	ItemID string  `yaml:"item" json:"itemId"`
	Chance float64 `yaml:"chance" json:"dropChance"`
	MinQty int     `yaml:"min_qty" json:"minQuantity"`
	MaxQty int     `yaml:"max_qty" json:"maxQuantity"`
}

// DropTable lists what a defeated monster yields. Experience and Currency are
// awarded unconditionally; Items are rolled independently.
type DropTable struct {
	Experience int        `yaml:"experience" json:"experience"`
	Currency   int        `yaml:"currency" json:"currency"`
	Items      []ItemDrop `yaml:"items" json:"items"`
}

// ItemStack is a quantity of one item.
type ItemStack struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Validate checks that the drop table satisfies its invariants.
//
// Postcondition: Returns nil iff experience and currency are non-negative and
// every item entry has a non-empty id, chance in (0, 100], and 1 <= min <= max.
// An empty table is valid.
func (dt *DropTable) Validate() error {
	if dt.Experience < 0 {
		return fmt.Errorf("drop table: experience must be >= 0, got %d", dt.Experience)
	}
	if dt.Currency < 0 {
		return fmt.Errorf("drop table: currency must be >= 0, got %d", dt.Currency)
	}
	for i, item := range dt.Items {
		if item.ItemID == "" {
			return fmt.Errorf("drop table: item[%d] must have a non-empty item id", i)
		}
		if item.Chance <= 0 || item.Chance > 100 {
			return fmt.Errorf("drop table: item[%d] chance must be in (0, 100], got %v", i, item.Chance)
		}
		if item.MinQty < 1 {
			return fmt.Errorf("drop table: item[%d] min_qty must be >= 1, got %d", i, item.MinQty)
		}
		if item.MinQty > item.MaxQty {
			return fmt.Errorf("drop table: item[%d] min_qty (%d) must be <= max_qty (%d)", i, item.MinQty, item.MaxQty)
		}
	}
	return nil
}

// Source is the subset of dice.Source used by drop rolls.
type Source interface {
	Float64() float64
}

// RollItems rolls every item entry of dt independently.
// An entry drops iff a percentile draw is below its Chance; its quantity is
// floor(draw*(max-min+1)) + min.
//
// Precondition: dt must have passed Validate; src must be non-nil.
// Postcondition: Each returned stack has MinQty <= Quantity <= MaxQty of its
// entry; stacks appear in table order.
func RollItems(dt DropTable, src Source) []ItemStack {
	var out []ItemStack
	for _, item := range dt.Items {
		if src.Float64()*100 >= item.Chance {
			continue
		}
		spread := item.MaxQty - item.MinQty + 1
		qty := int(math.Floor(src.Float64()*float64(spread))) + item.MinQty
		out = append(out, ItemStack{ItemID: item.ItemID, Quantity: qty})
	}
	return out
}
