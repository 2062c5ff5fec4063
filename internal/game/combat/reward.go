package combat

import "github.com/cory-johannsen/mudcombat/internal/game/monster"

// Reward is what a victorious player receives. It is computed only on victory.
type Reward struct {
	Experience int                 `json:"experience"`
	Currency   int                 `json:"currency"`
	Items      []monster.ItemStack `json:"items"`
}

// CalculateReward sums experience and currency across every defeated hostile's
// definition and rolls each hostile's drop table independently. Hostiles that
// fled give nothing. Hostiles whose definition is not in the catalog are skipped.
//
// Precondition: s, catalog, and src must be non-nil.
// Postcondition: Experience and Currency equal the sums over defeated hostiles
// regardless of drop rolls; Items is never nil.
func CalculateReward(s *Session, catalog Catalog, src Source) Reward {
	r := Reward{Items: []monster.ItemStack{}}
	for i := range s.Participants {
		p := &s.Participants[i]
		if p.IsPlayer() || p.Alive || p.Fled {
			continue
		}
		def, ok := catalog.Get(p.DefinitionID)
		if !ok {
			continue
		}
		r.Experience += def.Drops.Experience
		r.Currency += def.Drops.Currency
		r.Items = append(r.Items, monster.RollItems(def.Drops, src)...)
	}
	return r
}
