package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcombat/internal/game/combat"
)

// EndHook is the Lua global called when a combat session ends.
const EndHook = "on_combat_end"

// Narrator renders end-of-combat messages with Lua scripts. It implements
// combat.Narrator.
//
// A single LState backs the Narrator; the mutex serializes every call into it.
type Narrator struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	logger    *zap.Logger
}

var _ combat.Narrator = (*Narrator)(nil)

// NewNarrator creates a sandboxed VM, registers the engine.* module, then
// executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scriptDir must be a readable directory; logger must be non-nil.
// Postcondition: Returns a ready Narrator, or an error on any Lua load failure.
func NewNarrator(scriptDir string, instLimit int, logger *zap.Logger) (*Narrator, error) {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState(instLimit)
	RegisterModules(L, logger)
	for _, path := range luaFiles {
		cancel := limitInstructions(L, context.Background(), instLimit)
		err := L.DoFile(path)
		cancel()
		if err != nil {
			L.Close()
			return nil, fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	logger.Info("combat scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return &Narrator{L: L, instLimit: instLimit, logger: logger}, nil
}

// NarrateEnd calls on_combat_end(summary). summary is a table with fields
// session_id, victory, player, hostiles (array of names), experience, and
// currency.
//
// Postcondition: ok is true only when the hook exists and returned a
// non-empty string. Lua errors are logged at Warn and yield ok=false.
func (n *Narrator) NarrateEnd(ctx context.Context, summary combat.EndSummary) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	fn := n.L.GetGlobal(EndHook)
	if fn.Type() != lua.LTFunction {
		return "", false
	}

	cancel := limitInstructions(n.L, ctx, n.instLimit)
	defer cancel()

	err := n.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, n.summaryTable(summary))
	if err != nil {
		n.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", EndHook),
			zap.String("session_id", summary.SessionID),
			zap.Error(err),
		)
		return "", false
	}
	ret := n.L.Get(-1)
	n.L.Pop(1)

	msg, ok := ret.(lua.LString)
	if !ok || msg == "" {
		return "", false
	}
	return string(msg), true
}

func (n *Narrator) summaryTable(s combat.EndSummary) *lua.LTable {
	t := n.L.NewTable()
	t.RawSetString("session_id", lua.LString(s.SessionID))
	t.RawSetString("victory", lua.LBool(s.Victory))
	t.RawSetString("player", lua.LString(s.PlayerName))
	t.RawSetString("experience", lua.LNumber(s.Experience))
	t.RawSetString("currency", lua.LNumber(s.Currency))
	hostiles := n.L.NewTable()
	for _, name := range s.Hostiles {
		hostiles.Append(lua.LString(name))
	}
	t.RawSetString("hostiles", hostiles)
	return t
}

// Close releases the Lua VM.
func (n *Narrator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.L.Close()
}
