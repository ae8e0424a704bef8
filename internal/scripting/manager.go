package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// globalKey is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no encounter VM is found.
const globalKey = "__global__"

// Hook names the Manager's callers dispatch at encounter lifecycle points.
// A script defines any subset of them as global functions.
const (
	HookEncounterStart = "on_encounter_start"
	HookRoundStart     = "on_round_start"
	HookTurnEnd        = "on_turn_end"
	HookEncounterEnd   = "on_encounter_end"
)

// CombatantInfo is a snapshot of a combatant's state passed to Lua callbacks.
type CombatantInfo struct {
	Name    string
	Team    string
	HP      int
	MaxHP   int
	Mind    int
	MaxMind int
	AC      int
	Alive   bool
	Effects []string
}

// vm pairs an LState with its budget cancel. Calls into the state are
// serialized through mu, since an LState is single-threaded.
type vm struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel func()
}

func (v *vm) release() {
	v.cancel()
	v.state.Close()
}

// Manager owns one sandboxed LState per encounter and exposes hook dispatch.
//
// Manager is safe for concurrent CallHook. Each VM's mutex serializes
// concurrent calls to the same encounter while different encounters run
// concurrently.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*vm
	roller *dice.Roller
	logger *zap.Logger

	// Injected before an encounter runs. nil = no-op in engine.* modules.
	GetCombatant func(name string) *CombatantInfo
	ApplyEffect  func(target, effect string, mindLevel int) error
	DealDamage   func(target string, amount int, damageType string) (int, error)
	Heal         func(target string, amount int) (int, error)
	Narrate      func(text string)
}

// NewManager creates a Manager with no loaded VMs.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting: NewManager requires a non-nil roller")
	}
	if logger == nil {
		panic("scripting: NewManager requires a non-nil logger")
	}
	return &Manager{
		states: make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadEncounter creates a sandboxed VM for encounterID, registers all
// engine.* modules, then executes the listed script files in the given
// order. Loading again under the same ID replaces the previous VM.
//
// Precondition: encounterID must be non-empty; every path must be a readable
// Lua file.
// Postcondition: encounter VM is registered; returns error on Lua load failure.
func (m *Manager) LoadEncounter(encounterID string, paths []string, instLimit int) error {
	if encounterID == "" {
		panic("scripting: LoadEncounter requires a non-empty encounter ID")
	}
	return m.loadInto(encounterID, paths, instLimit)
}

// LoadGlobal creates the "__global__" VM from every *.lua file in scriptDir,
// in lexicographic order. It serves as a CallHook fallback for encounters
// without their own VM.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			paths = append(paths, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(paths)
	return m.loadInto(globalKey, paths, instLimit)
}

func (m *Manager) loadInto(key string, paths []string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	for _, path := range paths {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.release()
	}
	m.states[key] = &vm{state: L, cancel: cancel}
	m.mu.Unlock()
	return nil
}

// Unload closes and removes the VM registered for encounterID, if any.
func (m *Manager) Unload(encounterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.states[encounterID]; ok {
		v.release()
		delete(m.states, encounterID)
	}
}

// Close releases every loaded VM, the global one included.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.states {
		v.release()
		delete(m.states, key)
	}
}

// CallHook calls the named Lua global function in encounterID's VM. If the
// encounter has no VM, the __global__ VM is tried as a fallback. Returns
// (LNil, nil) if the hook is not defined or no VM exists. Lua runtime errors
// are logged at Warn level and never propagated, so a broken script degrades
// the hooks without touching the encounter itself.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(encounterID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.states[encounterID]
	if !ok {
		v = m.states[globalKey]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Debug("scripting: no VM for encounter",
			zap.String("encounter", encounterID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.state

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("encounter", encounterID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}
