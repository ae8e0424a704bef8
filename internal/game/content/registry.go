package content

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
)

// Registry holds all loaded content by name. Attacks, weapon-granted
// attacks, spells, and abilities share one action namespace so a character's
// known-action list is unambiguous.
//
// Invariant: after Finalize succeeds the registry is read-only and every
// cross-reference resolves.
type Registry struct {
	classes  map[string]*Class
	races    map[string]*Race
	armors   map[string]*Armor
	weapons  map[string]*Weapon
	actions  map[string]*action.Definition
	effects  map[string]*effect.Definition
	monsters map[string]*Monster
}

// NewRegistry returns an empty registry ready for registration.
func NewRegistry() *Registry {
	return &Registry{
		classes:  make(map[string]*Class),
		races:    make(map[string]*Race),
		armors:   make(map[string]*Armor),
		weapons:  make(map[string]*Weapon),
		actions:  make(map[string]*action.Definition),
		effects:  make(map[string]*effect.Definition),
		monsters: make(map[string]*Monster),
	}
}

// RegisterClass adds a class, rejecting duplicates.
//
// Precondition: c is non-nil.
func (r *Registry) RegisterClass(c *Class) error {
	if c == nil {
		panic("content: RegisterClass called with nil class")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if _, dup := r.classes[c.Name]; dup {
		return fmt.Errorf("content: class %q already registered", c.Name)
	}
	r.classes[c.Name] = c
	return nil
}

// RegisterRace adds a race, rejecting duplicates.
//
// Precondition: race is non-nil.
func (r *Registry) RegisterRace(race *Race) error {
	if race == nil {
		panic("content: RegisterRace called with nil race")
	}
	if err := race.Validate(); err != nil {
		return err
	}
	if _, dup := r.races[race.Name]; dup {
		return fmt.Errorf("content: race %q already registered", race.Name)
	}
	r.races[race.Name] = race
	return nil
}

// RegisterArmor adds an armor piece, rejecting duplicates.
//
// Precondition: a is non-nil.
func (r *Registry) RegisterArmor(a *Armor) error {
	if a == nil {
		panic("content: RegisterArmor called with nil armor")
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if _, dup := r.armors[a.Name]; dup {
		return fmt.Errorf("content: armor %q already registered", a.Name)
	}
	r.armors[a.Name] = a
	return nil
}

// RegisterWeapon adds a weapon and registers its granted attacks into the
// action namespace under their prefixed names.
//
// Precondition: w is non-nil.
func (r *Registry) RegisterWeapon(w *Weapon) error {
	if w == nil {
		panic("content: RegisterWeapon called with nil weapon")
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if _, dup := r.weapons[w.Name]; dup {
		return fmt.Errorf("content: weapon %q already registered", w.Name)
	}
	granted := w.Grants()
	for _, atk := range granted {
		if _, dup := r.actions[atk.Name]; dup {
			return fmt.Errorf("content: action %q already registered", atk.Name)
		}
	}
	r.weapons[w.Name] = w
	for _, atk := range granted {
		r.actions[atk.Name] = atk
	}
	return nil
}

// RegisterAction adds an attack, spell, or ability definition, rejecting
// duplicates across the shared namespace.
//
// Precondition: d is non-nil.
func (r *Registry) RegisterAction(d *action.Definition) error {
	if d == nil {
		panic("content: RegisterAction called with nil definition")
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if _, dup := r.actions[d.Name]; dup {
		return fmt.Errorf("content: action %q already registered", d.Name)
	}
	r.actions[d.Name] = d
	return nil
}

// RegisterVariant derives a variant from its registered base attack and
// registers the result.
//
// Precondition: v is non-nil.
func (r *Registry) RegisterVariant(v *action.Variant) error {
	if v == nil {
		panic("content: RegisterVariant called with nil variant")
	}
	if err := v.Validate(); err != nil {
		return err
	}
	base, ok := r.actions[v.Base]
	if !ok {
		return fmt.Errorf("content: variant %q: base attack %q not registered", v.Name, v.Base)
	}
	derived, err := v.Apply(base)
	if err != nil {
		return err
	}
	return r.RegisterAction(derived)
}

// RegisterEffect adds a standalone effect definition, rejecting duplicates.
//
// Precondition: d is non-nil.
func (r *Registry) RegisterEffect(d *effect.Definition) error {
	if d == nil {
		panic("content: RegisterEffect called with nil definition")
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if _, dup := r.effects[d.Name]; dup {
		return fmt.Errorf("content: effect %q already registered", d.Name)
	}
	r.effects[d.Name] = d
	return nil
}

// RegisterMonster adds a statblock, rejecting duplicates.
//
// Precondition: m is non-nil.
func (r *Registry) RegisterMonster(m *Monster) error {
	if m == nil {
		panic("content: RegisterMonster called with nil monster")
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if _, dup := r.monsters[m.Name]; dup {
		return fmt.Errorf("content: monster %q already registered", m.Name)
	}
	r.monsters[m.Name] = m
	return nil
}

// Class looks up a class by name.
func (r *Registry) Class(name string) (*Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

// Race looks up a race by name.
func (r *Registry) Race(name string) (*Race, bool) {
	race, ok := r.races[name]
	return race, ok
}

// Armor looks up an armor piece by name.
func (r *Registry) Armor(name string) (*Armor, bool) {
	a, ok := r.armors[name]
	return a, ok
}

// Weapon looks up a weapon by name.
func (r *Registry) Weapon(name string) (*Weapon, bool) {
	w, ok := r.weapons[name]
	return w, ok
}

// Action looks up an attack, spell, or ability by name.
func (r *Registry) Action(name string) (*action.Definition, bool) {
	d, ok := r.actions[name]
	return d, ok
}

// Effect looks up a standalone effect definition by name.
func (r *Registry) Effect(name string) (*effect.Definition, bool) {
	d, ok := r.effects[name]
	return d, ok
}

// Monster looks up a statblock by name.
func (r *Registry) Monster(name string) (*Monster, bool) {
	m, ok := r.monsters[name]
	return m, ok
}

// MonsterNames returns the registered statblock names, sorted.
func (r *Registry) MonsterNames() []string {
	names := make([]string, 0, len(r.monsters))
	for name := range r.monsters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counts reports how many entries of each kind are registered, for load
// logging.
func (r *Registry) Counts() map[string]int {
	return map[string]int{
		"classes":  len(r.classes),
		"races":    len(r.races),
		"armors":   len(r.armors),
		"weapons":  len(r.weapons),
		"actions":  len(r.actions),
		"effects":  len(r.effects),
		"monsters": len(r.monsters),
	}
}

// Finalize resolves every cross-reference: multi-attack components, class
// grant tables, race defaults, and monster gear and action lists. All
// dangling references are reported together.
//
// Postcondition: on success the registry is fully resolved and read-only.
func (r *Registry) Finalize() error {
	var violations []string

	report := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	for _, name := range sortedKeys(r.actions) {
		d := r.actions[name]
		if d.Kind != action.KindMultiAttack {
			continue
		}
		d.Attacks = d.Attacks[:0]
		for _, ref := range d.AttackRefs {
			component, ok := r.actions[ref]
			if !ok {
				report("multi-attack %q: attack %q not registered", d.Name, ref)
				continue
			}
			if component.Kind != action.KindWeaponAttack {
				report("multi-attack %q: %q is a %s, not a weapon attack", d.Name, ref, component.Kind)
				continue
			}
			d.Attacks = append(d.Attacks, component)
		}
	}

	for _, name := range sortedKeys(r.classes) {
		c := r.classes[name]
		r.checkGrants(fmt.Sprintf("class %q", c.Name), c.ActionsByLevel, false, report)
		r.checkGrants(fmt.Sprintf("class %q", c.Name), c.SpellsByLevel, true, report)
	}

	for _, name := range sortedKeys(r.races) {
		race := r.races[name]
		r.checkNames(fmt.Sprintf("race %q actions", race.Name), race.DefaultActions, false, report)
		r.checkNames(fmt.Sprintf("race %q spells", race.Name), race.DefaultSpells, true, report)
	}

	for _, name := range sortedKeys(r.monsters) {
		m := r.monsters[name]
		if _, ok := r.races[m.Race]; !ok {
			report("monster %q: race %q not registered", m.Name, m.Race)
		}
		for _, class := range sortedKeys(m.Levels) {
			if _, ok := r.classes[class]; !ok {
				report("monster %q: class %q not registered", m.Name, class)
			}
		}
		for _, armor := range m.Armors {
			if _, ok := r.armors[armor]; !ok {
				report("monster %q: armor %q not registered", m.Name, armor)
			}
		}
		for _, weapon := range m.Weapons {
			if _, ok := r.weapons[weapon]; !ok {
				report("monster %q: weapon %q not registered", m.Name, weapon)
			}
		}
		r.checkNames(fmt.Sprintf("monster %q actions", m.Name), m.Actions, false, report)
		r.checkNames(fmt.Sprintf("monster %q spells", m.Name), m.Spells, true, report)
	}

	if len(violations) > 0 {
		return fmt.Errorf("content: unresolved references: %s", strings.Join(violations, "; "))
	}
	return nil
}

func (r *Registry) checkGrants(owner string, byLevel map[int][]string, wantSpell bool, report func(string, ...any)) {
	levels := make([]int, 0, len(byLevel))
	for l := range byLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	for _, l := range levels {
		r.checkNames(fmt.Sprintf("%s level %d", owner, l), byLevel[l], wantSpell, report)
	}
}

func (r *Registry) checkNames(owner string, names []string, wantSpell bool, report func(string, ...any)) {
	for _, n := range names {
		d, ok := r.actions[n]
		if !ok {
			report("%s: %q not registered", owner, n)
			continue
		}
		if wantSpell && !d.IsSpell() {
			report("%s: %q is not a spell", owner, n)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
