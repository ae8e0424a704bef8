package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
)

// attacksFile is the top-level shape of attacks.json: base attacks first,
// then variants derived from them.
type attacksFile struct {
	Attacks  []*action.Definition `json:"attacks"`
	Variants []*action.Variant    `json:"variants"`
}

// Load reads every content document from dir, registers it, and resolves
// cross-references. classes.json, races.json, armors.json, attacks.json,
// spells.json, and actions.json are required; weapons.json, effects.json,
// and monsters.json are optional extensions of the same directory.
//
// Precondition: logger is non-nil.
// Postcondition: the returned registry has passed Finalize.
func Load(dir string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		panic("content: Load called with nil logger")
	}

	r := NewRegistry()

	var classes []*Class
	if err := decodeFile(filepath.Join(dir, "classes.json"), &classes); err != nil {
		return nil, err
	}
	for _, c := range classes {
		if err := r.RegisterClass(c); err != nil {
			return nil, fmt.Errorf("loading classes: %w", err)
		}
	}

	var races []*Race
	if err := decodeFile(filepath.Join(dir, "races.json"), &races); err != nil {
		return nil, err
	}
	for _, race := range races {
		if err := r.RegisterRace(race); err != nil {
			return nil, fmt.Errorf("loading races: %w", err)
		}
	}

	var armors []*Armor
	if err := decodeFile(filepath.Join(dir, "armors.json"), &armors); err != nil {
		return nil, err
	}
	for _, a := range armors {
		if err := r.RegisterArmor(a); err != nil {
			return nil, fmt.Errorf("loading armors: %w", err)
		}
	}

	var attacks attacksFile
	if err := decodeFile(filepath.Join(dir, "attacks.json"), &attacks); err != nil {
		return nil, err
	}
	for _, atk := range attacks.Attacks {
		if atk.Kind != action.KindWeaponAttack {
			return nil, fmt.Errorf("loading attacks: %q is a %s, attacks.json holds weapon attacks only", atk.Name, atk.Kind)
		}
		if err := r.RegisterAction(atk); err != nil {
			return nil, fmt.Errorf("loading attacks: %w", err)
		}
	}
	for _, v := range attacks.Variants {
		if err := r.RegisterVariant(v); err != nil {
			return nil, fmt.Errorf("loading attack variants: %w", err)
		}
	}

	var spells []*action.Definition
	if err := decodeFile(filepath.Join(dir, "spells.json"), &spells); err != nil {
		return nil, err
	}
	for _, sp := range spells {
		if !sp.IsSpell() {
			return nil, fmt.Errorf("loading spells: %q is a %s, spells.json holds spells only", sp.Name, sp.Kind)
		}
		if err := r.RegisterAction(sp); err != nil {
			return nil, fmt.Errorf("loading spells: %w", err)
		}
	}

	var abilities []*action.Definition
	if err := decodeFile(filepath.Join(dir, "actions.json"), &abilities); err != nil {
		return nil, err
	}
	for _, ab := range abilities {
		if ab.Kind != action.KindAbility && ab.Kind != action.KindMultiAttack {
			return nil, fmt.Errorf("loading actions: %q is a %s, actions.json holds abilities and multi-attacks", ab.Name, ab.Kind)
		}
		if err := r.RegisterAction(ab); err != nil {
			return nil, fmt.Errorf("loading actions: %w", err)
		}
	}

	var weapons []*Weapon
	if ok, err := decodeOptional(filepath.Join(dir, "weapons.json"), &weapons); err != nil {
		return nil, err
	} else if ok {
		for _, w := range weapons {
			if err := r.RegisterWeapon(w); err != nil {
				return nil, fmt.Errorf("loading weapons: %w", err)
			}
		}
	}

	var effects []*effect.Definition
	if ok, err := decodeOptional(filepath.Join(dir, "effects.json"), &effects); err != nil {
		return nil, err
	} else if ok {
		for _, e := range effects {
			if err := r.RegisterEffect(e); err != nil {
				return nil, fmt.Errorf("loading effects: %w", err)
			}
		}
	}

	var monsters []*Monster
	if ok, err := decodeOptional(filepath.Join(dir, "monsters.json"), &monsters); err != nil {
		return nil, err
	} else if ok {
		for _, m := range monsters {
			if err := r.RegisterMonster(m); err != nil {
				return nil, fmt.Errorf("loading monsters: %w", err)
			}
		}
	}

	if err := r.Finalize(); err != nil {
		return nil, err
	}

	counts := r.Counts()
	logger.Info("content loaded",
		zap.String("dir", dir),
		zap.Int("classes", counts["classes"]),
		zap.Int("races", counts["races"]),
		zap.Int("armors", counts["armors"]),
		zap.Int("weapons", counts["weapons"]),
		zap.Int("actions", counts["actions"]),
		zap.Int("effects", counts["effects"]),
		zap.Int("monsters", counts["monsters"]))

	return r, nil
}

// decodeFile reads path and decodes it strictly into v.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// decodeOptional decodes path if it exists, reporting whether it did.
func decodeOptional(path string, v any) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := decodeFile(path, v); err != nil {
		return false, err
	}
	return true, nil
}
