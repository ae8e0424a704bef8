package effect

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes a definition strictly: unknown fields are rejected
// rather than dropped, so content typos fail at load instead of producing an
// effect that silently does nothing. An absent or null duration means the
// effect is permanent. Nested trigger effects decode through the same path.
//
// Postcondition: on success the definition passes Validate.
func (d *Definition) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Name            string           `json:"name"`
		Description     string           `json:"description"`
		Duration        *int             `json:"duration"`
		Modifier        *Modifier        `json:"modifier"`
		DamageOverTime  *DamageOverTime  `json:"damage_over_time"`
		HealingOverTime *HealingOverTime `json:"healing_over_time"`
		Incapacitating  *Incapacitating  `json:"incapacitating"`
		Trigger         *Trigger         `json:"trigger"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s shadow
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("decoding effect: %w", err)
	}

	d.Name = s.Name
	d.Description = s.Description
	if s.Duration == nil {
		d.Duration = PermanentDuration
	} else {
		d.Duration = *s.Duration
	}
	d.Modifier = s.Modifier
	d.DamageOverTime = s.DamageOverTime
	d.HealingOverTime = s.HealingOverTime
	d.Incapacitating = s.Incapacitating
	d.Trigger = s.Trigger

	return d.Validate()
}
