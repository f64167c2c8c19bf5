package domain

// DieRequest names a die. Source defaults to the configured dice source.
type DieRequest struct {
	ID     string `json:"id" binding:"required"`
	Source string `json:"source,omitempty"`
}

// PartyToggle changes one member of a party. Every present field is applied,
// bonus index first.
type PartyToggle struct {
	Party       string       `json:"party" binding:"required"`
	Player      string       `json:"player" binding:"required"`
	BonusIndex  *int         `json:"bonus_index,omitempty"`
	CustomBonus *CustomBonus `json:"custom_bonus_object,omitempty"`
}

// Empty reports whether the request carries no change.
func (t PartyToggle) Empty() bool {
	return t.BonusIndex == nil && t.CustomBonus == nil
}

// EncounterToggle changes an encounter's shared state. Present fields are
// applied in field order. Advantage and Disadvantage flip their flag when true.
type EncounterToggle struct {
	Encounter       string       `json:"encounter" binding:"required"`
	BonusIndex      *int         `json:"bonus_index,omitempty"`
	Advantage       *bool        `json:"advantage,omitempty"`
	Disadvantage    *bool        `json:"disadvantage,omitempty"`
	ActiveStatblock *string      `json:"active_statblock,omitempty"`
	CustomBonus     *CustomBonus `json:"custom_bonus_object,omitempty"`
}

func (t EncounterToggle) Empty() bool {
	return t.BonusIndex == nil &&
		(t.Advantage == nil || !*t.Advantage) &&
		(t.Disadvantage == nil || !*t.Disadvantage) &&
		t.ActiveStatblock == nil &&
		t.CustomBonus == nil
}

// Apply runs the requested changes against e in field order.
func (t EncounterToggle) Apply(e *Encounter) error {
	if t.BonusIndex != nil {
		if err := e.ToggleBonus(*t.BonusIndex); err != nil {
			return err
		}
	}
	if t.Advantage != nil && *t.Advantage {
		e.ToggleAdvantage()
	}
	if t.Disadvantage != nil && *t.Disadvantage {
		e.ToggleDisadvantage()
	}
	if t.ActiveStatblock != nil {
		if err := e.SetActiveStatblock(*t.ActiveStatblock); err != nil {
			return err
		}
	}
	if t.CustomBonus != nil {
		if err := e.ApplyCustomBonus(*t.CustomBonus); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs the requested changes against m.
func (t PartyToggle) Apply(m *Member) error {
	if t.BonusIndex != nil {
		if err := m.ToggleBonus(*t.BonusIndex); err != nil {
			return err
		}
	}
	if t.CustomBonus != nil {
		if err := m.ApplyCustomBonus(*t.CustomBonus); err != nil {
			return err
		}
	}
	return nil
}
