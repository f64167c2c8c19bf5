package domain

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// RollMode is how an attack roll is made once advantage flags are reconciled.
type RollMode string

const (
	RollNormal       RollMode = "normal"
	RollAdvantage    RollMode = "advantage"
	RollDisadvantage RollMode = "disadvantage"
)

// EncounterMeta is the shared modifier state of an encounter.
type EncounterMeta struct {
	Toggle              string  `json:"toggle,omitempty"`
	ActiveStatblock     *string `json:"active-statblock"`
	Bonuses             []int   `json:"bonuses"`
	ActiveBonusIndices  []int   `json:"active-bonuses-indices"`
	ActiveCustomBonuses []int   `json:"active-custom-bonuses"`
	Advantage           bool    `json:"advantage"`
	Disadvantage        bool    `json:"disadvantage"`
}

// RollMode reconciles the stored flags: both set cancel out. The flags
// themselves are left as toggled.
func (m EncounterMeta) RollMode() RollMode {
	switch {
	case m.Advantage && !m.Disadvantage:
		return RollAdvantage
	case m.Disadvantage && !m.Advantage:
		return RollDisadvantage
	default:
		return RollNormal
	}
}

// Statblock is a hostile combatant entry.
type Statblock struct {
	AttackBonus int `json:"attack-bonus"`
}

// Encounter is a roster of statblocks plus shared modifiers.
type Encounter struct {
	Meta       EncounterMeta
	Statblocks map[string]Statblock
}

func NewEncounter(toggle string, bonuses []int) *Encounter {
	return &Encounter{
		Meta: EncounterMeta{
			Toggle:              toggle,
			Bonuses:             normalizeInts(bonuses),
			ActiveBonusIndices:  []int{},
			ActiveCustomBonuses: []int{},
		},
		Statblocks: make(map[string]Statblock),
	}
}

func (*Encounter) Kind() Kind { return KindEncounter }

func (e *Encounter) Clone() Document {
	meta := e.Meta
	meta.Bonuses = cloneInts(e.Meta.Bonuses)
	meta.ActiveBonusIndices = cloneInts(e.Meta.ActiveBonusIndices)
	meta.ActiveCustomBonuses = cloneInts(e.Meta.ActiveCustomBonuses)
	if e.Meta.ActiveStatblock != nil {
		id := *e.Meta.ActiveStatblock
		meta.ActiveStatblock = &id
	}
	out := &Encounter{Meta: meta, Statblocks: make(map[string]Statblock, len(e.Statblocks))}
	for id, sb := range e.Statblocks {
		out.Statblocks[id] = sb
	}
	return out
}

// ToggleBonus flips whether _meta.bonuses[index] applies.
func (e *Encounter) ToggleBonus(index int) error {
	active, err := toggleIndex(e.Meta.ActiveBonusIndices, e.Meta.Bonuses, index)
	if err != nil {
		return err
	}
	e.Meta.ActiveBonusIndices = active
	return nil
}

// ApplyCustomBonus adds or removes an encounter-wide custom bonus.
func (e *Encounter) ApplyCustomBonus(req CustomBonus) error {
	custom, err := applyCustomBonus(e.Meta.ActiveCustomBonuses, req)
	if err != nil {
		return err
	}
	e.Meta.ActiveCustomBonuses = custom
	return nil
}

// ToggleAdvantage flips the advantage flag without touching disadvantage.
func (e *Encounter) ToggleAdvantage() { e.Meta.Advantage = !e.Meta.Advantage }

// ToggleDisadvantage flips the disadvantage flag without touching advantage.
func (e *Encounter) ToggleDisadvantage() { e.Meta.Disadvantage = !e.Meta.Disadvantage }

// SetActiveStatblock makes id the active statblock, or clears it when id is already active.
func (e *Encounter) SetActiveStatblock(id string) error {
	if _, ok := e.Statblocks[id]; !ok {
		return fmt.Errorf("%w: %s", ErrStatblockNotFound, id)
	}
	if e.Meta.ActiveStatblock != nil && *e.Meta.ActiveStatblock == id {
		e.Meta.ActiveStatblock = nil
		return nil
	}
	e.Meta.ActiveStatblock = &id
	return nil
}

// AttackModifier is the total added to an attack roll: active and custom
// encounter bonuses plus the active statblock's attack bonus.
func (e *Encounter) AttackModifier() int {
	total := activeSum(e.Meta.Bonuses, e.Meta.ActiveBonusIndices) + lo.Sum(e.Meta.ActiveCustomBonuses)
	if e.Meta.ActiveStatblock != nil {
		total += e.Statblocks[*e.Meta.ActiveStatblock].AttackBonus
	}
	return total
}

// StatblockIDs returns statblock identifiers in lexical order.
func (e *Encounter) StatblockIDs() []string {
	ids := lo.Keys(e.Statblocks)
	sort.Strings(ids)
	return ids
}

func (e *Encounter) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Statblocks)+1)
	out[MetaKey] = e.Meta
	for id, sb := range e.Statblocks {
		out[id] = sb
	}
	return json.Marshal(out)
}

func (e *Encounter) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed := NewEncounter("", nil)
	for key, value := range raw {
		if key == MetaKey {
			if err := json.Unmarshal(value, &parsed.Meta); err != nil {
				return fmt.Errorf("encounter %s: %w", MetaKey, err)
			}
			continue
		}
		var sb Statblock
		if err := json.Unmarshal(value, &sb); err != nil {
			return fmt.Errorf("statblock %q: %w", key, err)
		}
		parsed.Statblocks[key] = sb
	}
	parsed.Meta.Bonuses = normalizeInts(parsed.Meta.Bonuses)
	parsed.Meta.ActiveBonusIndices = normalizeInts(parsed.Meta.ActiveBonusIndices)
	parsed.Meta.ActiveCustomBonuses = normalizeInts(parsed.Meta.ActiveCustomBonuses)
	*e = *parsed
	return nil
}
