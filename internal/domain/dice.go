package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DieType is the kind of physical die being simulated.
type DieType string

const (
	DieUnknown DieType = "unknown"
	DieD4      DieType = "d4"
	DieD6      DieType = "d6"
	DieD8      DieType = "d8"
	DieD10     DieType = "d10"
	DieD00     DieType = "d00"
	DieD12     DieType = "d12"
	DieD20     DieType = "d20"
	DieD6Fudge DieType = "d6fudge"
)

// dieCycle is the ring dice.cycle walks: unknown → d20 → d6fudge → d4 → d6
// → d8 → d10 → d00 → d12 → unknown.
var dieCycle = map[DieType]DieType{
	DieUnknown: DieD20,
	DieD20:     DieD6Fudge,
	DieD6Fudge: DieD4,
	DieD4:      DieD6,
	DieD6:      DieD8,
	DieD8:      DieD10,
	DieD10:     DieD00,
	DieD00:     DieD12,
	DieD12:     DieUnknown,
}

// Faces describes the values a die type can show: Min..Max in steps of Step.
type Faces struct {
	Min  int
	Max  int
	Step int
}

var dieFaces = map[DieType]Faces{
	DieUnknown: {Min: 1, Max: 20, Step: 1},
	DieD4:      {Min: 1, Max: 4, Step: 1},
	DieD6:      {Min: 1, Max: 6, Step: 1},
	DieD8:      {Min: 1, Max: 8, Step: 1},
	DieD10:     {Min: 1, Max: 10, Step: 1},
	DieD00:     {Min: 0, Max: 90, Step: 10},
	DieD12:     {Min: 1, Max: 12, Step: 1},
	DieD20:     {Min: 1, Max: 20, Step: 1},
	DieD6Fudge: {Min: -1, Max: 1, Step: 1},
}

// Valid reports whether t is a known die type.
func (t DieType) Valid() bool {
	_, ok := dieCycle[t]
	return ok
}

// Next returns the type following t in the cycle. Unrecognised types restart the ring.
func (t DieType) Next() DieType {
	if next, ok := dieCycle[t]; ok {
		return next
	}
	return DieD20
}

// Faces returns the face range of t; unrecognised types roll like a d20.
func (t DieType) Faces() Faces {
	if f, ok := dieFaces[t]; ok {
		return f
	}
	return dieFaces[DieUnknown]
}

// Count is the number of distinct faces.
func (f Faces) Count() int {
	return (f.Max-f.Min)/f.Step + 1
}

// DieTypes lists every die type in cycle order starting at unknown.
func DieTypes() []DieType {
	out := make([]DieType, 0, len(dieCycle))
	for t := DieUnknown; ; {
		out = append(out, t)
		t = t.Next()
		if t == DieUnknown {
			return out
		}
	}
}

// DieState is where a die is in its roll animation.
type DieState string

const (
	DieIdle    DieState = "idle"
	DieRolling DieState = "rolling"
	DieRolled  DieState = "rolled"
)

type DieInfo struct {
	Name  string   `json:"name"`
	Type  DieType  `json:"type"`
	Face  int      `json:"face"`
	State DieState `json:"state"`
}

// Die is one simulated die and the results it settled on, oldest first.
type Die struct {
	Info  DieInfo `json:"info"`
	Rolls []int   `json:"rolls"`
}

func (d *Die) clone() *Die {
	return &Die{Info: d.Info, Rolls: cloneInts(d.Rolls)}
}

// Cycle advances the die to the next type and shows face 1.
func (d *Die) Cycle() {
	d.Info.Type = d.Info.Type.Next()
	d.Info.Face = 1
	d.Info.State = DieIdle
}

// Tumble shows an intermediate face while the die is still moving.
func (d *Die) Tumble(face int) {
	d.Info.Face = face
	d.Info.State = DieRolling
}

// Settle records result as the outcome of the current roll.
func (d *Die) Settle(result int) {
	d.Info.State = DieRolled
	d.Rolls = append(d.Rolls, result)
}

// Undo drops the most recent roll. It reports false when there was nothing to drop.
func (d *Die) Undo() bool {
	if len(d.Rolls) == 0 {
		return false
	}
	d.Rolls = d.Rolls[:len(d.Rolls)-1]
	d.Info.State = DieIdle
	return true
}

// DiceSet maps die identifiers to dice.
type DiceSet map[string]*Die

func (DiceSet) Kind() Kind { return KindDice }

func (s DiceSet) Clone() Document {
	out := make(DiceSet, len(s))
	for id, d := range s {
		out[id] = d.clone()
	}
	return out
}

// IDs returns the die identifiers in lexical order.
func (s DiceSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *DiceSet) UnmarshalJSON(b []byte) error {
	var raw map[string]*Die
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(DiceSet, len(raw))
	for id, d := range raw {
		if d == nil {
			return fmt.Errorf("die %q: %w", id, ErrInvalidRequest)
		}
		if d.Info.Type == "" {
			d.Info.Type = DieUnknown
		}
		if d.Info.State == "" {
			d.Info.State = DieIdle
		}
		if d.Rolls == nil {
			d.Rolls = []int{}
		}
		out[id] = d
	}
	*s = out
	return nil
}

// NewDie returns an idle die of the given type showing face 1.
func NewDie(name string, t DieType) *Die {
	return &Die{
		Info:  DieInfo{Name: name, Type: t, Face: 1, State: DieIdle},
		Rolls: []int{},
	}
}
