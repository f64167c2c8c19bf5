package domain

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// MetaKey is the reserved roster key that carries non-member data.
const MetaKey = "_meta"

// PartyMeta holds party-level data. Toggle is the endpoint clients post bonus toggles to.
type PartyMeta struct {
	Toggle string `json:"toggle,omitempty"`
}

// Member is one player character of a party.
type Member struct {
	ImageLink           string         `json:"image-link,omitempty"`
	BaseAC              int            `json:"base-ac"`
	Bonuses             []int          `json:"bonuses"`
	ActiveBonusIndices  []int          `json:"active-bonuses-indices"`
	ActiveCustomBonuses []int          `json:"active-custom-bonuses"`
	ExternalBonuses     map[string]int `json:"external-bonuses,omitempty"`
}

// ArmorClass is base AC plus every active, custom and external bonus.
func (m *Member) ArmorClass() int {
	return m.BaseAC +
		activeSum(m.Bonuses, m.ActiveBonusIndices) +
		lo.Sum(m.ActiveCustomBonuses) +
		lo.Sum(lo.Values(m.ExternalBonuses))
}

// ToggleBonus flips whether bonuses[index] applies.
func (m *Member) ToggleBonus(index int) error {
	active, err := toggleIndex(m.ActiveBonusIndices, m.Bonuses, index)
	if err != nil {
		return err
	}
	m.ActiveBonusIndices = active
	return nil
}

// ApplyCustomBonus adds or removes a custom bonus.
func (m *Member) ApplyCustomBonus(req CustomBonus) error {
	custom, err := applyCustomBonus(m.ActiveCustomBonuses, req)
	if err != nil {
		return err
	}
	m.ActiveCustomBonuses = custom
	return nil
}

func (m *Member) normalize() {
	m.Bonuses = normalizeInts(m.Bonuses)
	m.ActiveBonusIndices = normalizeInts(m.ActiveBonusIndices)
	m.ActiveCustomBonuses = normalizeInts(m.ActiveCustomBonuses)
}

func (m *Member) clone() *Member {
	out := &Member{
		ImageLink:           m.ImageLink,
		BaseAC:              m.BaseAC,
		Bonuses:             cloneInts(m.Bonuses),
		ActiveBonusIndices:  cloneInts(m.ActiveBonusIndices),
		ActiveCustomBonuses: cloneInts(m.ActiveCustomBonuses),
	}
	if m.ExternalBonuses != nil {
		out.ExternalBonuses = make(map[string]int, len(m.ExternalBonuses))
		for k, v := range m.ExternalBonuses {
			out.ExternalBonuses[k] = v
		}
	}
	return out
}

// Party is a roster of members keyed by player name.
type Party struct {
	Meta    PartyMeta
	Members map[string]*Member
}

func NewParty(toggle string) *Party {
	return &Party{
		Meta:    PartyMeta{Toggle: toggle},
		Members: make(map[string]*Member),
	}
}

func (*Party) Kind() Kind { return KindParty }

func (p *Party) Clone() Document {
	out := &Party{Meta: p.Meta, Members: make(map[string]*Member, len(p.Members))}
	for name, m := range p.Members {
		out.Members[name] = m.clone()
	}
	return out
}

// Member looks up a player; the second result is false when absent.
func (p *Party) Member(name string) (*Member, bool) {
	m, ok := p.Members[name]
	return m, ok
}

// AddMember inserts or replaces a member.
func (p *Party) AddMember(name string, m *Member) {
	m.normalize()
	p.Members[name] = m
}

// Names returns member names in lexical order.
func (p *Party) Names() []string {
	names := lo.Keys(p.Members)
	sort.Strings(names)
	return names
}

func (p *Party) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Members)+1)
	out[MetaKey] = p.Meta
	for name, m := range p.Members {
		out[name] = m
	}
	return json.Marshal(out)
}

func (p *Party) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed := &Party{Members: make(map[string]*Member, len(raw))}
	for key, value := range raw {
		if key == MetaKey {
			if err := json.Unmarshal(value, &parsed.Meta); err != nil {
				return fmt.Errorf("party %s: %w", MetaKey, err)
			}
			continue
		}
		var m Member
		if err := json.Unmarshal(value, &m); err != nil {
			return fmt.Errorf("party member %q: %w", key, err)
		}
		parsed.AddMember(key, &m)
	}
	*p = *parsed
	return nil
}
