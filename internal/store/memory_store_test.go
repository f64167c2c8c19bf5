package store

import (
	"errors"
	"testing"

	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/stretchr/testify/require"
)

func diceEntry(key string) Entry {
	return Entry{
		Key:      key,
		Source:   domain.Source{Name: "Dice", DataTypes: []string{domain.DataTypeDice}},
		Document: domain.DiceSet{"d1": domain.NewDie("Red", domain.DieD20)},
	}
}

func partyEntry(key string) Entry {
	p := domain.NewParty("/party/toggle")
	p.AddMember("Aria", &domain.Member{BaseAC: 14, Bonuses: []int{2}})
	return Entry{
		Key:      key,
		Source:   domain.Source{Name: key, DataTypes: []string{domain.DataTypeParty}},
		Document: p,
	}
}

func TestMemoryStore_LookupDistinguishesMissingSourceAndData(t *testing.T) {
	req := require.New(t)

	// Given
	s := NewMemoryStore()
	s.ReplaceCategory(domain.CategoryStatic, []Entry{
		diceEntry("simulated-dice"),
		{Key: "empty", Source: domain.Source{Name: "Empty"}},
	})

	// When
	_, _, errUnknown := s.Lookup("nope")
	_, _, errEmpty := s.Lookup("empty")
	desc, doc, err := s.Lookup("simulated-dice")

	// Then
	req.ErrorIs(errUnknown, domain.ErrSourceNotFound)
	req.ErrorIs(errEmpty, domain.ErrNoData)
	req.NoError(err)
	req.Equal("Dice", desc.Name)
	req.Equal(domain.KindDice, doc.Kind())

	_, ok := s.Get("empty")
	req.False(ok)
	req.Len(s.Descriptors(), 2)
	req.Len(s.GetAll(), 1)
}

func TestMemoryStore_ReplaceCategoryLeavesOthersUntouched(t *testing.T) {
	req := require.New(t)

	// Given
	s := NewMemoryStore()
	s.ReplaceCategory(domain.CategoryStatic, []Entry{diceEntry("simulated-dice")})
	s.ReplaceCategory(domain.CategoryParty, []Entry{partyEntry("party/a"), partyEntry("party/b")})

	// When
	names := s.ReplaceCategory(domain.CategoryParty, []Entry{partyEntry("party/c")})

	// Then
	req.Equal([]string{"party/c"}, names)
	_, ok := s.Descriptor("party/a")
	req.False(ok)
	_, ok = s.Get("party/b")
	req.False(ok)
	_, ok = s.Get("party/c")
	req.True(ok)
	_, ok = s.Get("simulated-dice")
	req.True(ok)
}

func TestMemoryStore_UpdateIsCopyOnWrite(t *testing.T) {
	req := require.New(t)

	s := NewMemoryStore()
	s.ReplaceCategory(domain.CategoryParty, []Entry{partyEntry("party/a")})

	// A failing update leaves the stored document as it was.
	boom := errors.New("boom")
	_, err := s.Update("party/a", func(doc domain.Document) error {
		doc.(*domain.Party).Members["Aria"].BaseAC = 99
		return boom
	})
	req.ErrorIs(err, boom)

	doc, _ := s.Get("party/a")
	req.Equal(14, doc.(*domain.Party).Members["Aria"].BaseAC)

	updated, err := s.Update("party/a", func(doc domain.Document) error {
		return doc.(*domain.Party).Members["Aria"].ToggleBonus(0)
	})
	req.NoError(err)
	req.Equal([]int{0}, updated.(*domain.Party).Members["Aria"].ActiveBonusIndices)

	// Mutating a returned copy does not leak back into the store.
	updated.(*domain.Party).Members["Aria"].BaseAC = 1
	doc, _ = s.Get("party/a")
	req.Equal(14, doc.(*domain.Party).Members["Aria"].BaseAC)
	req.Equal([]int{0}, doc.(*domain.Party).Members["Aria"].ActiveBonusIndices)
}

func TestMemoryStore_UpdateUnknown(t *testing.T) {
	req := require.New(t)

	s := NewMemoryStore()
	_, err := s.Update("party/x", func(domain.Document) error { return nil })
	req.ErrorIs(err, domain.ErrSourceNotFound)
	req.True(domain.IsNotFound(err))
}
