package service

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/dyndash/combat-provider/internal/config"
	"github.com/dyndash/combat-provider/internal/dice"
	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/dyndash/combat-provider/internal/hub"
	"github.com/dyndash/combat-provider/internal/scheduler"
	"github.com/dyndash/combat-provider/internal/store"
	"github.com/stretchr/testify/require"
)

const diceSource = "simulated-dice"

type fixture struct {
	hub   *hub.Hub
	store store.DocumentStore
	clock *scheduler.Manual
	svc   CombatService
}

func newFixture(t *testing.T) *fixture {
	h := hub.NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	st := store.NewMemoryStore()
	clock := scheduler.NewManual()
	svc := NewCombatService(h, st, dice.NewRoller(rand.NewPCG(11, 13)), clock, Config{
		DiceSource: diceSource,
		Dice:       dice.DefaultConfig(),
	})

	party := domain.NewParty("/party/toggle")
	party.AddMember("Aria", &domain.Member{BaseAC: 14, Bonuses: []int{2, -1}, ActiveBonusIndices: []int{0}})

	encounter := domain.NewEncounter("/encounter/toggle", []int{2, 5})
	encounter.Statblocks["goblin"] = domain.Statblock{AttackBonus: 4}

	st.ReplaceCategory(domain.CategoryStatic, []store.Entry{{
		Key:      diceSource,
		Source:   domain.Source{Name: "Simulated Dice", DataTypes: []string{domain.DataTypeDice}},
		Document: domain.DiceSet{"d1": domain.NewDie("Red", domain.DieD20)},
	}, {
		Key:    "empty",
		Source: domain.Source{Name: "Empty"},
	}})
	st.ReplaceCategory(domain.CategoryParty, []store.Entry{{
		Key:      "party/heroes",
		Source:   domain.Source{Name: "heroes", DataTypes: []string{domain.DataTypeParty}},
		Document: party,
	}})
	st.ReplaceCategory(domain.CategoryEncounter, []store.Entry{{
		Key:      "encounter/ambush",
		Source:   domain.Source{Name: "ambush", DataTypes: []string{domain.DataTypeEncounter}},
		Document: encounter,
	}})

	return &fixture{hub: h, store: st, clock: clock, svc: svc}
}

func (f *fixture) client(id string) *hub.Client {
	c := hub.NewClient(id, f.hub, nil, config.WebSocketConfig{SendBuffer: 64})
	f.hub.Register(c)
	return c
}

func drain(t *testing.T, c *hub.Client) []map[string]json.RawMessage {
	var out []map[string]json.RawMessage
	for {
		select {
		case raw := <-c.Send:
			var msg map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func status(msg map[string]json.RawMessage) string {
	var s string
	_ = json.Unmarshal(msg["status"], &s)
	return s
}

func TestHandleSubscribe(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given
	f := newFixture(t)
	c := f.client("c1")

	// When / Then
	req.ErrorIs(f.svc.HandleSubscribe(ctx, c, "nope"), domain.ErrSourceNotFound)
	req.ErrorIs(f.svc.HandleSubscribe(ctx, c, "empty"), domain.ErrNoData)
	req.Empty(drain(t, c))

	req.NoError(f.svc.HandleSubscribe(ctx, c, "party/heroes"))
	msgs := drain(t, c)
	req.Len(msgs, 1)
	req.Equal(domain.StatusConnected, status(msgs[0]))
	req.JSONEq(`"party/heroes"`, string(msgs[0]["source"]))

	req.NoError(f.svc.HandleUnsubscribe(ctx, c))
	msgs = drain(t, c)
	req.Len(msgs, 1)
	req.Equal(domain.StatusUnsubscribed, status(msgs[0]))
	req.Zero(f.hub.SubscriberCount("party/heroes"))
}

func TestBroadcast_OnlyReachesSubscribersOfMutatedSource(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given
	f := newFixture(t)
	s := f.client("s")
	tc := f.client("t")
	req.NoError(f.svc.HandleSubscribe(ctx, s, "party/heroes"))
	req.NoError(f.svc.HandleSubscribe(ctx, tc, "encounter/ambush"))
	drain(t, s)
	drain(t, tc)

	// When
	req.NoError(f.svc.TogglePartyBonus(ctx, "party/heroes", "Aria", 1))
	req.NoError(f.svc.TogglePartyBonus(ctx, "party/heroes", "Aria", 1))

	// Then
	sMsgs := drain(t, s)
	req.Len(sMsgs, 2)
	for _, m := range sMsgs {
		req.Equal(domain.StatusUpdated, status(m))
		req.JSONEq(`"party/heroes"`, string(m["source"]))
		req.JSONEq(`[]`, string(m["append"]))
	}
	req.Empty(drain(t, tc))

	doc, err := f.svc.Data("party/heroes")
	req.NoError(err)
	req.Equal([]int{0}, doc.(*domain.Party).Members["Aria"].ActiveBonusIndices)
}

func TestRollDie_Scenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given
	f := newFixture(t)
	c := f.client("c")
	req.NoError(f.svc.HandleSubscribe(ctx, c, diceSource))
	drain(t, c)

	// When
	req.NoError(f.svc.RollDie(ctx, domain.DieRequest{ID: "d1"}))
	req.Len(drain(t, c), 1)
	f.clock.Advance(500 * time.Millisecond)

	// Then
	msgs := drain(t, c)
	req.Len(msgs, 5)

	var faces []int
	for _, m := range msgs[:4] {
		var set domain.DiceSet
		req.NoError(json.Unmarshal(m["data"], &set))
		req.Equal(domain.DieRolling, set["d1"].Info.State)
		faces = append(faces, set["d1"].Info.Face)
	}

	doc, err := f.svc.Data(diceSource)
	req.NoError(err)
	die := doc.(domain.DiceSet)["d1"]
	req.Equal(domain.DieRolled, die.Info.State)
	req.Equal([]int{faces[3]}, die.Rolls)
}

func TestRollDie_UnknownDie(t *testing.T) {
	req := require.New(t)

	f := newFixture(t)
	err := f.svc.RollDie(context.Background(), domain.DieRequest{ID: "missing"})
	req.ErrorIs(err, domain.ErrDieNotFound)
	req.True(domain.IsNotFound(err))
	req.Zero(f.clock.Pending())
}

func TestCycleAndUndoDie(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	f := newFixture(t)
	c := f.client("c")
	req.NoError(f.svc.HandleSubscribe(ctx, c, diceSource))
	drain(t, c)

	req.NoError(f.svc.CycleDie(ctx, domain.DieRequest{ID: "d1"}))
	doc, _ := f.svc.Data(diceSource)
	req.Equal(domain.DieD6Fudge, doc.(domain.DiceSet)["d1"].Info.Type)

	// Undo with no rolls leaves the document alone but still answers.
	before, _ := json.Marshal(doc)
	req.NoError(f.svc.UndoDie(ctx, domain.DieRequest{ID: "d1"}))
	after, _ := f.svc.Data(diceSource)
	afterJSON, _ := json.Marshal(after)
	req.JSONEq(string(before), string(afterJSON))

	req.Len(drain(t, c), 2)
	req.ErrorIs(f.svc.CycleDie(ctx, domain.DieRequest{ID: "nope"}), domain.ErrDieNotFound)
	req.ErrorIs(f.svc.CycleDie(ctx, domain.DieRequest{ID: "d1", Source: "party/heroes"}), domain.ErrWrongDocumentKind)
}

func TestUpdateParty_Errors(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	f := newFixture(t)
	idx := 0

	req.ErrorIs(f.svc.TogglePartyBonus(ctx, "party/none", "Aria", 0), domain.ErrSourceNotFound)
	req.ErrorIs(f.svc.TogglePartyBonus(ctx, "party/heroes", "Bob", 0), domain.ErrPlayerNotFound)
	req.ErrorIs(f.svc.TogglePartyBonus(ctx, "party/heroes", "Aria", 5), domain.ErrBonusIndexOutOfRange)
	req.ErrorIs(f.svc.UpdateParty(ctx, domain.PartyToggle{Party: "party/heroes", Player: "Aria"}), domain.ErrInvalidRequest)
	req.ErrorIs(f.svc.UpdateEncounter(ctx, domain.EncounterToggle{Encounter: "party/heroes", BonusIndex: &idx}), domain.ErrWrongDocumentKind)
}

func TestPartyCustomBonus_Scenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	f := newFixture(t)
	three, zero := 3, 0

	doc, _ := f.svc.Data("party/heroes")
	req.Equal(16, doc.(*domain.Party).Members["Aria"].ArmorClass())

	req.NoError(f.svc.ApplyPartyCustomBonus(ctx, "party/heroes", "Aria", domain.CustomBonus{Action: domain.CustomBonusCreate, Value: &three}))
	doc, _ = f.svc.Data("party/heroes")
	req.Equal(19, doc.(*domain.Party).Members["Aria"].ArmorClass())

	req.NoError(f.svc.ApplyPartyCustomBonus(ctx, "party/heroes", "Aria", domain.CustomBonus{Action: domain.CustomBonusDelete, Index: &zero}))
	doc, _ = f.svc.Data("party/heroes")
	req.Equal([]int{}, doc.(*domain.Party).Members["Aria"].ActiveCustomBonuses)
}

func TestEncounterOperations(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	f := newFixture(t)

	req.NoError(f.svc.ToggleAdvantage(ctx, "encounter/ambush"))
	req.NoError(f.svc.ToggleDisadvantage(ctx, "encounter/ambush"))
	req.NoError(f.svc.SetActiveStatblock(ctx, "encounter/ambush", "goblin"))
	req.NoError(f.svc.ToggleEncounterBonus(ctx, "encounter/ambush", 1))

	doc, err := f.svc.Data("encounter/ambush")
	req.NoError(err)
	e := doc.(*domain.Encounter)
	req.True(e.Meta.Advantage)
	req.True(e.Meta.Disadvantage)
	req.Equal("goblin", *e.Meta.ActiveStatblock)
	req.Equal(5+4, e.AttackModifier())

	req.NoError(f.svc.SetActiveStatblock(ctx, "encounter/ambush", "goblin"))
	doc, _ = f.svc.Data("encounter/ambush")
	req.Nil(doc.(*domain.Encounter).Meta.ActiveStatblock)

	req.ErrorIs(f.svc.SetActiveStatblock(ctx, "encounter/ambush", "dragon"), domain.ErrStatblockNotFound)
	req.ErrorIs(f.svc.ToggleAdvantage(ctx, "encounter/none"), domain.ErrSourceNotFound)
}

func TestUpdateEncounter_MultipleFieldsOneBroadcast(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	f := newFixture(t)
	c := f.client("c")
	req.NoError(f.svc.HandleSubscribe(ctx, c, "encounter/ambush"))
	drain(t, c)

	on, idx, sb := true, 0, "goblin"
	req.NoError(f.svc.UpdateEncounter(ctx, domain.EncounterToggle{
		Encounter:       "encounter/ambush",
		BonusIndex:      &idx,
		Advantage:       &on,
		ActiveStatblock: &sb,
	}))

	msgs := drain(t, c)
	req.Len(msgs, 1)

	var e domain.Encounter
	req.NoError(json.Unmarshal(msgs[0]["data"], &e))
	req.Equal([]int{0}, e.Meta.ActiveBonusIndices)
	req.True(e.Meta.Advantage)
	req.False(e.Meta.Disadvantage)
	req.Equal("goblin", *e.Meta.ActiveStatblock)
}

func TestReplaceCategory_BroadcastsNewDocuments(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	f := newFixture(t)
	c := f.client("c")
	req.NoError(f.svc.HandleSubscribe(ctx, c, "party/heroes"))
	drain(t, c)

	party := domain.NewParty("/party/toggle")
	party.AddMember("Brom", &domain.Member{BaseAC: 18})
	req.NoError(f.svc.ReplaceCategory(ctx, domain.CategoryParty, []store.Entry{{
		Key:      "party/heroes",
		Source:   domain.Source{Name: "heroes", DataTypes: []string{domain.DataTypeParty}},
		Document: party,
	}}))

	msgs := drain(t, c)
	req.Len(msgs, 1)
	var got domain.Party
	req.NoError(json.Unmarshal(msgs[0]["data"], &got))
	req.Equal([]string{"Brom"}, got.Names())

	_, err := f.svc.Data(diceSource)
	req.NoError(err)
}

func TestRegisterDataTypes(t *testing.T) {
	req := require.New(t)

	f := newFixture(t)
	f.svc.RegisterDataTypes(map[string]domain.DataType{"initiative": {Name: "initiative"}})

	types := f.svc.DataTypes()
	req.Contains(types, "initiative")
	req.Contains(types, domain.DataTypeDice)
}
