package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/dyndash/combat-provider/internal/audit"
	"github.com/dyndash/combat-provider/internal/dice"
	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/dyndash/combat-provider/internal/hub"
	"github.com/dyndash/combat-provider/internal/scheduler"
	"github.com/dyndash/combat-provider/internal/store"
	"github.com/dyndash/combat-provider/pkg/log"
)

// Config holds combat service configuration.
type Config struct {
	Info       domain.ProviderInfo
	DiceSource string
	Dice       dice.Config
}

type combatService struct {
	hub       *hub.Hub
	store     store.DocumentStore
	sequencer *dice.Sequencer
	config    Config

	// mu orders every mutation with its broadcast so subscribers see
	// updates of a source in the order they were applied.
	mu sync.Mutex

	typesMu sync.RWMutex
	types   map[string]domain.DataType
}

// NewCombatService creates a new CombatService instance.
func NewCombatService(
	h *hub.Hub,
	st store.DocumentStore,
	roller *dice.Roller,
	sched scheduler.Scheduler,
	cfg Config,
) CombatService {
	s := &combatService{
		hub:    h,
		store:  st,
		config: cfg,
		types:  domain.BuiltinDataTypes(),
	}
	s.sequencer = dice.NewSequencer(s, roller, sched, cfg.Dice)
	return s
}

// Subscription channel

func (s *combatService) HandleSubscribe(ctx context.Context, c *hub.Client, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, doc, err := s.store.Lookup(source)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", source, err)
	}
	if !s.hub.Subscribe(c, source) {
		return nil
	}
	return c.SendMessage(domain.NewConnectedMessage(source, data))
}

func (s *combatService) HandleUnsubscribe(ctx context.Context, c *hub.Client) error {
	s.hub.Unsubscribe(c)
	return c.SendMessage(&domain.UnsubscribedMessage{Status: domain.StatusUnsubscribed})
}

func (s *combatService) HandleDisconnect(ctx context.Context, c *hub.Client) {
	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldClientID, c.ID).Msg("subscriber disconnected")
}

// Queries

func (s *combatService) Info() domain.ProviderInfo {
	return s.config.Info
}

func (s *combatService) DataTypes() map[string]domain.DataType {
	s.typesMu.RLock()
	defer s.typesMu.RUnlock()

	out := make(map[string]domain.DataType, len(s.types))
	for name, t := range s.types {
		out[name] = t
	}
	return out
}

func (s *combatService) Sources() map[string]domain.Source {
	return s.store.Descriptors()
}

func (s *combatService) AllData() map[string]domain.Document {
	return s.store.GetAll()
}

func (s *combatService) Data(source string) (domain.Document, error) {
	_, doc, err := s.store.Lookup(source)
	return doc, err
}

// Dice

func (s *combatService) diceSource(req domain.DieRequest) string {
	if req.Source != "" {
		return req.Source
	}
	return s.config.DiceSource
}

func (s *combatService) CycleDie(ctx context.Context, req domain.DieRequest) error {
	source := s.diceSource(req)
	var next domain.DieType
	err := s.ApplyDie(ctx, source, req.ID, func(d *domain.Die) {
		d.Cycle()
		next = d.Info.Type
	})
	if err != nil {
		return err
	}
	audit.LogWithDetail(ctx, audit.ActionDiceCycle, source, "die="+req.ID+" type="+string(next), "die cycled")
	return nil
}

func (s *combatService) RollDie(ctx context.Context, req domain.DieRequest) error {
	source := s.diceSource(req)
	doc, ok := s.store.Get(source)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoData, source)
	}
	set, ok := doc.(domain.DiceSet)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrWrongDocumentKind, source)
	}
	die, ok := set[req.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrDieNotFound, req.ID)
	}

	provisional, err := s.sequencer.Roll(ctx, source, req.ID, die.Info.Type)
	if err != nil {
		return err
	}
	audit.LogWithDetail(ctx, audit.ActionDiceRoll, source,
		"die="+req.ID+" type="+string(die.Info.Type)+" provisional="+strconv.Itoa(provisional), "die roll started")
	return nil
}

func (s *combatService) UndoDie(ctx context.Context, req domain.DieRequest) error {
	source := s.diceSource(req)
	undone := false
	err := s.ApplyDie(ctx, source, req.ID, func(d *domain.Die) {
		undone = d.Undo()
	})
	if err != nil {
		return err
	}
	if undone {
		audit.LogWithDetail(ctx, audit.ActionDiceUndo, source, "die="+req.ID, "die roll undone")
	}
	return nil
}

// ApplyDie changes one die and broadcasts the dice document. A nil change
// broadcasts the current document.
func (s *combatService) ApplyDie(ctx context.Context, source, dieID string, change func(*domain.Die)) error {
	return s.mutate(ctx, source, func(doc domain.Document) error {
		set, ok := doc.(domain.DiceSet)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrWrongDocumentKind, source)
		}
		d, ok := set[dieID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrDieNotFound, dieID)
		}
		if change != nil {
			change(d)
		}
		return nil
	})
}

// Party

func (s *combatService) TogglePartyBonus(ctx context.Context, party, player string, index int) error {
	return s.UpdateParty(ctx, domain.PartyToggle{Party: party, Player: player, BonusIndex: &index})
}

func (s *combatService) ApplyPartyCustomBonus(ctx context.Context, party, player string, bonus domain.CustomBonus) error {
	return s.UpdateParty(ctx, domain.PartyToggle{Party: party, Player: player, CustomBonus: &bonus})
}

func (s *combatService) UpdateParty(ctx context.Context, req domain.PartyToggle) error {
	if req.Empty() {
		return fmt.Errorf("%w: nothing to change", domain.ErrInvalidRequest)
	}
	err := s.mutate(ctx, req.Party, func(doc domain.Document) error {
		p, ok := doc.(*domain.Party)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrWrongDocumentKind, req.Party)
		}
		m, ok := p.Member(req.Player)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, req.Player)
		}
		return req.Apply(m)
	})
	if err != nil {
		return err
	}

	ctx = log.WithSource(ctx, req.Party)
	if req.BonusIndex != nil {
		audit.LogWithDetail(ctx, audit.ActionPartyToggleBonus, req.Party,
			"player="+req.Player+" index="+strconv.Itoa(*req.BonusIndex), "party bonus toggled")
	}
	if req.CustomBonus != nil {
		audit.LogWithDetail(ctx, audit.ActionPartyCustomBonus, req.Party,
			"player="+req.Player+" action="+string(req.CustomBonus.Action), "party custom bonus changed")
	}
	return nil
}

// Encounter

func (s *combatService) ToggleEncounterBonus(ctx context.Context, encounter string, index int) error {
	return s.UpdateEncounter(ctx, domain.EncounterToggle{Encounter: encounter, BonusIndex: &index})
}

func (s *combatService) ToggleAdvantage(ctx context.Context, encounter string) error {
	on := true
	return s.UpdateEncounter(ctx, domain.EncounterToggle{Encounter: encounter, Advantage: &on})
}

func (s *combatService) ToggleDisadvantage(ctx context.Context, encounter string) error {
	on := true
	return s.UpdateEncounter(ctx, domain.EncounterToggle{Encounter: encounter, Disadvantage: &on})
}

func (s *combatService) SetActiveStatblock(ctx context.Context, encounter, statblock string) error {
	return s.UpdateEncounter(ctx, domain.EncounterToggle{Encounter: encounter, ActiveStatblock: &statblock})
}

func (s *combatService) ApplyEncounterCustomBonus(ctx context.Context, encounter string, bonus domain.CustomBonus) error {
	return s.UpdateEncounter(ctx, domain.EncounterToggle{Encounter: encounter, CustomBonus: &bonus})
}

func (s *combatService) UpdateEncounter(ctx context.Context, req domain.EncounterToggle) error {
	if req.Empty() {
		return fmt.Errorf("%w: nothing to change", domain.ErrInvalidRequest)
	}
	err := s.mutate(ctx, req.Encounter, func(doc domain.Document) error {
		e, ok := doc.(*domain.Encounter)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrWrongDocumentKind, req.Encounter)
		}
		return req.Apply(e)
	})
	if err != nil {
		return err
	}

	ctx = log.WithSource(ctx, req.Encounter)
	if req.BonusIndex != nil {
		audit.LogWithDetail(ctx, audit.ActionEncounterToggleBonus, req.Encounter,
			"index="+strconv.Itoa(*req.BonusIndex), "encounter bonus toggled")
	}
	if req.Advantage != nil && *req.Advantage {
		audit.Log(ctx, audit.ActionEncounterToggleAdvantage, req.Encounter, "advantage toggled")
	}
	if req.Disadvantage != nil && *req.Disadvantage {
		audit.Log(ctx, audit.ActionEncounterToggleDisadvantage, req.Encounter, "disadvantage toggled")
	}
	if req.ActiveStatblock != nil {
		audit.LogWithDetail(ctx, audit.ActionEncounterSetActiveStatblock, req.Encounter,
			"statblock="+*req.ActiveStatblock, "active statblock changed")
	}
	if req.CustomBonus != nil {
		audit.LogWithDetail(ctx, audit.ActionEncounterCustomBonus, req.Encounter,
			"action="+string(req.CustomBonus.Action), "encounter custom bonus changed")
	}
	return nil
}

// Loading

func (s *combatService) RegisterDataTypes(types map[string]domain.DataType) {
	s.typesMu.Lock()
	defer s.typesMu.Unlock()

	for name, t := range types {
		s.types[name] = t
	}
}

func (s *combatService) ReplaceCategory(ctx context.Context, category domain.Category, entries []store.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := s.store.ReplaceCategory(category, entries)
	for _, name := range names {
		doc, ok := s.store.Get(name)
		if !ok {
			continue
		}
		if err := s.broadcastLocked(ctx, name, doc, nil); err != nil {
			return err
		}
	}
	audit.LogWithDetail(ctx, audit.ActionCategoryReplaced, string(category),
		"sources="+strconv.Itoa(len(names)), "category replaced")
	return nil
}

// mutate applies fn to the source's document and broadcasts the result.
func (s *combatService) mutate(ctx context.Context, source string, fn func(domain.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Update(source, fn)
	if err != nil {
		return err
	}
	return s.broadcastLocked(ctx, source, doc, nil)
}

// broadcastLocked sends an updated envelope to subscribers of source. The
// caller holds s.mu.
func (s *combatService) broadcastLocked(ctx context.Context, source string, doc domain.Document, appendTags []string) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", source, err)
	}
	msg, err := json.Marshal(domain.NewUpdatedMessage(source, data, appendTags))
	if err != nil {
		return fmt.Errorf("encode update for %s: %w", source, err)
	}

	sent := s.hub.Broadcast(source, msg)
	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldSource, source).Int("subscribers", sent).Msg("update broadcast")
	return nil
}
