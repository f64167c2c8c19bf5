package service

import (
	"context"

	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/dyndash/combat-provider/internal/hub"
	"github.com/dyndash/combat-provider/internal/store"
)

type CombatService interface {
	// Subscription channel
	HandleSubscribe(ctx context.Context, client *hub.Client, source string) error
	HandleUnsubscribe(ctx context.Context, client *hub.Client) error
	HandleDisconnect(ctx context.Context, client *hub.Client)

	// Queries
	Info() domain.ProviderInfo
	DataTypes() map[string]domain.DataType
	Sources() map[string]domain.Source
	AllData() map[string]domain.Document
	Data(source string) (domain.Document, error)

	// Dice
	CycleDie(ctx context.Context, req domain.DieRequest) error
	RollDie(ctx context.Context, req domain.DieRequest) error
	UndoDie(ctx context.Context, req domain.DieRequest) error
	ApplyDie(ctx context.Context, source, dieID string, change func(*domain.Die)) error

	// Party
	TogglePartyBonus(ctx context.Context, party, player string, index int) error
	ApplyPartyCustomBonus(ctx context.Context, party, player string, bonus domain.CustomBonus) error
	UpdateParty(ctx context.Context, req domain.PartyToggle) error

	// Encounter
	ToggleEncounterBonus(ctx context.Context, encounter string, index int) error
	ToggleAdvantage(ctx context.Context, encounter string) error
	ToggleDisadvantage(ctx context.Context, encounter string) error
	SetActiveStatblock(ctx context.Context, encounter, statblock string) error
	ApplyEncounterCustomBonus(ctx context.Context, encounter string, bonus domain.CustomBonus) error
	UpdateEncounter(ctx context.Context, req domain.EncounterToggle) error

	// Loading
	RegisterDataTypes(types map[string]domain.DataType)
	ReplaceCategory(ctx context.Context, category domain.Category, entries []store.Entry) error
}
