package audit

import (
	"context"

	"github.com/dyndash/combat-provider/pkg/log"
)

// Audit actions for combat state changes.
const (
	ActionDiceCycle                   = "dice.cycle"
	ActionDiceRoll                    = "dice.roll"
	ActionDiceUndo                    = "dice.undo"
	ActionPartyToggleBonus            = "party.toggle_bonus"
	ActionPartyCustomBonus            = "party.custom_bonus"
	ActionEncounterToggleBonus        = "encounter.toggle_bonus"
	ActionEncounterCustomBonus        = "encounter.custom_bonus"
	ActionEncounterToggleAdvantage    = "encounter.toggle_advantage"
	ActionEncounterToggleDisadvantage = "encounter.toggle_disadvantage"
	ActionEncounterSetActiveStatblock = "encounter.set_active_statblock"
	ActionCategoryReplaced            = "scraper.category_replaced"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, source string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldSource, source).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, source string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldSource, source).
		Str(FieldDetail, detail).
		Msg(msg)
}
