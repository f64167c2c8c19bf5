package domain

import (
	"slices"

	"github.com/samber/lo"
)

// CustomBonusAction selects what a custom bonus request does.
type CustomBonusAction string

const (
	CustomBonusCreate CustomBonusAction = "create"
	CustomBonusDelete CustomBonusAction = "delete"
)

// CustomBonus is a request to add a freely entered bonus or remove one by position.
type CustomBonus struct {
	Action CustomBonusAction `json:"action" binding:"required,oneof=create delete"`
	Index  *int              `json:"index,omitempty"`
	Value  *int              `json:"value,omitempty"`
}

// toggleIndex flips membership of index in the active set. The set is kept sorted.
func toggleIndex(active []int, bonuses []int, index int) ([]int, error) {
	if index < 0 || index >= len(bonuses) {
		return active, ErrBonusIndexOutOfRange
	}
	if lo.Contains(active, index) {
		return lo.Without(active, index), nil
	}
	out := append(cloneInts(active), index)
	slices.Sort(out)
	return out, nil
}

// applyCustomBonus creates or deletes an entry of custom. Deleting an index
// that is out of range leaves custom unchanged.
func applyCustomBonus(custom []int, req CustomBonus) ([]int, error) {
	switch req.Action {
	case CustomBonusCreate:
		if req.Value == nil {
			return custom, ErrInvalidRequest
		}
		return append(cloneInts(custom), *req.Value), nil
	case CustomBonusDelete:
		if req.Index == nil {
			return custom, ErrInvalidRequest
		}
		i := *req.Index
		if i < 0 || i >= len(custom) {
			return custom, nil
		}
		return slices.Delete(cloneInts(custom), i, i+1), nil
	default:
		return custom, ErrInvalidRequest
	}
}

// activeSum adds up the bonuses selected by indices, skipping stale indices.
func activeSum(bonuses []int, indices []int) int {
	return lo.SumBy(indices, func(i int) int {
		if i < 0 || i >= len(bonuses) {
			return 0
		}
		return bonuses[i]
	})
}

func normalizeInts(in []int) []int {
	if in == nil {
		return []int{}
	}
	return in
}
