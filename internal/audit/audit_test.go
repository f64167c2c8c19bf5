package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/dyndash/combat-provider/pkg/log"
	"github.com/stretchr/testify/require"
)

func TestLogWithDetail_WritesAuditFields(t *testing.T) {
	req := require.New(t)

	// Given
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(log.Config{Level: "info", Output: &buf}))

	// When
	LogWithDetail(ctx, ActionDiceRoll, "simulated-dice", "die=d1", "die rolled")

	// Then
	var entry map[string]any
	req.NoError(json.Unmarshal(buf.Bytes(), &entry))
	req.Equal(log.LogTypeAudit, entry[log.FieldLogType])
	req.Equal(ActionDiceRoll, entry[FieldAction])
	req.Equal("simulated-dice", entry[log.FieldSource])
	req.Equal("die=d1", entry[FieldDetail])
	req.Equal("die rolled", entry["message"])
}
