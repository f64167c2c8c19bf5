package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	require.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	require.Equal(t, zerolog.Disabled, ParseLevel("off"))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}

func TestWithSource_TagsContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", ServiceName: "combat-provider", Output: &buf})

	ctx := WithSource(WithLogger(context.Background(), logger), "party/heroes")
	l := Ctx(ctx)
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "party/heroes", entry[FieldSource])
	require.Equal(t, "combat-provider", entry[FieldService])
	require.Equal(t, "hello", entry["message"])
}
