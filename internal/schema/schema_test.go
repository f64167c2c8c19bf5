package schema

import (
	"encoding/json"
	"testing"

	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/stretchr/testify/require"
)

const initiativeSchema = `{
  "type": "object",
  "required": ["order"],
  "properties": {
    "order": {"type": "array", "items": {"type": "string"}}
  }
}`

func TestRegistry_Validate(t *testing.T) {
	req := require.New(t)

	// Given
	reg, err := Compile(map[string]domain.DataType{
		"initiative":         {Name: "initiative", Schema: json.RawMessage(initiativeSchema)},
		domain.DataTypeParty: {Name: domain.DataTypeParty},
	})
	req.NoError(err)

	// Then
	req.True(reg.Has("initiative"))
	req.False(reg.Has(domain.DataTypeParty))

	req.NoError(reg.Validate([]string{"initiative"}, json.RawMessage(`{"order":["Aria","goblin"]}`)))
	req.Error(reg.Validate([]string{"initiative"}, json.RawMessage(`{"order":[1]}`)))
	req.Error(reg.Validate([]string{"initiative"}, json.RawMessage(`{}`)))
	req.NoError(reg.Validate([]string{domain.DataTypeParty}, json.RawMessage(`{"anything":true}`)))
	req.ErrorIs(reg.Validate(nil, json.RawMessage(`{`)), domain.ErrInvalidRequest)
}

func TestCompile_RejectsBrokenSchema(t *testing.T) {
	req := require.New(t)

	_, err := Compile(map[string]domain.DataType{
		"broken": {Name: "broken", Schema: json.RawMessage(`{"type": 12}`)},
	})
	req.Error(err)
}
