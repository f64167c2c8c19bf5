package domain

import "encoding/json"

// Category groups sources that a single scraper run replaces together.
type Category string

const (
	CategoryStatic    Category = "static"
	CategoryParty     Category = "party"
	CategoryEncounter Category = "encounter"
)

// Data type tags understood by the mutation operations.
const (
	DataTypeDice      = "digitalDice"
	DataTypeParty     = "party"
	DataTypeEncounter = "encounter"
)

// Connection tells a dashboard how to subscribe to a source.
type Connection struct {
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Endpoint string `json:"endpoint"`
}

// Source describes one independently subscribable unit of state.
type Source struct {
	Name        string     `json:"name"`
	Information string     `json:"information"`
	Explanation string     `json:"explanation"`
	DataTypes   []string   `json:"dataTypes"`
	Connection  Connection `json:"connection"`
}

// HasDataType reports whether the source declares the given tag.
func (s Source) HasDataType(tag string) bool {
	for _, t := range s.DataTypes {
		if t == tag {
			return true
		}
	}
	return false
}

// DataType is a recognised data-type tag. Schema, when present, is a JSON
// schema every document declaring the tag must satisfy.
type DataType struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty"`
}

// ProviderInfo is served from /info.
type ProviderInfo struct {
	Name     string   `json:"name"`
	Info     string   `json:"info"`
	Provides Provides `json:"provides"`
}

type Provides struct {
	Dashboards bool `json:"dashboards"`
	Components bool `json:"components"`
	Sources    bool `json:"sources"`
	Types      bool `json:"types"`
}

// BuiltinDataTypes returns the tags the server itself produces documents for.
func BuiltinDataTypes() map[string]DataType {
	return map[string]DataType{
		DataTypeDice: {
			Name:        DataTypeDice,
			Description: "Simulated dice: per die the displayed face, roll state and roll history.",
		},
		DataTypeParty: {
			Name:        DataTypeParty,
			Description: "Party roster: per member base AC, bonuses and active bonus selections.",
		},
		DataTypeEncounter: {
			Name:        DataTypeEncounter,
			Description: "Encounter roster: statblock attack bonuses and shared roll modifiers.",
		},
	}
}
