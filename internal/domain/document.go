package domain

import "encoding/json"

// Kind identifies the concrete shape of a Document.
type Kind string

const (
	KindDice      Kind = "dice"
	KindParty     Kind = "party"
	KindEncounter Kind = "encounter"
	KindRaw       Kind = "raw"
)

// Document is the value currently stored for a source. Implementations
// marshal to the JSON shape clients render.
type Document interface {
	Kind() Kind
	// Clone returns a deep copy that shares no mutable state with the receiver.
	Clone() Document
}

// RawDocument holds a document whose shape the server does not interpret.
type RawDocument json.RawMessage

func (RawDocument) Kind() Kind { return KindRaw }

func (d RawDocument) Clone() Document {
	out := make(RawDocument, len(d))
	copy(out, d)
	return out
}

func (d RawDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *RawDocument) UnmarshalJSON(b []byte) error {
	*d = append((*d)[:0], b...)
	return nil
}

func cloneInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}
