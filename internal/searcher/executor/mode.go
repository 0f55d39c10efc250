package executor

import (
	"encoding/json"
	"fmt"
)

// PhraseMode selects the positional index a phrase is matched against.
type PhraseMode int

const (
	// PhraseDisabled matches quoted phrases against the exact indexes.
	PhraseDisabled PhraseMode = iota
	// PhraseStemmed matches the whole query against the raw stemmed indexes.
	PhraseStemmed
	// PhraseExact matches the whole query against the raw unstemmed indexes.
	PhraseExact
)

// ParsePhraseMode reads the numeric form used on the wire. Anything other
// than "1" or "2" disables raw phrase matching.
func ParsePhraseMode(s string) PhraseMode {
	switch s {
	case "1":
		return PhraseStemmed
	case "2":
		return PhraseExact
	default:
		return PhraseDisabled
	}
}

func (m PhraseMode) String() string {
	switch m {
	case PhraseStemmed:
		return "stemmed"
	case PhraseExact:
		return "exact"
	default:
		return "disabled"
	}
}

// Wire returns the numeric form accepted by ParsePhraseMode.
func (m PhraseMode) Wire() string {
	return fmt.Sprintf("%d", int(m))
}

func (m PhraseMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *PhraseMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "stemmed", "1":
		*m = PhraseStemmed
	case "exact", "2":
		*m = PhraseExact
	case "disabled", "0", "":
		*m = PhraseDisabled
	default:
		return fmt.Errorf("unknown phrase mode %q", s)
	}
	return nil
}
