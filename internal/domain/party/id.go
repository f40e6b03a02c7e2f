package party

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Kind identifies which side of an exchange a party is.
type Kind string

const (
	KindPatient    Kind = "patient"
	KindProvider   Kind = "provider"
	KindFacility   Kind = "facility"
	KindDispensary Kind = "dispensary"
)

// Two-letter prefixes tag every identifier with its kind.
var prefixByKind = map[Kind]string{
	KindPatient:    "PA",
	KindProvider:   "DR",
	KindFacility:   "LB",
	KindDispensary: "PH",
}

var kindByPrefix = map[string]Kind{
	"PA": KindPatient,
	"DR": KindProvider,
	"LB": KindFacility,
	"PH": KindDispensary,
}

// idLen is prefix (2) + one digit + 4-character national identifier fragment.
const idLen = 7

// ID is a kind-tagged party identifier. The tag travels with the value so a
// provider id can never be looked up where a facility id is expected.
type ID struct {
	kind Kind
	raw  string
}

// Parse validates the wire form of an identifier and tags it with the kind
// encoded in its prefix.
func Parse(s string) (ID, error) {
	if len(s) != idLen {
		return ID{}, fmt.Errorf("party id %q: must be %d characters", s, idLen)
	}
	kind, ok := kindByPrefix[s[:2]]
	if !ok {
		return ID{}, fmt.Errorf("party id %q: unknown kind prefix %q", s, s[:2])
	}
	if s[2] < '1' || s[2] > '9' {
		return ID{}, fmt.Errorf("party id %q: expected digit after prefix", s)
	}
	for _, r := range s[3:] {
		if !isIDFragmentChar(r) {
			return ID{}, fmt.Errorf("party id %q: invalid character %q", s, r)
		}
	}
	return ID{kind: kind, raw: s}, nil
}

// ParseKind parses s and additionally rejects identifiers of any other kind.
func ParseKind(s string, kind Kind) (ID, error) {
	id, err := Parse(s)
	if err != nil {
		return ID{}, err
	}
	if id.kind != kind {
		return ID{}, fmt.Errorf("party id %q: expected %s, got %s", s, kind, id.kind)
	}
	return id, nil
}

// MustParse parses s and panics on failure. For tests and constants only.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) Kind() Kind     { return id.kind }
func (id ID) String() string { return id.raw }
func (id ID) IsZero() bool   { return id.raw == "" }

// MarshalText makes IDs serialize as their wire form in JSON responses.
func (id ID) MarshalText() ([]byte, error) { return []byte(id.raw), nil }

// UnmarshalText parses the wire form, keeping the kind tag intact when an ID
// lands in a bound request struct.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewID builds an identifier for the given kind from a national identifier:
// kind prefix, one random digit, then the last four characters of nationalID.
// Uniqueness is the caller's concern; collide and call again.
func NewID(kind Kind, nationalID string) (ID, error) {
	prefix, ok := prefixByKind[kind]
	if !ok {
		return ID{}, fmt.Errorf("unknown party kind %q", kind)
	}
	fragment := strings.ToUpper(nationalID)
	if len(fragment) < 4 {
		return ID{}, fmt.Errorf("national identifier too short: need at least 4 characters")
	}
	fragment = fragment[len(fragment)-4:]
	for _, r := range fragment {
		if !isIDFragmentChar(r) {
			return ID{}, fmt.Errorf("national identifier fragment %q: invalid character %q", fragment, r)
		}
	}

	digit := byte('1' + rand.IntN(9))
	return ID{kind: kind, raw: prefix + string(digit) + fragment}, nil
}

func isIDFragmentChar(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z')
}
