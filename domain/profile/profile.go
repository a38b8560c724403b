// Package profile holds phylogenetic profiles: one presence/absence symbol per
// reference organism, compared position by position.
package profile

import (
	"fmt"
	"strings"

	"prowler/domain/core"
)

// Sign is one symbol of a profile.
type Sign byte

const (
	Positive Sign = '+'
	Negative Sign = '-'
	Neutral  Sign = '0'
)

// Valid reports whether s belongs to the profile alphabet.
func (s Sign) Valid() bool {
	return s == Positive || s == Negative || s == Neutral
}

// Profile is an immutable sequence of signs.
type Profile string

// Parse normalises and validates a textual profile. The Unicode minus sign is
// accepted as Negative.
func Parse(raw string) (Profile, error) {
	normalised := strings.ReplaceAll(strings.TrimSpace(raw), "−", "-")
	if normalised == "" {
		return "", core.NewValidationError("profile", "empty profile")
	}
	for i := 0; i < len(normalised); i++ {
		if !Sign(normalised[i]).Valid() {
			return "", core.NewValidationError("profile",
				fmt.Sprintf("symbol %q at position %d is not one of +, -, 0", normalised[i], i))
		}
	}
	return Profile(normalised), nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(raw string) Profile {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of reference organisms covered.
func (p Profile) Len() int { return len(p) }

// At returns the sign at position i.
func (p Profile) At(i int) Sign { return Sign(p[i]) }

func (p Profile) String() string { return string(p) }

// IsFlat reports whether every position carries sign s, e.g. "++++".
func (p Profile) IsFlat(s Sign) bool {
	if len(p) == 0 {
		return false
	}
	for i := 0; i < len(p); i++ {
		if Sign(p[i]) != s {
			return false
		}
	}
	return true
}

// Flat builds a profile of n copies of s.
func Flat(s Sign, n int) Profile {
	return Profile(strings.Repeat(string(s), n))
}

// UnmarshalText parses and validates a profile decoded from JSON or text.
func (p *Profile) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
