package model

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address identifies a participant on the host ledger: "0x" followed by
// 40 lower-case hex digits
type Address string

// ParseAddress validates and normalizes an address
func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	raw, ok := strings.CutPrefix(s, "0x")
	if !ok || len(raw) != 40 {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address(s), nil
}

// MustParseAddress is ParseAddress for constants; it panics on bad input
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether the address is unset
func (a Address) IsZero() bool {
	return a == ""
}

func (a Address) String() string {
	return string(a)
}

// UnmarshalText validates the address while decoding. Empty input decodes
// to the zero address.
func (a *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = ""
		return nil
	}
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
