package model

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// etherDecimals is the number of wei digits in one ether
const etherDecimals = 18

// Wei is a non-negative 256-bit amount of the base currency's smallest unit.
// Arithmetic never wraps: overflow and underflow are reported as errors.
type Wei struct {
	v uint256.Int
}

// NewWei returns an amount of v wei
func NewWei(v uint64) Wei {
	var w Wei
	w.v.SetUint64(v)
	return w
}

// ParseWei parses a plain decimal wei amount
func ParseWei(s string) (Wei, error) {
	digits := strings.TrimLeft(s, "0")
	if !isDigits(s) {
		return Wei{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if digits == "" {
		return Wei{}, nil
	}
	var w Wei
	if err := w.v.SetFromDecimal(digits); err != nil {
		return Wei{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return w, nil
}

// ParseEther parses a decimal ether amount such as "0.00375"
func ParseEther(s string) (Wei, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || !isDigits(whole) || (frac != "" && !isDigits(frac)) || len(frac) > etherDecimals {
		return Wei{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return ParseWei(whole + frac + strings.Repeat("0", etherDecimals-len(frac)))
}

// ParseAmount accepts "10", "10wei" or "0.00375ether"
func ParseAmount(s string) (Wei, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasSuffix(s, "ether"):
		return ParseEther(strings.TrimSpace(strings.TrimSuffix(s, "ether")))
	case strings.HasSuffix(s, "wei"):
		return ParseWei(strings.TrimSpace(strings.TrimSuffix(s, "wei")))
	default:
		return ParseWei(s)
	}
}

// MustParseAmount is ParseAmount for constants; it panics on bad input
func MustParseAmount(s string) Wei {
	w, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return w
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Add returns w+o
func (w Wei) Add(o Wei) (Wei, error) {
	var r Wei
	if _, overflow := r.v.AddOverflow(&w.v, &o.v); overflow {
		return Wei{}, ErrAmountOverflow
	}
	return r, nil
}

// Sub returns w-o
func (w Wei) Sub(o Wei) (Wei, error) {
	var r Wei
	if _, underflow := r.v.SubOverflow(&w.v, &o.v); underflow {
		return Wei{}, ErrAmountUnderflow
	}
	return r, nil
}

// MulUint64 returns w*n
func (w Wei) MulUint64(n uint64) (Wei, error) {
	var r, m Wei
	m.v.SetUint64(n)
	if _, overflow := r.v.MulOverflow(&w.v, &m.v); overflow {
		return Wei{}, ErrAmountOverflow
	}
	return r, nil
}

// Cmp compares w and o and returns -1, 0 or +1
func (w Wei) Cmp(o Wei) int {
	return w.v.Cmp(&o.v)
}

// IsZero reports whether the amount is zero
func (w Wei) IsZero() bool {
	return w.v.IsZero()
}

// String returns the decimal wei representation
func (w Wei) String() string {
	return w.v.Dec()
}

// Ether formats the amount in ether without trailing zeros
func (w Wei) Ether() string {
	s := w.String()
	if len(s) <= etherDecimals {
		s = strings.Repeat("0", etherDecimals-len(s)+1) + s
	}
	whole, frac := s[:len(s)-etherDecimals], strings.TrimRight(s[len(s)-etherDecimals:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// MarshalText encodes the amount as decimal wei
func (w Wei) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText accepts any form understood by ParseAmount
func (w *Wei) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
