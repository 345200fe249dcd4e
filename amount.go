package x402

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxDecimals is the largest token precision accepted. 10^77 is the largest
// power of ten that fits in a uint256.
const MaxDecimals = 77

var (
	// plainDecimal accepts unsigned base-10 numbers without exponent.
	plainDecimal = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

	// plainInteger accepts unsigned base-10 integers.
	plainInteger = regexp.MustCompile(`^[0-9]+$`)
)

// ToAtomic converts a human-readable decimal amount into atomic units of a token
// with the given precision. For example, "1.5" with 6 decimals becomes "1500000".
//
// The conversion is exact. Amounts with more fractional digits than the token
// supports are rejected rather than rounded, as are signs, exponents and values
// that do not fit in a uint256.
func ToAtomic(amount string, decimals int) (string, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return "", fmt.Errorf("%w: decimals %d out of range", ErrMalformedAmount, decimals)
	}

	amount = strings.TrimSpace(amount)
	if !plainDecimal.MatchString(amount) {
		return "", fmt.Errorf("%w: %q is not an unsigned decimal number", ErrMalformedAmount, amount)
	}

	if dot := strings.IndexByte(amount, '.'); dot >= 0 {
		if frac := len(amount) - dot - 1; frac > decimals {
			return "", fmt.Errorf("%w: %q has %d fractional digits, token allows %d",
				ErrMalformedAmount, amount, frac, decimals)
		}
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedAmount, err)
	}

	scaled := value.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return "", fmt.Errorf("%w: %q is not representable with %d decimals", ErrMalformedAmount, amount, decimals)
	}

	atomic := scaled.BigInt()
	if atomic.BitLen() > 256 {
		return "", fmt.Errorf("%w: %q overflows uint256", ErrMalformedAmount, amount)
	}
	return atomic.String(), nil
}

// FromAtomic converts atomic units back into a canonical decimal string.
// For example, "1500000" with 6 decimals becomes "1.5".
func FromAtomic(atomic string, decimals int) (string, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return "", fmt.Errorf("%w: decimals %d out of range", ErrMalformedAmount, decimals)
	}

	atomic = strings.TrimSpace(atomic)
	if !plainInteger.MatchString(atomic) {
		return "", fmt.Errorf("%w: %q is not an unsigned integer", ErrMalformedAmount, atomic)
	}

	value, ok := new(big.Int).SetString(atomic, 10)
	if !ok {
		return "", fmt.Errorf("%w: %q is not an unsigned integer", ErrMalformedAmount, atomic)
	}

	return decimal.NewFromBigInt(value, -int32(decimals)).String(), nil
}
