package ledger

import (
	"fmt"
	"math/big"
	"strings"

	apperrors "brickvest/internal/errors"
)

// decimals is the fixed-point precision of every monetary field on the
// contract: amounts cross the ABI boundary as integers scaled by 10^18.
const decimals = 18

var unitScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)

// ToBaseUnits converts a decimal string such as "12.345" into the
// contract's integer base-unit representation. The conversion is pure
// string/integer arithmetic; no floating point is involved, so any value
// expressible in 18 decimal places converts exactly. Inputs with more than
// 18 fractional digits, or that are not plain decimal numbers, are rejected
// with INVALID_AMOUNT.
func ToBaseUnits(amount string) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}

	if s == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%q is not a valid decimal amount", amount))
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%q is not a valid decimal amount", amount))
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%q is not a valid decimal amount", amount))
	}
	if len(fracPart) > decimals {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%q has more than %d decimal places", amount, decimals))
	}

	// Scale the fraction up to exactly 18 digits and join with the integer part.
	fracPart += strings.Repeat("0", decimals-len(fracPart))
	if intPart == "" {
		intPart = "0"
	}

	result, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%q is not a valid decimal amount", amount))
	}
	if neg {
		result.Neg(result)
	}
	return result, nil
}

// FromBaseUnits converts a contract base-unit integer back to a decimal
// string, trimming trailing fractional zeros. The round trip
// ToBaseUnits(FromBaseUnits(v)) == v holds for every v.
func FromBaseUnits(v *big.Int) string {
	if v == nil {
		return "0"
	}

	abs := new(big.Int).Abs(v)
	quo, rem := new(big.Int).QuoRem(abs, unitScale, new(big.Int))

	sign := ""
	if v.Sign() < 0 {
		sign = "-"
	}

	if rem.Sign() == 0 {
		return sign + quo.String()
	}

	frac := fmt.Sprintf("%0*s", decimals, rem.String())
	frac = strings.TrimRight(frac, "0")
	return sign + quo.String() + "." + frac
}

// mulShares multiplies a base-unit price by an integer share count. Both
// operands stay integers, so the total payment is exact.
func mulShares(priceBaseUnits *big.Int, shares int64) *big.Int {
	return new(big.Int).Mul(priceBaseUnits, big.NewInt(shares))
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
