// Package yamath holds the number theory the cryptosystem is built from:
// square-and-multiply exponentiation, the extended Euclidean inverse and the
// Jacobi symbol. Arbitrary precision arithmetic itself comes from math/big.
//
// Every function is pure and allocates its own result, so callers may share
// arguments between goroutines.
package yamath

import (
	"fmt"
	"math"
	"math/big"
	"net/http"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
)

var bigOne = big.NewInt(1)

var (
	ErrNotInvertible = fmt.Errorf("%w: no modular inverse", yaerrors.ErrInvariantViolation)
	ErrEvenModulus   = fmt.Errorf("%w: jacobi symbol needs an odd positive modulus", yaerrors.ErrMalformedInput)
)

// ModPow returns base^exponent mod modulus using square-and-multiply over
// the bits of exponent, least significant first.
//
// Panics when exponent is negative or modulus is not positive.
func ModPow(base, exponent, modulus *big.Int) *big.Int {
	if modulus.Sign() <= 0 {
		panic("yamath: ModPow with non-positive modulus")
	}

	if exponent.Sign() < 0 {
		panic("yamath: ModPow with negative exponent")
	}

	if modulus.Cmp(bigOne) == 0 {
		return new(big.Int)
	}

	z := big.NewInt(1)
	b := new(big.Int).Mod(base, modulus)

	bits := exponent.BitLen()
	for i := range bits {
		if exponent.Bit(i) == 1 {
			z.Mul(z, b)
			z.Mod(z, modulus)
		}

		if i+1 < bits {
			b.Mul(b, b)
			b.Mod(b, modulus)
		}
	}

	return z
}

// GCD returns the greatest common divisor of |a| and |b|.
func GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Abs(a)
	y := new(big.Int).Abs(b)

	for y.Sign() != 0 {
		x.Mod(x, y)
		x, y = y, x
	}

	return x
}

// Coprime reports whether gcd(a, b) == 1.
func Coprime(a, b *big.Int) bool {
	return GCD(a, b).Cmp(bigOne) == 0
}

// ModInverse returns the inverse of num modulo mod, normalised into [0, mod),
// computed with the extended Euclidean algorithm. It fails with
// ErrNotInvertible when gcd(num, mod) != 1.
func ModInverse(num, mod *big.Int) (*big.Int, yaerrors.Error) {
	if mod.Cmp(bigOne) <= 0 {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			ErrNotInvertible,
			"[MATH] modulus must be greater than one, got "+mod.String(),
		)
	}

	t, newT := big.NewInt(0), big.NewInt(1)
	r, newR := new(big.Int).Set(mod), new(big.Int).Mod(num, mod)

	quotient := new(big.Int)
	tmp := new(big.Int)

	for newR.Sign() != 0 {
		quotient.Quo(r, newR)

		tmp.Mul(quotient, newR)
		r, newR = newR, r.Sub(r, tmp)

		tmp.Mul(quotient, newT)
		t, newT = newT, t.Sub(t, tmp)
	}

	if r.Cmp(bigOne) != 0 {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			ErrNotInvertible,
			fmt.Sprintf("[MATH] gcd(%s, %s) = %s", num, mod, r),
		)
	}

	if t.Sign() < 0 {
		t.Add(t, mod)
	}

	return t, nil
}

// Jacobi returns the Jacobi symbol (a/n) for an odd positive n: 1 or -1 when
// gcd(a, n) = 1, and 0 otherwise.
//
// The reduction runs in a loop with an explicit sign accumulator:
// pull out factors of two (flipping the sign when n = 3, 5 mod 8), flip again
// when both a and n are 3 mod 4, then swap by quadratic reciprocity.
func Jacobi(a, n *big.Int) (int, yaerrors.Error) {
	if n.Sign() <= 0 || n.Bit(0) == 0 {
		return 0, yaerrors.FromError(
			http.StatusBadRequest,
			ErrEvenModulus,
			"[MATH] jacobi modulus "+n.String(),
		)
	}

	x := new(big.Int).Mod(a, n)
	m := new(big.Int).Set(n)
	sign := 1

	for x.Sign() != 0 {
		if twos := x.TrailingZeroBits(); twos > 0 {
			x.Rsh(x, twos)

			if r := mod8(m); twos%2 == 1 && (r == 3 || r == 5) {
				sign = -sign
			}
		}

		if mod8(x)%4 == 3 && mod8(m)%4 == 3 {
			sign = -sign
		}

		x, m = m.Mod(m, x), x
	}

	if m.Cmp(bigOne) != 0 {
		return 0, nil
	}

	return sign, nil
}

// Log returns the natural logarithm of a positive x, accurate for values far
// beyond the float64 range. It returns -Inf for zero and NaN for negatives.
func Log(x *big.Int) float64 {
	switch x.Sign() {
	case 0:
		return math.Inf(-1)
	case -1:
		return math.NaN()
	}

	const mantissaBits = 64

	shift := x.BitLen() - mantissaBits
	if shift <= 0 {
		f, _ := new(big.Float).SetInt(x).Float64()

		return math.Log(f)
	}

	f, _ := new(big.Float).SetInt(new(big.Int).Rsh(x, uint(shift))).Float64()

	return math.Log(f) + float64(shift)*math.Ln2
}

func mod8(x *big.Int) uint {
	return x.Bit(0) | x.Bit(1)<<1 | x.Bit(2)<<2
}
