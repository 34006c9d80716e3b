// Package yaprime finds probable primes with the Solovay-Strassen test.
//
// The random source is always passed in: crypto/rand.Reader in production,
// a seeded stream when a reproducible run is needed.
package yaprime

import (
	"crypto/rand"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yamath"
)

// DefaultIterations is the Solovay-Strassen round count used for key generation.
const DefaultIterations = 100

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// Tester decides whether a candidate is (probably) prime.
type Tester interface {
	IsProbablyPrime(candidate *big.Int) (bool, yaerrors.Error)
	Iterations() int
}

// SolovayStrassen is a Tester with a fixed round count and random source.
// It is not safe for concurrent use when Random is not.
type SolovayStrassen struct {
	iterations int
	random     io.Reader
}

// NewSolovayStrassen returns a tester running the given number of rounds.
// A nil random falls back to crypto/rand.Reader.
func NewSolovayStrassen(iterations int, random io.Reader) *SolovayStrassen {
	if random == nil {
		random = rand.Reader
	}

	return &SolovayStrassen{iterations: iterations, random: random}
}

func (s *SolovayStrassen) IsProbablyPrime(candidate *big.Int) (bool, yaerrors.Error) {
	return IsProbablyPrime(candidate, s.iterations, s.random)
}

func (s *SolovayStrassen) Iterations() int {
	return s.iterations
}

// IsProbablyPrime runs the Solovay-Strassen test on candidate.
//
// Each round draws a witness a in [1, candidate-1]. A witness sharing a factor
// with the candidate proves it composite. Otherwise the round passes only when
// a^((candidate-1)/2) mod candidate equals the Jacobi symbol (a/candidate)
// taken mod candidate. Any failed round returns false.
//
// Example:
//
//	ok, err := yaprime.IsProbablyPrime(big.NewInt(7919), 100, rand.Reader)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(ok) // true
func IsProbablyPrime(candidate *big.Int, iterations int, random io.Reader) (bool, yaerrors.Error) {
	if iterations < 1 {
		return false, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvalidConfig,
			fmt.Sprintf("[PRIME] iteration count must be positive, got %d", iterations),
		)
	}

	if random == nil {
		random = rand.Reader
	}

	switch {
	case candidate.Cmp(bigTwo) < 0:
		return false, nil
	case candidate.Cmp(bigTwo) == 0:
		return true, nil
	case candidate.Bit(0) == 0:
		return false, nil
	}

	witnessRange := new(big.Int).Sub(candidate, bigOne)
	exponent := new(big.Int).Rsh(witnessRange, 1)
	residue := new(big.Int)

	for range iterations {
		witness, err := RandomBelow(random, witnessRange)
		if err != nil {
			return false, err.Wrap("[PRIME] failed to draw witness")
		}

		witness.Add(witness, bigOne)

		if !yamath.Coprime(witness, candidate) {
			return false, nil
		}

		symbol, yaerr := yamath.Jacobi(witness, candidate)
		if yaerr != nil {
			return false, yaerr.Wrap("[PRIME] jacobi symbol")
		}

		residue.SetInt64(int64(symbol))
		residue.Mod(residue, candidate)

		if residue.Sign() == 0 {
			return false, nil
		}

		if yamath.ModPow(witness, exponent, candidate).Cmp(residue) != 0 {
			return false, nil
		}
	}

	return true, nil
}

// Accuracy returns the bound (ln n - 2) / (ln n - 2 + 2^(iterations-1)) on
// the chance that n passed the given number of rounds without being prime.
func Accuracy(n *big.Int, iterations int) float64 {
	logN := yamath.Log(n) - 2

	return logN / (logN + math.Pow(2, float64(iterations-1)))
}
