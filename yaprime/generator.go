package yaprime

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
)

// DefaultRetryLimit bounds the number of candidates drawn for one prime.
const DefaultRetryLimit = 1 << 16

// smallPrimes divide smallPrimesProduct, which fits in a uint64.
var smallPrimes = []uint64{3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53}

var smallPrimesProduct = new(big.Int).SetUint64(16294579238595022365)

// Generator draws random odd candidates of an exact bit length until one
// passes its Tester.
type Generator struct {
	tester     Tester
	random     io.Reader
	retryLimit int
	log        yalogger.Logger
}

// NewGenerator builds a Generator. A nil random falls back to
// crypto/rand.Reader, a non-positive retryLimit to DefaultRetryLimit.
func NewGenerator(tester Tester, random io.Reader, retryLimit int, log yalogger.Logger) *Generator {
	if random == nil {
		random = rand.Reader
	}

	if retryLimit <= 0 {
		retryLimit = DefaultRetryLimit
	}

	return &Generator{
		tester:     tester,
		random:     random,
		retryLimit: retryLimit,
		log:        yalogger.OrDefault(log),
	}
}

// GeneratePrime returns a probable prime of exactly bits bits.
//
// Every candidate has its two top bits set, so the product of two primes
// from this generator has exactly 2*bits bits, and its low bit set.
// Candidates with a factor below 54 are skipped without running the tester.
func (g *Generator) GeneratePrime(ctx context.Context, bits int) (*big.Int, yaerrors.Error) {
	const minBits = 2

	if bits < minBits {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvalidConfig,
			fmt.Sprintf("[PRIME] bit length %d is too small", bits),
		)
	}

	const bitsInByte = 8

	buf := make([]byte, (bits+bitsInByte-1)/bitsInByte)
	candidate := new(big.Int)

	for attempt := 1; attempt <= g.retryLimit; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, yaerrors.FromError(
				http.StatusInternalServerError,
				err,
				"[PRIME] prime search cancelled",
			)
		}

		if _, err := io.ReadFull(g.random, buf); err != nil {
			return nil, yaerrors.FromError(
				http.StatusInternalServerError,
				err,
				"[PRIME] failed to read random candidate",
			)
		}

		shapeCandidate(buf, bits)
		candidate.SetBytes(buf)

		if hasSmallFactor(candidate) {
			continue
		}

		ok, err := g.tester.IsProbablyPrime(candidate)
		if err != nil {
			return nil, err.Wrap("[PRIME] failed to test candidate")
		}

		if ok {
			g.log.WithField(yalogger.KeyBits, bits).Debugf(
				"Prime generated after %d attempts, %d Solovay-Strassen rounds, error bound %g",
				attempt,
				g.tester.Iterations(),
				Accuracy(candidate, g.tester.Iterations()),
			)

			return new(big.Int).Set(candidate), nil
		}
	}

	return nil, yaerrors.FromError(
		http.StatusInternalServerError,
		yaerrors.ErrRetryLimitExceeded,
		fmt.Sprintf("[PRIME] no %d-bit prime in %d attempts", bits, g.retryLimit),
	)
}

// shapeCandidate clears the bits above bits, sets the top two bits and makes
// the value odd.
func shapeCandidate(buf []byte, bits int) {
	const (
		bitsInByte = 8
		fullMask   = 0xFF
	)

	if rem := bits % bitsInByte; rem != 0 {
		buf[0] &= fullMask >> (bitsInByte - rem)
	}

	top := (bits - 1) % bitsInByte
	if top >= 1 {
		buf[0] |= 3 << (top - 1)
	} else {
		buf[0] |= 1
		buf[1] |= 0x80
	}

	buf[len(buf)-1] |= 1
}

// hasSmallFactor reports whether candidate is a multiple of a small prime
// other than itself.
func hasSmallFactor(candidate *big.Int) bool {
	if candidate.BitLen() <= 6 {
		return false
	}

	rem := new(big.Int).Mod(candidate, smallPrimesProduct).Uint64()

	for _, p := range smallPrimes {
		if rem%p == 0 {
			return true
		}
	}

	return false
}
