// Package yarsa is the RSA core of the module: key derivation from two
// Solovay-Strassen primes, the block Engine that encrypts and decrypts
// messages of any length, and the decimal text formats keys and ciphertexts
// are stored in.
//
// This is a teaching cryptosystem. There is no OAEP, no constant-time
// arithmetic and no minimum key size policy beyond what the math needs.
package yarsa

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/YaCodeDev/GoYaVarRSA/yamath"
	"github.com/YaCodeDev/GoYaVarRSA/yaprime"
)

// MinKeyBits is the smallest modulus GenerateKeypair accepts.
const MinKeyBits = 64

var bigOne = big.NewInt(1)

// KeyParameters is a complete keypair together with the values it was
// derived from. It is never modified after derivation.
type KeyParameters struct {
	PrimeP          *big.Int
	PrimeQ          *big.Int
	Modulus         *big.Int
	Totient         *big.Int
	PublicExponent  *big.Int
	PrivateExponent *big.Int
}

// PublicKey is the (n, e) half of a keypair.
type PublicKey struct {
	N *big.Int
	E *big.Int
}

// PrivateKey is the (n, d) half of a keypair.
type PrivateKey struct {
	N *big.Int
	D *big.Int
}

func (k *KeyParameters) PublicKey() *PublicKey {
	return &PublicKey{N: k.Modulus, E: k.PublicExponent}
}

func (k *KeyParameters) PrivateKey() *PrivateKey {
	return &PrivateKey{N: k.Modulus, D: k.PrivateExponent}
}

// Bits returns the bit length of the modulus.
func (k *KeyParameters) Bits() int {
	return k.Modulus.BitLen()
}

// Size returns the byte length of the modulus.
func (k *PublicKey) Size() int {
	return byteLen(k.N)
}

// Size returns the byte length of the modulus.
func (k *PrivateKey) Size() int {
	return byteLen(k.N)
}

// Validate checks that the parameters are consistent: n = p*q,
// totient = (p-1)(q-1) and e*d = 1 mod totient.
func (k *KeyParameters) Validate() yaerrors.Error {
	for name, value := range map[string]*big.Int{
		"p":       k.PrimeP,
		"q":       k.PrimeQ,
		"modulus": k.Modulus,
		"totient": k.Totient,
		"e":       k.PublicExponent,
		"d":       k.PrivateExponent,
	} {
		if value == nil || value.Sign() <= 0 {
			return yaerrors.FromError(
				http.StatusInternalServerError,
				yaerrors.ErrInvariantViolation,
				fmt.Sprintf("[RSA] key parameter %s must be positive", name),
			)
		}
	}

	if new(big.Int).Mul(k.PrimeP, k.PrimeQ).Cmp(k.Modulus) != 0 {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvariantViolation,
			"[RSA] modulus is not p*q",
		)
	}

	if totient(k.PrimeP, k.PrimeQ).Cmp(k.Totient) != 0 {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvariantViolation,
			"[RSA] totient is not (p-1)(q-1)",
		)
	}

	product := new(big.Int).Mul(k.PublicExponent, k.PrivateExponent)
	if product.Mod(product, k.Totient).Cmp(bigOne) != 0 {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvariantViolation,
			"[RSA] e*d mod totient is not 1",
		)
	}

	return nil
}

// KeyOpts configures GenerateKeypair.
//
// Bits is the modulus size, a multiple of 8 and at least MinKeyBits.
// Iterations and RetryLimit fall back to the yaprime defaults when not
// positive. Random is used when set; otherwise a DeterministicReader over
// Seed when Seed is set; otherwise crypto/rand.Reader.
type KeyOpts struct {
	Bits       int
	Iterations int
	RetryLimit int
	Random     io.Reader
	Seed       []byte
	Log        yalogger.Logger
}

func (o KeyOpts) random() io.Reader {
	switch {
	case o.Random != nil:
		return o.Random
	case len(o.Seed) > 0:
		return NewDeterministicReader(o.Seed)
	default:
		return rand.Reader
	}
}

// GenerateKeypair draws two distinct primes of Bits/2 bits each, picks a
// random public exponent coprime to the totient and derives the private
// exponent with the extended Euclidean algorithm.
//
// The result is checked before it is returned: e*d = 1 mod totient and the
// modulus has exactly Bits bits. A failed check returns ErrInvariantViolation
// and no key.
//
// Example:
//
//	params, err := yarsa.GenerateKeypair(ctx, yarsa.KeyOpts{Bits: 2048})
//	if err != nil {
//	    return err
//	}
//
//	fmt.Println(params.Bits()) // 2048
func GenerateKeypair(ctx context.Context, opts KeyOpts) (*KeyParameters, yaerrors.Error) {
	const bitsInByte = 8

	if opts.Bits < MinKeyBits || opts.Bits%bitsInByte != 0 {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvalidConfig,
			fmt.Sprintf(
				"[RSA] key size must be a multiple of 8 and at least %d, got %d",
				MinKeyBits,
				opts.Bits,
			),
		)
	}

	iterations := opts.Iterations
	if iterations <= 0 {
		iterations = yaprime.DefaultIterations
	}

	retryLimit := opts.RetryLimit
	if retryLimit <= 0 {
		retryLimit = yaprime.DefaultRetryLimit
	}

	log := yalogger.OrDefault(opts.Log).WithField(yalogger.KeyBits, opts.Bits)
	random := opts.random()
	generator := yaprime.NewGenerator(
		yaprime.NewSolovayStrassen(iterations, random),
		random,
		retryLimit,
		log,
	)

	primeBits := opts.Bits / 2

	p, err := generator.GeneratePrime(ctx, primeBits)
	if err != nil {
		return nil, err.Wrap("[RSA] failed to generate p")
	}

	var q *big.Int

	for attempt := 0; ; attempt++ {
		if attempt == retryLimit {
			return nil, yaerrors.FromError(
				http.StatusInternalServerError,
				yaerrors.ErrRetryLimitExceeded,
				"[RSA] every q drawn was equal to p",
			)
		}

		q, err = generator.GeneratePrime(ctx, primeBits)
		if err != nil {
			return nil, err.Wrap("[RSA] failed to generate q")
		}

		if p.Cmp(q) != 0 {
			break
		}
	}

	params, err := derive(p, q, random, retryLimit)
	if err != nil {
		return nil, err.Wrap("[RSA] failed to derive keypair")
	}

	if params.Bits() != opts.Bits {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvariantViolation,
			fmt.Sprintf("[RSA] modulus has %d bits, want %d", params.Bits(), opts.Bits),
		)
	}

	log.Debug("Keypair generated")

	return params, nil
}

// KeypairFromPrimes rebuilds a keypair from previously stored primes. Both
// values are checked with the Solovay-Strassen test first; a composite or
// repeated prime is ErrMalformedInput. A fresh public exponent is drawn from
// random (crypto/rand.Reader when nil).
func KeypairFromPrimes(p, q *big.Int, random io.Reader) (*KeyParameters, yaerrors.Error) {
	if random == nil {
		random = rand.Reader
	}

	if p.Cmp(q) == 0 {
		return nil, yaerrors.FromError(
			http.StatusBadRequest,
			yaerrors.ErrMalformedInput,
			"[RSA] primes must differ",
		)
	}

	for _, prime := range []*big.Int{p, q} {
		ok, err := yaprime.IsProbablyPrime(prime, yaprime.DefaultIterations, random)
		if err != nil {
			return nil, err.Wrap("[RSA] failed to test stored prime")
		}

		if !ok {
			return nil, yaerrors.FromError(
				http.StatusBadRequest,
				yaerrors.ErrMalformedInput,
				fmt.Sprintf("[RSA] %s is not prime", prime),
			)
		}
	}

	params, err := derive(p, q, random, yaprime.DefaultRetryLimit)
	if err != nil {
		return nil, err.Wrap("[RSA] failed to derive keypair from primes")
	}

	return params, nil
}

// derive computes the modulus, totient and both exponents for the primes.
func derive(p, q *big.Int, random io.Reader, retryLimit int) (*KeyParameters, yaerrors.Error) {
	phi := totient(p, q)

	e, err := publicExponent(phi, random, retryLimit)
	if err != nil {
		return nil, err
	}

	d, err := yamath.ModInverse(e, phi)
	if err != nil {
		return nil, err.Wrap("[RSA] failed to invert public exponent")
	}

	params := &KeyParameters{
		PrimeP:          new(big.Int).Set(p),
		PrimeQ:          new(big.Int).Set(q),
		Modulus:         new(big.Int).Mul(p, q),
		Totient:         phi,
		PublicExponent:  e,
		PrivateExponent: d,
	}

	if err := params.Validate(); err != nil {
		return nil, err.Wrap("[RSA] derived keypair is inconsistent")
	}

	return params, nil
}

// publicExponent samples [0, totient) until it finds a value above 1 that is
// coprime to the totient.
func publicExponent(phi *big.Int, random io.Reader, retryLimit int) (*big.Int, yaerrors.Error) {
	for range retryLimit {
		candidate, err := yaprime.RandomBelow(random, phi)
		if err != nil {
			return nil, err.Wrap("[RSA] failed to draw public exponent")
		}

		if candidate.Cmp(bigOne) > 0 && yamath.Coprime(candidate, phi) {
			return candidate, nil
		}
	}

	return nil, yaerrors.FromError(
		http.StatusInternalServerError,
		yaerrors.ErrRetryLimitExceeded,
		fmt.Sprintf("[RSA] no public exponent coprime to the totient in %d attempts", retryLimit),
	)
}

func totient(p, q *big.Int) *big.Int {
	pm1 := new(big.Int).Sub(p, bigOne)
	qm1 := new(big.Int).Sub(q, bigOne)

	return pm1.Mul(pm1, qm1)
}

func byteLen(n *big.Int) int {
	const bitsInByte = 8

	return (n.BitLen() + bitsInByte - 1) / bitsInByte
}
