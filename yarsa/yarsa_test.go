package yarsa_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yamath"
	"github.com/YaCodeDev/GoYaVarRSA/yarsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, bits int, seed string) *yarsa.KeyParameters {
	t.Helper()

	params, err := yarsa.GenerateKeypair(context.Background(), yarsa.KeyOpts{
		Bits:       bits,
		Iterations: 40,
		Seed:       []byte(seed),
	})
	require.Nil(t, err)

	return params
}

func TestGenerateKeypair_Invariants(t *testing.T) {
	t.Parallel()

	for _, bits := range []int{64, 128, 256, 512} {
		params := generate(t, bits, "invariants")

		require.Nil(t, params.Validate(), "bits=%d", bits)
		assert.Equal(t, bits, params.Bits())
		assert.Equal(t, bits/8, params.PublicKey().Size())
		assert.NotEqual(t, 0, params.PrimeP.Cmp(params.PrimeQ))
		assert.True(t, params.PrimeP.ProbablyPrime(20))
		assert.True(t, params.PrimeQ.ProbablyPrime(20))
		assert.True(t, yamath.Coprime(params.PublicExponent, params.Totient))
		assert.Equal(t, 1, params.PublicExponent.Cmp(big.NewInt(1)))
		assert.Equal(t, -1, params.PublicExponent.Cmp(params.Totient))
		assert.Equal(t, -1, params.PrivateExponent.Cmp(params.Totient))

		ed := new(big.Int).Mul(params.PublicExponent, params.PrivateExponent)
		assert.Equal(t, int64(1), ed.Mod(ed, params.Totient).Int64())
	}
}

func TestGenerateKeypair_SeedIsReproducible(t *testing.T) {
	t.Parallel()

	first := generate(t, 128, "seed-A")
	second := generate(t, 128, "seed-A")
	other := generate(t, 128, "seed-B")

	assert.Equal(t, first.Modulus.String(), second.Modulus.String())
	assert.Equal(t, first.PublicExponent.String(), second.PublicExponent.String())
	assert.Equal(t, first.PrivateExponent.String(), second.PrivateExponent.String())
	assert.NotEqual(t, first.Modulus.String(), other.Modulus.String())
}

func TestGenerateKeypair_ExplicitRandomWinsOverSeed(t *testing.T) {
	t.Parallel()

	withReader, err := yarsa.GenerateKeypair(context.Background(), yarsa.KeyOpts{
		Bits:       64,
		Iterations: 40,
		Random:     yarsa.NewDeterministicReader([]byte("reader")),
		Seed:       []byte("ignored"),
	})
	require.Nil(t, err)

	fromSeed := generate(t, 64, "reader")

	assert.Equal(t, fromSeed.Modulus.String(), withReader.Modulus.String())
}

func TestGenerateKeypair_RejectsBadSizes(t *testing.T) {
	t.Parallel()

	for _, bits := range []int{0, 8, 56, 100, 1001} {
		_, err := yarsa.GenerateKeypair(context.Background(), yarsa.KeyOpts{Bits: bits})

		require.NotNil(t, err, "bits=%d", bits)
		assert.ErrorIs(t, err, yaerrors.ErrInvalidConfig, "bits=%d", bits)
	}
}

func TestGenerateKeypair_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := yarsa.GenerateKeypair(ctx, yarsa.KeyOpts{Bits: 512, Seed: []byte("x")})

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestKeypairFromPrimes(t *testing.T) {
	t.Parallel()

	p := big.NewInt(2147483647)
	q := big.NewInt(1000000007)

	params, err := yarsa.KeypairFromPrimes(p, q, yarsa.NewDeterministicReader([]byte("primes")))
	require.Nil(t, err)

	require.Nil(t, params.Validate())
	assert.Equal(t, new(big.Int).Mul(p, q).String(), params.Modulus.String())

	_, err = yarsa.KeypairFromPrimes(p, big.NewInt(1000000008), nil)
	assert.ErrorIs(t, err, yaerrors.ErrMalformedInput)

	_, err = yarsa.KeypairFromPrimes(p, p, nil)
	assert.ErrorIs(t, err, yaerrors.ErrMalformedInput)
}

func TestKeyParameters_ValidateDetectsTampering(t *testing.T) {
	t.Parallel()

	params := generate(t, 64, "tamper")

	broken := *params
	broken.PrivateExponent = new(big.Int).Add(params.PrivateExponent, big.NewInt(1))
	assert.ErrorIs(t, broken.Validate(), yaerrors.ErrInvariantViolation)

	broken = *params
	broken.Modulus = new(big.Int).Add(params.Modulus, big.NewInt(2))
	assert.ErrorIs(t, broken.Validate(), yaerrors.ErrInvariantViolation)

	broken = *params
	broken.Totient = nil
	assert.ErrorIs(t, broken.Validate(), yaerrors.ErrInvariantViolation)
}
