package yarsa_test

import (
	"math/big"
	"testing"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yarsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyText_RoundTrip(t *testing.T) {
	t.Parallel()

	params := generate(t, 128, "text")

	public, err := yarsa.ParsePublicKey(yarsa.MarshalPublicKey(params.PublicKey()))
	require.Nil(t, err)
	assert.Equal(t, params.Modulus.String(), public.N.String())
	assert.Equal(t, params.PublicExponent.String(), public.E.String())

	private, err := yarsa.ParsePrivateKey(yarsa.MarshalPrivateKey(params.PrivateKey()))
	require.Nil(t, err)
	assert.Equal(t, params.PrivateExponent.String(), private.D.String())

	p, q, err := yarsa.ParsePrimes(yarsa.MarshalPrimes(params.PrimeP, params.PrimeQ))
	require.Nil(t, err)
	assert.Equal(t, params.PrimeP.String(), p.String())
	assert.Equal(t, params.PrimeQ.String(), q.String())
}

func TestKeyText_Layout(t *testing.T) {
	t.Parallel()

	text := yarsa.MarshalPublicKey(&yarsa.PublicKey{N: big.NewInt(3233), E: big.NewInt(17)})

	assert.Equal(t, "3233\n17\n", text)
}

func TestKeyText_ToleratesCRLFAndSpaces(t *testing.T) {
	t.Parallel()

	key, err := yarsa.ParsePublicKey("  3233\r\n 17 \r\n\r\n")
	require.Nil(t, err)

	assert.Equal(t, int64(3233), key.N.Int64())
	assert.Equal(t, int64(17), key.E.Int64())
}

func TestKeyText_Malformed(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"",
		"3233",
		"3233\nseventeen",
		"-3233\n17",
		"0x10\n17",
		"3233\n0",
		"1\n2\n3",
	} {
		_, err := yarsa.ParsePublicKey(text)

		require.NotNil(t, err, "text=%q", text)
		assert.ErrorIs(t, err, yaerrors.ErrMalformedInput, "text=%q", text)
	}
}

func TestCiphertextText(t *testing.T) {
	t.Parallel()

	ciphertext := []byte{0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}

	text := yarsa.EncodeCiphertextText(ciphertext)

	decoded, err := yarsa.DecodeCiphertextText(text+"\n", 8)
	require.Nil(t, err)
	assert.Equal(t, ciphertext, decoded)

	decoded, err = yarsa.DecodeCiphertextText("0", 8)
	require.Nil(t, err)
	assert.Equal(t, make([]byte, 8), decoded)

	_, err = yarsa.DecodeCiphertextText("12a", 8)
	assert.ErrorIs(t, err, yaerrors.ErrMalformedInput)
}

func TestCiphertextBlocks_RestoresZeroLeadingBlock(t *testing.T) {
	t.Parallel()

	ciphertext := append(make([]byte, 8), 1, 2, 3, 4, 5, 6, 7, 8)
	text := yarsa.EncodeCiphertextText(ciphertext)

	short, err := yarsa.DecodeCiphertextText(text, 8)
	require.Nil(t, err)
	assert.Len(t, short, 8)

	decoded, err := yarsa.DecodeCiphertextBlocks(text, 8, 2)
	require.Nil(t, err)
	assert.Equal(t, ciphertext, decoded)

	_, err = yarsa.DecodeCiphertextBlocks(text, 8, -1)
	assert.ErrorIs(t, err, yaerrors.ErrMalformedInput)

	_, err = yarsa.DecodeCiphertextBlocks("18446744073709551616", 8, 1)
	assert.ErrorIs(t, err, yaerrors.ErrMalformedInput)
}
