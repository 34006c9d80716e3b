package yarsa

import (
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
)

// Keys and primes are stored as two decimal lines:
//
//	<modulus or p>
//	<exponent or q>
//
// Ciphertexts are stored as the decimal value of the whole byte string.

// MarshalPublicKey writes n and e as two decimal lines.
func MarshalPublicKey(key *PublicKey) string {
	return marshalPair(key.N, key.E)
}

// MarshalPrivateKey writes n and d as two decimal lines.
func MarshalPrivateKey(key *PrivateKey) string {
	return marshalPair(key.N, key.D)
}

// MarshalPrimes writes p and q as two decimal lines.
func MarshalPrimes(p, q *big.Int) string {
	return marshalPair(p, q)
}

// ParsePublicKey reads the output of MarshalPublicKey. CRLF line endings and
// surrounding whitespace are accepted.
func ParsePublicKey(text string) (*PublicKey, yaerrors.Error) {
	n, e, err := parsePair(text)
	if err != nil {
		return nil, err.Wrap("[RSA] failed to parse public key")
	}

	return &PublicKey{N: n, E: e}, nil
}

// ParsePrivateKey reads the output of MarshalPrivateKey.
func ParsePrivateKey(text string) (*PrivateKey, yaerrors.Error) {
	n, d, err := parsePair(text)
	if err != nil {
		return nil, err.Wrap("[RSA] failed to parse private key")
	}

	return &PrivateKey{N: n, D: d}, nil
}

// ParsePrimes reads the output of MarshalPrimes.
func ParsePrimes(text string) (*big.Int, *big.Int, yaerrors.Error) {
	p, q, err := parsePair(text)
	if err != nil {
		return nil, nil, err.Wrap("[RSA] failed to parse primes")
	}

	return p, q, nil
}

// EncodeCiphertextText returns the decimal value of ciphertext read as one
// big-endian unsigned integer.
func EncodeCiphertextText(ciphertext []byte) string {
	return new(big.Int).SetBytes(ciphertext).String()
}

// DecodeCiphertextText parses a decimal ciphertext and left-pads it to a
// whole number of cipherSize blocks, at least one. Leading zero bytes lost
// by the integer form are restored this way, except for leading blocks that
// were entirely zero; use DecodeCiphertextBlocks when the count is known.
func DecodeCiphertextText(text string, cipherSize int) ([]byte, yaerrors.Error) {
	return DecodeCiphertextBlocks(text, cipherSize, 0)
}

// DecodeCiphertextBlocks is DecodeCiphertextText with an explicit block
// count, which restores all-zero leading blocks too. A count of zero picks
// the smallest one that fits; a count too small for the value or a negative
// one is ErrMalformedInput.
func DecodeCiphertextBlocks(text string, cipherSize, blocks int) ([]byte, yaerrors.Error) {
	value, err := parseDecimal(strings.TrimSpace(text))
	if err != nil {
		return nil, err.Wrap("[RSA] failed to parse ciphertext")
	}

	needed := max(1, (byteLen(value)+cipherSize-1)/cipherSize)

	switch {
	case blocks == 0:
		blocks = needed
	case blocks < needed:
		return nil, yaerrors.FromError(
			http.StatusBadRequest,
			yaerrors.ErrMalformedInput,
			fmt.Sprintf("[RSA] ciphertext needs %d blocks, got a count of %d", needed, blocks),
		)
	}

	return value.FillBytes(make([]byte, blocks*cipherSize)), nil
}

func marshalPair(first, second *big.Int) string {
	return fmt.Sprintf("%s\n%s\n", first, second)
}

func parsePair(text string) (*big.Int, *big.Int, yaerrors.Error) {
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n")), "\n")

	const pairLines = 2

	if len(lines) != pairLines {
		return nil, nil, yaerrors.FromError(
			http.StatusBadRequest,
			yaerrors.ErrMalformedInput,
			fmt.Sprintf("[RSA] expected %d lines, got %d", pairLines, len(lines)),
		)
	}

	values := make([]*big.Int, pairLines)

	for i, line := range lines {
		value, err := parseDecimal(strings.TrimSpace(line))
		if err != nil {
			return nil, nil, err.Wrapf("[RSA] line %d", i+1)
		}

		if value.Sign() == 0 {
			return nil, nil, yaerrors.FromError(
				http.StatusBadRequest,
				yaerrors.ErrMalformedInput,
				fmt.Sprintf("[RSA] line %d must be positive", i+1),
			)
		}

		values[i] = value
	}

	return values[0], values[1], nil
}

// parseDecimal accepts unsigned decimal digits only.
func parseDecimal(text string) (*big.Int, yaerrors.Error) {
	if text == "" || strings.TrimLeft(text, "0123456789") != "" {
		return nil, yaerrors.FromError(
			http.StatusBadRequest,
			yaerrors.ErrMalformedInput,
			fmt.Sprintf("[RSA] %q is not an unsigned decimal number", text),
		)
	}

	value, _ := new(big.Int).SetString(text, 10)

	return value, nil
}
