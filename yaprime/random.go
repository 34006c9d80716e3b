package yaprime

import (
	"fmt"
	"io"
	"math/big"
	"net/http"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
)

// RandomBelow returns a uniform value in [0, limit) read from random by
// rejection sampling. Unlike crypto/rand.Int it consumes random for any
// io.Reader, which keeps seeded runs reproducible.
func RandomBelow(random io.Reader, limit *big.Int) (*big.Int, yaerrors.Error) {
	if limit.Sign() <= 0 {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvariantViolation,
			fmt.Sprintf("[PRIME] random range must be positive, got %s", limit),
		)
	}

	const bitsInByte = 8

	bits := limit.BitLen()
	buf := make([]byte, (bits+bitsInByte-1)/bitsInByte)
	topMask := byte(0xFF >> (len(buf)*bitsInByte - bits))
	value := new(big.Int)

	for {
		if _, err := io.ReadFull(random, buf); err != nil {
			return nil, yaerrors.FromError(
				http.StatusInternalServerError,
				err,
				"[PRIME] failed to read random bytes",
			)
		}

		buf[0] &= topMask

		if value.SetBytes(buf).Cmp(limit) < 0 {
			return value, nil
		}
	}
}
