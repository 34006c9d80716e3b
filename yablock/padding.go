package yablock

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
)

// Padding selects how the last plaintext block is filled up.
type Padding uint8

const (
	// PaddingMarker appends a single 0x80 byte and then zero bytes up to the
	// block boundary. Always adds at least one byte, so it is reversible for
	// every message, including ones that end in zero bytes.
	PaddingMarker Padding = iota
	// PaddingZero appends zero bytes only. This is the legacy format: padding
	// removal strips every trailing zero byte, so messages that end in zero
	// bytes do not survive a round trip.
	PaddingZero
)

const markerByte = 0x80

func (p Padding) String() string {
	switch p {
	case PaddingMarker:
		return "marker"
	case PaddingZero:
		return "zero"
	default:
		return fmt.Sprintf("padding(%d)", uint8(p))
	}
}

func (p Padding) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Padding) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "marker", "iso7816":
		*p = PaddingMarker
	case "zero", "legacy":
		*p = PaddingZero
	default:
		return fmt.Errorf("unknown padding %q", text)
	}

	return nil
}

// RequireTrailingZeros fails with ErrInvalidConfig when p strips trailing
// zero bytes, which would corrupt payloads that end in zeros. A gzip stream
// is one: its trailer stores the input size little-endian.
func (p Padding) RequireTrailingZeros(payload string) yaerrors.Error {
	if p != PaddingZero {
		return nil
	}

	return yaerrors.FromError(
		http.StatusBadRequest,
		yaerrors.ErrInvalidConfig,
		fmt.Sprintf("[BLOCK] %s payloads need marker padding, %s padding drops their trailing zero bytes", payload, p),
	)
}
