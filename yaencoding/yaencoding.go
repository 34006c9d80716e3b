// Package yaencoding holds the binary and text encodings shared by the
// storage and transport layers: MessagePack for key records kept in Redis
// and standard base64 for message bodies carried in JSON.
//
// Example usage:
//
//	record := yakeystore.KeyRecord{ID: "5f0c...", Bits: 2048}
//
//	packed, err := yaencoding.EncodeMessagePack(record)
//	if err != nil {
//	    return err
//	}
//
//	decoded, err := yaencoding.DecodeMessagePack[yakeystore.KeyRecord](packed)
//	if err != nil {
//	    return err
//	}
//
//	fmt.Println(decoded.Bits) // 2048
package yaencoding

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeMessagePack serializes value using the MessagePack format.
func EncodeMessagePack(value any) ([]byte, yaerrors.Error) {
	bytes, err := msgpack.Marshal(value)
	if err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			fmt.Sprintf("[ENCODING] failed to marshal %T using message pack format", value),
		)
	}

	return bytes, nil
}

// DecodeMessagePack decodes MessagePack data into a value of type T.
// Undecodable data is reported as ErrMalformedInput.
//
// Example:
//
//	record, err := yaencoding.DecodeMessagePack[yakeystore.KeyRecord](data)
func DecodeMessagePack[T any](bytes []byte) (*T, yaerrors.Error) {
	var res T

	if err := msgpack.Unmarshal(bytes, &res); err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			fmt.Errorf("%w: %w", yaerrors.ErrMalformedInput, err),
			fmt.Sprintf("[ENCODING] failed to unmarshal message pack as %T", res),
		)
	}

	return &res, nil
}

// ToString converts a byte slice into a standard base64 string.
func ToString(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ToBytes decodes a standard base64 string. Invalid input is
// ErrMalformedInput with a 400 code, since it always comes from a caller.
func ToBytes(data string) ([]byte, yaerrors.Error) {
	bytes, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, yaerrors.FromError(
			http.StatusBadRequest,
			fmt.Errorf("%w: %w", yaerrors.ErrMalformedInput, err),
			"[ENCODING] failed to decode string to bytes",
		)
	}

	return bytes, nil
}
