package yarsa

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/YaCodeDev/GoYaVarRSA/yablock"
	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/YaCodeDev/GoYaVarRSA/yamath"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of blocks exponentiated at the same time.
const DefaultWorkers = 4

// EngineOpts configures an Engine.
//
// Workers bounds the per-block fan-out (DefaultWorkers when not positive).
// Verify recomputes every block with big.Int.Exp and fails on disagreement.
type EngineOpts struct {
	Workers int
	Verify  bool
	Log     yalogger.Logger
}

// Engine encrypts and decrypts messages of any length block by block.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	codec   *yablock.Codec
	workers int
	verify  bool
	log     yalogger.Logger
}

// NewEngine returns an Engine over codec. Keys passed to it must have a
// modulus of exactly codec.CipherSize() bytes.
//
// Example:
//
//	codec, _ := yablock.NewCodec(214, 256, yablock.PaddingMarker)
//	engine := yarsa.NewEngine(codec, yarsa.EngineOpts{})
//
//	ciphertext, err := engine.Encrypt(ctx, []byte("hello"), params.PublicKey())
//	if err != nil {
//	    return err
//	}
//
//	plain, err := engine.Decrypt(ctx, ciphertext, params.PrivateKey())
func NewEngine(codec *yablock.Codec, opts EngineOpts) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Engine{
		codec:   codec,
		workers: workers,
		verify:  opts.Verify,
		log:     yalogger.OrDefault(opts.Log),
	}
}

func (e *Engine) Codec() *yablock.Codec {
	return e.codec
}

// Encrypt pads and segments message, raises every block to e mod n and
// concatenates the fixed-width results in block order.
func (e *Engine) Encrypt(ctx context.Context, message []byte, key *PublicKey) ([]byte, yaerrors.Error) {
	if key == nil || key.E == nil || key.E.Sign() <= 0 {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvalidConfig,
			"[RSA] public exponent must be positive",
		)
	}

	if err := e.checkModulus(key.N); err != nil {
		return nil, err.Wrap("[RSA] cannot encrypt")
	}

	blocks := e.codec.SegmentAndPad(message)

	e.log.WithRandomRequestID().
		WithField(yalogger.KeyOperation, "encrypt").
		WithField(yalogger.KeyBlocks, len(blocks)).
		Debugf("Encrypting %d bytes", len(message))

	out, err := e.transform(ctx, blocks, key.E, key.N, e.codec.EncodeCipherBlock)
	if err != nil {
		return nil, err.Wrap("[RSA] failed to encrypt")
	}

	return out, nil
}

// Decrypt splits ciphertext into blocks, raises every block to d mod n,
// restores the plaintext block width and strips the padding.
func (e *Engine) Decrypt(ctx context.Context, ciphertext []byte, key *PrivateKey) ([]byte, yaerrors.Error) {
	if key == nil || key.D == nil || key.D.Sign() <= 0 {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvalidConfig,
			"[RSA] private exponent must be positive",
		)
	}

	if err := e.checkModulus(key.N); err != nil {
		return nil, err.Wrap("[RSA] cannot decrypt")
	}

	blocks, err := e.codec.SplitCiphertext(ciphertext)
	if err != nil {
		return nil, err.Wrap("[RSA] failed to split ciphertext")
	}

	e.log.WithRandomRequestID().
		WithField(yalogger.KeyOperation, "decrypt").
		WithField(yalogger.KeyBlocks, len(blocks)).
		Debugf("Decrypting %d bytes", len(ciphertext))

	joined, err := e.transform(ctx, blocks, key.D, key.N, e.codec.EncodePlainBlock)
	if err != nil {
		return nil, err.Wrap("[RSA] failed to decrypt")
	}

	plain, err := e.codec.StripPadding(joined)
	if err != nil {
		return nil, err.Wrap("[RSA] failed to strip padding")
	}

	return plain, nil
}

// checkModulus makes sure the key fits the codec geometry. A modulus of
// CipherSize bytes is larger than any PlainSize-byte block.
func (e *Engine) checkModulus(modulus *big.Int) yaerrors.Error {
	if modulus == nil || modulus.Sign() <= 0 {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvalidConfig,
			"[RSA] modulus must be positive",
		)
	}

	if size := byteLen(modulus); size != e.codec.CipherSize() {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvalidConfig,
			fmt.Sprintf(
				"[RSA] modulus has %d bytes, codec expects %d",
				size,
				e.codec.CipherSize(),
			),
		)
	}

	return nil
}

// transform exponentiates every block and encodes the results. Blocks run
// on at most e.workers goroutines; results are stored by index.
func (e *Engine) transform(
	ctx context.Context,
	blocks [][]byte,
	exponent, modulus *big.Int,
	encode func(*big.Int) ([]byte, yaerrors.Error),
) ([]byte, yaerrors.Error) {
	results := make([][]byte, len(blocks))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers)

	for i, block := range blocks {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return yaerrors.FromError(
					http.StatusInternalServerError,
					err,
					fmt.Sprintf("[RSA] block %d cancelled", i),
				)
			}

			value := new(big.Int).SetBytes(block)
			if value.Cmp(modulus) >= 0 {
				return yaerrors.FromError(
					http.StatusBadRequest,
					yaerrors.ErrMalformedInput,
					fmt.Sprintf("[RSA] block %d is not below the modulus", i),
				)
			}

			result := yamath.ModPow(value, exponent, modulus)

			if e.verify {
				if want := new(big.Int).Exp(value, exponent, modulus); want.Cmp(result) != 0 {
					return yaerrors.FromError(
						http.StatusInternalServerError,
						yaerrors.ErrInvariantViolation,
						fmt.Sprintf("[RSA] block %d: square-and-multiply disagrees with big.Int.Exp", i),
					)
				}
			}

			encoded, err := encode(result)
			if err != nil {
				return err.Wrapf("[RSA] block %d", i)
			}

			results[i] = encoded

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		var yaerr yaerrors.Error
		if errors.As(err, &yaerr) {
			return nil, yaerr
		}

		return nil, yaerrors.FromError(http.StatusInternalServerError, err, "[RSA] block worker failed")
	}

	size := 0
	for _, result := range results {
		size += len(result)
	}

	out := make([]byte, 0, size)
	for _, result := range results {
		out = append(out, result...)
	}

	return out, nil
}
