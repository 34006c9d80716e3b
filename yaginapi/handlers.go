package yaginapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/yaencoding"
	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yakeystore"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/YaCodeDev/GoYaVarRSA/yarsa"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

type generateRequest struct {
	Bits int `json:"bits"`
}

type keyResponse struct {
	ID        string     `json:"id"`
	N         string     `json:"n"`
	E         string     `json:"e"`
	Bits      int        `json:"bits"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type encryptRequest struct {
	Message string `json:"message"`
	Gzip    bool   `json:"gzip"`
}

type encryptResponse struct {
	Ciphertext string `json:"ciphertext"`
	Blocks     int    `json:"blocks"`
}

type decryptRequest struct {
	Ciphertext string `json:"ciphertext" binding:"required"`
	Blocks     int    `json:"blocks"`
	Gzip       bool   `json:"gzip"`
}

type decryptResponse struct {
	Message string `json:"message"`
}

func (s *Server) health(ctx *gin.Context) {
	if err := s.store.Ping(ctx.Request.Context()); err != nil {
		_ = ctx.Error(err.Wrap("[API] key store is down"))

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) generateKey(ctx *gin.Context) {
	var req generateRequest

	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = ctx.Error(badRequest(err, "[API] invalid key request"))

		return
	}

	bits := req.Bits
	if bits == 0 {
		bits = s.opts.DefaultBits
	}

	if bits < yarsa.MinKeyBits || bits > s.opts.MaxBits || bits%8 != 0 {
		_ = ctx.Error(yaerrors.FromError(
			http.StatusBadRequest,
			yaerrors.ErrMalformedInput,
			fmt.Sprintf(
				"[API] bits must be a multiple of 8 in [%d, %d], got %d",
				yarsa.MinKeyBits,
				s.opts.MaxBits,
				bits,
			),
		))

		return
	}

	log := requestLogger(ctx)

	params, err := yarsa.GenerateKeypair(ctx.Request.Context(), yarsa.KeyOpts{
		Bits:       bits,
		Iterations: s.opts.Iterations,
		RetryLimit: s.opts.RetryLimit,
		Log:        log,
	})
	if err != nil {
		_ = ctx.Error(err.Wrap("[API] failed to generate keypair"))

		return
	}

	record := yakeystore.NewRecord(params)

	if err := s.store.Save(ctx.Request.Context(), record); err != nil {
		_ = ctx.Error(err.Wrap("[API] failed to store keypair"))

		return
	}

	log.WithField(yalogger.KeyKeyID, record.ID).WithField(yalogger.KeyBits, bits).Info("Keypair created")

	ctx.JSON(http.StatusCreated, keyResponse{
		ID:   record.ID,
		N:    record.Modulus,
		E:    record.PublicExponent,
		Bits: record.Bits,
	})
}

func (s *Server) getKey(ctx *gin.Context) {
	record, err := s.store.Load(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		_ = ctx.Error(err.Wrap("[API] failed to load keypair"))

		return
	}

	ctx.JSON(http.StatusOK, keyResponse{
		ID:        record.ID,
		N:         record.Modulus,
		E:         record.PublicExponent,
		Bits:      record.Bits,
		CreatedAt: &record.CreatedAt,
	})
}

func (s *Server) deleteKey(ctx *gin.Context) {
	if err := s.store.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		_ = ctx.Error(err.Wrap("[API] failed to delete keypair"))

		return
	}

	ctx.Status(http.StatusNoContent)
}

func (s *Server) encrypt(ctx *gin.Context) {
	var req encryptRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(badRequest(err, "[API] invalid encrypt request"))

		return
	}

	message, err := yaencoding.ToBytes(req.Message)
	if err != nil {
		_ = ctx.Error(err.Wrap("[API] message must be base64"))

		return
	}

	params, engine, err := s.loadKey(ctx)
	if err != nil {
		_ = ctx.Error(err)

		return
	}

	if req.Gzip {
		if err := engine.Codec().Padding().RequireTrailingZeros("gzip"); err != nil {
			_ = ctx.Error(err.Wrap("[API] gzip is unavailable"))

			return
		}

		if message, err = s.gzip.Zip(message); err != nil {
			_ = ctx.Error(err.Wrap("[API] failed to compress message"))

			return
		}
	}

	ciphertext, err := engine.Encrypt(ctx.Request.Context(), message, params.PublicKey())
	if err != nil {
		_ = ctx.Error(err.Wrap("[API] failed to encrypt"))

		return
	}

	ctx.JSON(http.StatusOK, encryptResponse{
		Ciphertext: yarsa.EncodeCiphertextText(ciphertext),
		Blocks:     len(ciphertext) / engine.Codec().CipherSize(),
	})
}

func (s *Server) decrypt(ctx *gin.Context) {
	var req decryptRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(badRequest(err, "[API] invalid decrypt request"))

		return
	}

	params, engine, err := s.loadKey(ctx)
	if err != nil {
		_ = ctx.Error(err)

		return
	}

	if req.Gzip {
		if err := engine.Codec().Padding().RequireTrailingZeros("gzip"); err != nil {
			_ = ctx.Error(err.Wrap("[API] gzip is unavailable"))

			return
		}
	}

	ciphertext, err := yarsa.DecodeCiphertextBlocks(req.Ciphertext, engine.Codec().CipherSize(), req.Blocks)
	if err != nil {
		_ = ctx.Error(err.Wrap("[API] invalid ciphertext"))

		return
	}

	message, err := engine.Decrypt(ctx.Request.Context(), ciphertext, params.PrivateKey())
	if err != nil {
		_ = ctx.Error(err.Wrap("[API] failed to decrypt"))

		return
	}

	if req.Gzip {
		if message, err = s.gzip.Unzip(message); err != nil {
			_ = ctx.Error(err.Wrap("[API] failed to decompress message"))

			return
		}
	}

	ctx.JSON(http.StatusOK, decryptResponse{Message: yaencoding.ToString(message)})
}

// loadKey fetches the keypair named in the path and the engine sized for it.
func (s *Server) loadKey(ctx *gin.Context) (*yarsa.KeyParameters, *yarsa.Engine, yaerrors.Error) {
	id := ctx.Param("id")

	record, err := s.store.Load(ctx.Request.Context(), id)
	if err != nil {
		return nil, nil, err.Wrap("[API] failed to load keypair")
	}

	params, err := record.KeyParameters()
	if err != nil {
		return nil, nil, err.Wrap("[API] stored keypair is unusable")
	}

	engine, err := s.engineFor(params.PublicKey().Size(), requestLogger(ctx).WithField(yalogger.KeyKeyID, id))
	if err != nil {
		return nil, nil, err
	}

	return params, engine, nil
}

func badRequest(err error, msg string) yaerrors.Error {
	return yaerrors.FromError(
		http.StatusBadRequest,
		fmt.Errorf("%w: %w", yaerrors.ErrMalformedInput, err),
		msg,
	)
}
