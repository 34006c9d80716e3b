// Package yaginapi exposes key generation, lookup, encryption and
// decryption over HTTP with Gin. Keypairs live in a yakeystore.Store and
// are addressed by the ID returned when they are generated.
//
//	POST   /keys              {"bits": 2048}                 -> 201 {"id","n","e","bits"}
//	GET    /keys/:id                                         -> 200 {"id","n","e","bits","created_at"}
//	DELETE /keys/:id                                         -> 204
//	POST   /keys/:id/encrypt  {"message": base64, "gzip"}    -> 200 {"ciphertext": decimal, "blocks"}
//	POST   /keys/:id/decrypt  {"ciphertext": decimal, "gzip"} -> 200 {"message": base64}
//	GET    /health                                           -> 200 {"status": "ok"}
//
// Failures are answered with the yaerrors code as HTTP status and
// {"error": "..."} as body.
package yaginapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/yablock"
	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yagzip"
	"github.com/YaCodeDev/GoYaVarRSA/yakeystore"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/YaCodeDev/GoYaVarRSA/yarsa"
	"github.com/gin-gonic/gin"
)

// DefaultMaxBits bounds the key size a client may ask for.
const DefaultMaxBits = 4096

const shutdownTimeout = 10 * time.Second

// Options mirrors the parts of the configuration the API needs.
//
// BlockSize is the plaintext block size for DefaultBits keys. Keys of other
// sizes use the same value capped at their CipherSize-1.
type Options struct {
	DefaultBits int
	MaxBits     int
	BlockSize   int
	Padding     yablock.Padding
	Workers     int
	Verify      bool
	Iterations  int
	RetryLimit  int
}

// Server holds the dependencies of the handlers.
type Server struct {
	store yakeystore.Store
	opts  Options
	gzip  *yagzip.Gzip
	log   yalogger.Logger
}

// New builds a Server over store.
//
// Example:
//
//	server := yaginapi.New(store, yaginapi.Options{DefaultBits: 2048, BlockSize: 214}, log)
//	if err := server.Run(ctx, ":8080"); err != nil {
//	    log.Fatalf("http: %v", err)
//	}
func New(store yakeystore.Store, opts Options, log yalogger.Logger) *Server {
	if opts.MaxBits <= 0 {
		opts.MaxBits = DefaultMaxBits
	}

	return &Server{
		store: store,
		opts:  opts,
		gzip:  yagzip.NewGzip(),
		log:   yalogger.OrDefault(log),
	}
}

// Router returns a gin.Engine with the middlewares and routes installed.
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		NewRequestLogger(s.log).Handle,
		NewErrorHandler().Handle,
	)

	router.GET("/health", s.health)

	keys := router.Group("/keys")
	keys.POST("", s.generateKey)
	keys.GET("/:id", s.getKey)
	keys.DELETE("/:id", s.deleteKey)
	keys.POST("/:id/encrypt", s.encrypt)
	keys.POST("/:id/decrypt", s.decrypt)

	return router
}

// Run serves the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) yaerrors.Error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: shutdownTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		s.log.Infof("HTTP server listening on %s", addr)

		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return yaerrors.FromError(http.StatusInternalServerError, err, "[API] server stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return yaerrors.FromError(http.StatusInternalServerError, err, "[API] failed to shut down")
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return yaerrors.FromError(http.StatusInternalServerError, err, "[API] server stopped")
	}

	s.log.Info("HTTP server stopped")

	return nil
}

// engineFor builds the engine matching a key of cipherSize bytes.
func (s *Server) engineFor(cipherSize int, log yalogger.Logger) (*yarsa.Engine, yaerrors.Error) {
	plainSize := min(s.opts.BlockSize, cipherSize-1)

	codec, err := yablock.NewCodec(plainSize, cipherSize, s.opts.Padding)
	if err != nil {
		return nil, err.Wrap("[API] failed to build block codec")
	}

	return yarsa.NewEngine(codec, yarsa.EngineOpts{
		Workers: s.opts.Workers,
		Verify:  s.opts.Verify,
		Log:     log,
	}), nil
}
