package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/YaCodeDev/GoYaVarRSA/config"
	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yagzip"
	"github.com/YaCodeDev/GoYaVarRSA/yaginapi"
	"github.com/YaCodeDev/GoYaVarRSA/yakeystore"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/YaCodeDev/GoYaVarRSA/yarsa"
)

const (
	PublicKeyFile  = "public.txt"
	PrivateKeyFile = "private.txt"
	PrimesFile     = "primes.txt"

	filePerm = 0o600
	dirPerm  = 0o700
)

var errMissingPaths = errors.New("-key, -in and -out are required")

func runKeygen(ctx context.Context, cfg *config.Config, args []string, log yalogger.Logger) yaerrors.Error {
	flags := flag.NewFlagSet("keygen", flag.ContinueOnError)
	dir := flags.String("dir", ".", "directory for public.txt, private.txt and primes.txt")
	bits := flags.Int("bits", cfg.KeyBits, "modulus size in bits")
	seed := flags.String("seed", cfg.KeySeed, "derive the keypair deterministically from this seed")
	reuse := flags.Bool("reuse-primes", false, "rebuild the keypair from an existing primes.txt")

	if err := flags.Parse(args); err != nil {
		return flagError(err)
	}

	var (
		params *yarsa.KeyParameters
		err    yaerrors.Error
	)

	primesPath := filepath.Join(*dir, PrimesFile)

	if *reuse {
		params, err = keypairFromPrimesFile(primesPath, *seed)
	} else {
		params, err = yarsa.GenerateKeypair(ctx, yarsa.KeyOpts{
			Bits:       *bits,
			Iterations: cfg.PrimeIterations,
			RetryLimit: cfg.RetryLimit,
			Seed:       []byte(*seed),
			Log:        log,
		})
	}

	if err != nil {
		return err.Wrap("keygen")
	}

	if err := os.MkdirAll(*dir, dirPerm); err != nil {
		return ioError(err, "create key directory")
	}

	files := map[string]string{
		PublicKeyFile:  yarsa.MarshalPublicKey(params.PublicKey()),
		PrivateKeyFile: yarsa.MarshalPrivateKey(params.PrivateKey()),
		PrimesFile:     yarsa.MarshalPrimes(params.PrimeP, params.PrimeQ),
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(*dir, name), []byte(content), filePerm); err != nil {
			return ioError(err, "write "+name)
		}
	}

	log.WithField(yalogger.KeyBits, params.Bits()).Infof("Keypair written to %s", *dir)

	return nil
}

func keypairFromPrimesFile(path, seed string) (*yarsa.KeyParameters, yaerrors.Error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError(err, "read primes")
	}

	p, q, yaerr := yarsa.ParsePrimes(string(text))
	if yaerr != nil {
		return nil, yaerr.Wrapf("parse %s", path)
	}

	var random io.Reader
	if seed != "" {
		random = yarsa.NewDeterministicReader([]byte(seed))
	}

	return yarsa.KeypairFromPrimes(p, q, random)
}

type cryptFlags struct {
	key    string
	in     string
	out    string
	binary bool
	gzip   bool
}

func parseCryptFlags(name string, args []string) (*cryptFlags, yaerrors.Error) {
	var opts cryptFlags

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.StringVar(&opts.key, "key", "", "key file")
	flags.StringVar(&opts.in, "in", "", "input file")
	flags.StringVar(&opts.out, "out", "", "output file")
	flags.BoolVar(&opts.binary, "binary", false, "ciphertext as raw blocks instead of decimal text")
	flags.BoolVar(&opts.gzip, "gzip", false, "compress the message before encryption")

	if err := flags.Parse(args); err != nil {
		return nil, flagError(err)
	}

	if opts.key == "" || opts.in == "" || opts.out == "" {
		return nil, flagError(errMissingPaths)
	}

	return &opts, nil
}

func runEncrypt(ctx context.Context, cfg *config.Config, args []string, log yalogger.Logger) yaerrors.Error {
	opts, err := parseCryptFlags("encrypt", args)
	if err != nil {
		return err
	}

	keyText, readErr := os.ReadFile(opts.key)
	if readErr != nil {
		return ioError(readErr, "read public key")
	}

	key, err := yarsa.ParsePublicKey(string(keyText))
	if err != nil {
		return err.Wrapf("parse %s", opts.key)
	}

	message, readErr := os.ReadFile(opts.in)
	if readErr != nil {
		return ioError(readErr, "read message")
	}

	engine, err := newEngine(cfg, key.Size(), opts.gzip, log)
	if err != nil {
		return err
	}

	if opts.gzip {
		if message, err = yagzip.NewGzip().Zip(message); err != nil {
			return err.Wrap("compress message")
		}
	}

	ciphertext, err := engine.Encrypt(ctx, message, key)
	if err != nil {
		return err.Wrap("encrypt")
	}

	output := ciphertext
	if !opts.binary {
		output = []byte(yarsa.EncodeCiphertextText(ciphertext) + "\n")
	}

	if writeErr := os.WriteFile(opts.out, output, filePerm); writeErr != nil {
		return ioError(writeErr, "write ciphertext")
	}

	log.WithField(yalogger.KeyBlocks, len(ciphertext)/engine.Codec().CipherSize()).
		Infof("Encrypted %s into %s", opts.in, opts.out)

	return nil
}

func runDecrypt(ctx context.Context, cfg *config.Config, args []string, log yalogger.Logger) yaerrors.Error {
	opts, err := parseCryptFlags("decrypt", args)
	if err != nil {
		return err
	}

	keyText, readErr := os.ReadFile(opts.key)
	if readErr != nil {
		return ioError(readErr, "read private key")
	}

	key, err := yarsa.ParsePrivateKey(string(keyText))
	if err != nil {
		return err.Wrapf("parse %s", opts.key)
	}

	input, readErr := os.ReadFile(opts.in)
	if readErr != nil {
		return ioError(readErr, "read ciphertext")
	}

	engine, err := newEngine(cfg, key.Size(), opts.gzip, log)
	if err != nil {
		return err
	}

	ciphertext := input
	if !opts.binary {
		if ciphertext, err = yarsa.DecodeCiphertextText(string(input), engine.Codec().CipherSize()); err != nil {
			return err.Wrapf("parse %s", opts.in)
		}
	}

	message, err := engine.Decrypt(ctx, ciphertext, key)
	if err != nil {
		return err.Wrap("decrypt")
	}

	if opts.gzip {
		if message, err = yagzip.NewGzip().Unzip(message); err != nil {
			return err.Wrap("decompress message")
		}
	}

	if writeErr := os.WriteFile(opts.out, message, filePerm); writeErr != nil {
		return ioError(writeErr, "write message")
	}

	log.Infof("Decrypted %s into %s", opts.in, opts.out)

	return nil
}

func runServe(ctx context.Context, cfg *config.Config, args []string, log yalogger.Logger) yaerrors.Error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := flags.String("addr", cfg.HTTPAddr, "listen address")

	if err := flags.Parse(args); err != nil {
		return flagError(err)
	}

	store, err := yakeystore.New(ctx, yakeystore.Options{
		Backend:       cfg.Store.Backend,
		TTL:           cfg.KeyTTL(),
		RedisAddr:     cfg.Store.Redis.Addr,
		RedisPassword: cfg.Store.Redis.Password,
		RedisDB:       cfg.Store.Redis.DB,
		DatabasePath:  cfg.Store.DatabasePath,
	}, log)
	if err != nil {
		return err.Wrap("open key store")
	}

	server := yaginapi.New(store, yaginapi.Options{
		DefaultBits: cfg.KeyBits,
		MaxBits:     cfg.MaxKeyBits,
		BlockSize:   cfg.BlockSize,
		Padding:     cfg.Padding,
		Workers:     cfg.Workers,
		Verify:      cfg.VerifyBlocks,
		Iterations:  cfg.PrimeIterations,
		RetryLimit:  cfg.RetryLimit,
	}, log)

	if err := server.Run(ctx, *addr); err != nil {
		return err.Wrap("serve")
	}

	return nil
}

func newEngine(cfg *config.Config, cipherSize int, gzip bool, log yalogger.Logger) (*yarsa.Engine, yaerrors.Error) {
	codec, err := cfg.CodecFor(cipherSize)
	if err != nil {
		return nil, err.Wrap("block codec for key")
	}

	if gzip {
		if err := codec.Padding().RequireTrailingZeros("gzip"); err != nil {
			return nil, err.Wrap("-gzip")
		}
	}

	return yarsa.NewEngine(codec, yarsa.EngineOpts{
		Workers: cfg.Workers,
		Verify:  cfg.VerifyBlocks,
		Log:     log,
	}), nil
}

func ioError(err error, msg string) yaerrors.Error {
	code := http.StatusInternalServerError
	if errors.Is(err, fs.ErrNotExist) {
		code = http.StatusNotFound
	}

	return yaerrors.FromError(code, err, msg)
}

func flagError(err error) yaerrors.Error {
	return yaerrors.FromError(
		http.StatusBadRequest,
		fmt.Errorf("%w: %w", yaerrors.ErrMalformedInput, err),
		"parse flags",
	)
}
