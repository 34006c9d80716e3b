// Command yavlrsa generates variable-length RSA keypairs, encrypts and
// decrypts files with them and serves the same operations over HTTP.
//
// Usage:
//
//	yavlrsa keygen  [-dir keys] [-bits 2048] [-seed S] [-reuse-primes]
//	yavlrsa encrypt -key keys/public.txt -in message.bin -out message.enc [-binary] [-gzip]
//	yavlrsa decrypt -key keys/private.txt -in message.enc -out message.bin [-binary] [-gzip]
//	yavlrsa serve   [-addr :8080]
//
// Defaults come from the environment (see config.Config); flags win.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/YaCodeDev/GoYaVarRSA/config"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/gin-gonic/gin"
)

const usage = `usage: yavlrsa <command> [flags]

commands:
  keygen   generate a keypair and write public.txt, private.txt and primes.txt
  encrypt  encrypt a file with a public key
  decrypt  decrypt a file with a private key
  serve    run the HTTP API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	bootstrap := yalogger.NewDefaultLogger()

	cfg, err := config.Load(bootstrap)
	if err != nil {
		bootstrap.Fatalf("Failed to load config: %v", err)
	}

	log := yalogger.NewBaseLogger(&yalogger.Config{
		Level:         cfg.EffectiveLogLevel(),
		FullTimestamp: true,
	}).NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, args := os.Args[1], os.Args[2:]

	switch command {
	case "keygen":
		err = runKeygen(ctx, cfg, args, log)
	case "encrypt":
		err = runEncrypt(ctx, cfg, args, log)
	case "decrypt":
		err = runDecrypt(ctx, cfg, args, log)
	case "serve":
		gin.SetMode(config.GetEnv("GIN_MODE", gin.ReleaseMode, false, log))

		err = runServe(ctx, cfg, args, log)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		stop()
		log.Fatalf("%s failed: %v", command, err)
	}
}
