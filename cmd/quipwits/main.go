package main

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zachegner/QuipWits/internal/apikeystore"
	"github.com/zachegner/QuipWits/internal/config"
	"github.com/zachegner/QuipWits/internal/fsm"
	"github.com/zachegner/QuipWits/internal/httpserver"
	"github.com/zachegner/QuipWits/internal/prompts"
	"github.com/zachegner/QuipWits/internal/room"
	"github.com/zachegner/QuipWits/internal/transport"
)

func main() {
	log.SetFlags(0)
	cfg := &config.Config{}

	cmd := config.NewCommand(cfg, func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cfg)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	cobra.CheckErr(cmd.Execute())
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Version {
		log.Printf("quipwits v%s\n", config.Version())
		return nil
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.PromptAPIKey = key
	}

	keys := apikeystore.NewMemory(cfg.PromptAPIKey)

	local := prompts.NewTemplateSource(newRand())
	var source prompts.Source = local
	if cfg.PromptAPIURL != "" {
		remote := prompts.NewRemoteSource(cfg.PromptAPIURL, keys.GetAPIKey())
		source = prompts.NewFallback(remote, local)
	}

	registry := room.NewRegistry()

	var service *fsm.Service
	hub := transport.NewHub(nil)
	service = fsm.New(registry, source, hub, cfg)
	hub.SetDispatcher(service)

	stopReaper := make(chan struct{})
	defer close(stopReaper)
	registry.StartReaper(cfg.RoomTimeout, stopReaper, func(code string) {
		cfg.Logf("REAP: room %s aged out", code)
	})

	srv := &httpserver.Server{Cfg: cfg, Hub: hub, Keys: keys}

	cfg.Logf("START: quipwits v%s listening on %s://%s:%s%s/",
		config.Version(), cfg.Scheme(), cfg.Bind, strconv.Itoa(cfg.Port), cfg.Prefix)

	return httpserver.Serve(ctx, cfg, srv.Routes())
}

func newRand() *rand.Rand {
	var seed [8]byte
	_, _ = cryptorand.Read(seed[:])
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}
