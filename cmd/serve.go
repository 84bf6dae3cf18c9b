package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jthornhill/popframe/internal/errlog"
	"github.com/jthornhill/popframe/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP preview resolution server",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	loader, hub, err := buildLoader(cfg)
	if err != nil {
		log.Fatalf("building loader: %v", err)
	}
	resolver := buildResolver(cfg, loader, hub)

	store, err := errlog.NewStore(cfg.Errlog.DBPath)
	if err != nil {
		log.Fatalf("opening errlog store: %v", err)
	}
	defer store.Close()

	srv := server.New(cfg.Server.ListenAddr, loader, resolver, store)

	errCh := make(chan error)
	go func() { errCh <- srv.Start() }()

	if err := waitForSignal(errCh); err != nil {
		log.Fatalf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Printf("server: %v", err)
	}
}

func waitForSignal(errCh chan error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		log.Printf("received signal: %s", sig)
		return nil
	case err := <-errCh:
		return err
	}
}
