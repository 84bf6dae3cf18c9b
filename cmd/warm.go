package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jthornhill/popframe/internal/content"
)

var warmConcurrency int

var warmCmd = &cobra.Command{
	Use:   "warm <urls-file>",
	Short: "Prefetch a list of link URLs (one per line) into the content cache",
	Args:  cobra.ExactArgs(1),
	Run:   runWarm,
}

func init() {
	warmCmd.Flags().IntVar(&warmConcurrency, "concurrency", 8, "parallel loads")
}

func runWarm(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	loader, _, err := buildLoader(cfg)
	if err != nil {
		log.Fatalf("building loader: %v", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		log.Fatalf("opening %s: %v", args[0], err)
	}
	defer f.Close()

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(warmConcurrency)

	var total int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		total++

		g.Go(func() error {
			link, err := content.ParseLink(raw)
			if err != nil {
				log.Printf("warm: skipping %s: %v", raw, err)
				return nil
			}
			if _, err := loader.Load(ctx, link); err != nil {
				log.Printf("warm: %s: %v", raw, err)
			}
			return nil
		})
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("reading %s: %v", args[0], err)
	}
	g.Wait()

	loaded, cachedFailed := loader.Cache().Stats()
	fmt.Printf("warmed %d links: %d loaded, %d failed\n", total, loaded, cachedFailed)
}
