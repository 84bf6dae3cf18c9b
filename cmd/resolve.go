package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jthornhill/popframe/internal/content"
)

var resolveClasses []string

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Classify and resolve one link, printing its reference data as JSON",
	Args:  cobra.ExactArgs(1),
	Run:   runResolve,
}

func init() {
	resolveCmd.Flags().StringSliceVar(&resolveClasses, "class", nil, "class flags carried by the link")
}

func runResolve(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	loader, _, err := buildLoader(cfg)
	if err != nil {
		log.Fatalf("building loader: %v", err)
	}

	link, err := content.ParseLink(args[0], resolveClasses...)
	if err != nil {
		slog.Error("invalid link", "url", args[0], "error", err)
		os.Exit(1)
	}

	ct := loader.Classify(link)
	if ct == nil {
		fmt.Println("no content type matches; default link behavior applies")
		return
	}

	rd, err := loader.Resolve(context.Background(), link)
	if err != nil {
		slog.Error("resolution failed", "url", args[0], "error", err)
		os.Exit(1)
	}

	body, _ := rd.ContentHTML()
	out, _ := json.MarshalIndent(map[string]any{
		"contentType":   ct.Name(),
		"titleText":     rd.TitleText,
		"titleLink":     rd.TitleLink,
		"thumbnailHTML": rd.ThumbnailHTML,
		"bodyClasses":   rd.BodyClasses,
		"contentHTML":   body,
	}, "", "  ")
	fmt.Println(string(out))
}
