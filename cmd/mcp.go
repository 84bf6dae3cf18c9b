package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/jthornhill/popframe/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP stdio server",
	Run:   runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	loader, _, err := buildLoader(cfg)
	if err != nil {
		log.Fatalf("building loader: %v", err)
	}

	srv := mcpserver.NewServer(loader)
	if err := srv.Run(); err != nil {
		log.Fatalf("mcp server: %v", err)
	}
}
