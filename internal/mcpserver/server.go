// Package mcpserver exposes content resolution as MCP tools over stdio.
package mcpserver

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jthornhill/popframe/internal/content"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	loader    *content.Loader
}

func NewServer(loader *content.Loader) *Server {
	s := &Server{loader: loader}

	mcpServer := server.NewMCPServer(
		"popframe",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("preview_link",
			mcp.WithDescription("Resolve a link into preview data: title, title link, thumbnail, and body HTML. Content is fetched at most once per resource and cached for the session."),
			mcp.WithString("url",
				mcp.Description("Link target URL (absolute, or site-relative like /essay#section-2)"),
				mcp.Required(),
			),
			mcp.WithArray("classes",
				mcp.Description("Optional class flags carried by the link element"),
				mcp.Items(map[string]interface{}{"type": "string"}),
			),
		),
		s.handlePreviewLink,
	)

	mcpServer.AddTool(
		mcp.NewTool("load_content",
			mcp.WithDescription("Warm the content cache for a link without returning its body. Repeated calls for a loaded or failed resource are no-ops."),
			mcp.WithString("url",
				mcp.Description("Link target URL"),
				mcp.Required(),
			),
		),
		s.handleLoadContent,
	)

	mcpServer.AddTool(
		mcp.NewTool("cache_status",
			mcp.WithDescription("Report loaded/failed cache counts and the registered content types in priority order."),
		),
		s.handleCacheStatus,
	)
}

func linkFromArgs(args map[string]any) (*content.Link, error) {
	rawURL, _ := args["url"].(string)
	if rawURL == "" {
		return nil, fmt.Errorf("missing required parameter: url")
	}

	var classes []string
	if classesRaw, ok := args["classes"]; ok {
		classesJSON, _ := json.Marshal(classesRaw)
		json.Unmarshal(classesJSON, &classes)
	}
	return content.ParseLink(rawURL, classes...)
}

func (s *Server) handlePreviewLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	link, err := linkFromArgs(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rd, err := s.loader.Resolve(ctx, link)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolving %s: %v", link.URL, err)), nil
	}

	body, err := rd.ContentHTML()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rendering %s: %v", link.URL, err)), nil
	}

	resultJSON, _ := json.MarshalIndent(map[string]any{
		"titleText":     rd.TitleText,
		"titleLink":     rd.TitleLink,
		"thumbnailHTML": rd.ThumbnailHTML,
		"bodyClasses":   rd.BodyClasses,
		"contentHTML":   body,
	}, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleLoadContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	link, err := linkFromArgs(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.loader.Load(ctx, link); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading %s: %v", link.URL, err)), nil
	}

	key, _ := s.loader.ResourceKey(link)
	return mcp.NewToolResultText(fmt.Sprintf("loaded %s", key)), nil
}

func (s *Server) handleCacheStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loaded, failed := s.loader.Cache().Stats()
	resultJSON, _ := json.MarshalIndent(map[string]any{
		"loaded":       loaded,
		"failed":       failed,
		"contentTypes": s.loader.Registry().Names(),
	}, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
