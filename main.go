// go_transcript: YouTube transcript MCP server.
//
// Exposes transcript_fetch, transcript_strategies, segments_classify,
// pattern_hints, video_metadata, cache_clear and history_list. A page agent
// running in the browser can attach to the bridge endpoint to contribute
// intercepted captions and drive the transcript panel.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/app"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/toolserver"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := app.ConfigFromEnv()
	c.BrowserClient = app.NewBrowserClient()

	a, err := app.New(ctx, c)
	if err != nil {
		slog.Error("init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	if a.Bridge != nil {
		go func() {
			slog.Info("page bridge listening", slog.String("addr", c.BridgeAddr))
			if err := a.Bridge.ListenAndServe(ctx, c.BridgeAddr); err != nil {
				slog.Error("page bridge failed", slog.Any("error", err))
			}
		}()
	}

	slog.Info("starting go_transcript",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: version,
	}, nil)

	toolserver.RegisterTools(server, a)
	slog.Info("tools registered", slog.Int("count", toolserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_transcript",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}
