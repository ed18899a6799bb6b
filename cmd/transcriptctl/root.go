package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/app"
	"github.com/anatolykoptev/go_transcript/internal/toolserver"
)

var (
	version = "dev"
	tools   *toolserver.Tools
	closeFn func() error
)

var rootCmd = &cobra.Command{
	Use:   "transcriptctl",
	Short: "Fetch and analyse YouTube transcripts",
	Long: `transcriptctl fetches YouTube transcripts through a chain of extraction
strategies (InnerTube API, timedtext endpoint, watch page, Invidious and Piped
mirrors, lyrics, speech-to-text) and caches the results.

Configuration comes from the same environment variables as the MCP server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		} else {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
		}

		c := app.ConfigFromEnv()
		c.BridgeAddr = "" // no page agent can reach a one-shot process
		c.BrowserClient = app.NewBrowserClient()
		a, err := app.New(cmd.Context(), c)
		if err != nil {
			return err
		}
		tools = toolserver.New(a)
		closeFn = a.Close
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeFn == nil {
			return nil
		}
		return closeFn()
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging on stderr")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
