package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
	"github.com/anatolykoptev/go_transcript/internal/toolserver"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [YouTube URL or ID]",
	Short: "Print the transcript of a video",
	Example: `  # Timestamped transcript
  transcriptctl fetch "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

  # Plain text in German, mirrors first
  transcriptctl fetch dQw4w9WgXcQ --lang de --method mirror --format plain

  # Raw segments as JSON, bypassing the cache
  transcriptctl fetch dQw4w9WgXcQ --json --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := toolserver.TranscriptFetchInput{Video: args[0]}
		in.Lang, _ = cmd.Flags().GetString("lang")
		in.Method, _ = cmd.Flags().GetString("method")
		in.Format, _ = cmd.Flags().GetString("format")
		in.NoCache, _ = cmd.Flags().GetBool("no-cache")
		in.TimeoutSeconds, _ = cmd.Flags().GetInt("timeout")
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			in.Format = transcript.FormatSegments
		}

		out, err := tools.Fetch(cmd.Context(), in)
		if err != nil {
			return err
		}
		return writeFetch(cmd, out, asJSON)
	},
}

// writeFetch prints a fetch result. Segment output has no text, so without
// --json the segment list itself is printed as JSON.
func writeFetch(cmd *cobra.Command, out toolserver.TranscriptFetchOutput, asJSON bool) error {
	if asJSON {
		return printJSON(cmd, out)
	}
	if out.Text == "" && out.Segments != nil {
		if err := printJSON(cmd, out.Segments); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), out.Text)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d segments via %s\n", out.Count, out.Strategy)
	return nil
}

func init() {
	fetchCmd.Flags().StringP("lang", "l", "", "Caption language (default from TRANSCRIPT_LANG)")
	fetchCmd.Flags().StringP("method", "m", "", "Strategy to try first, or auto")
	fetchCmd.Flags().StringP("format", "f", transcript.FormatTimestamped, "Output format: timestamped, plain, or segments (JSON list)")
	fetchCmd.Flags().Bool("no-cache", false, "Skip the cache read")
	fetchCmd.Flags().Int("timeout", 0, "Per-strategy timeout in seconds")
	fetchCmd.Flags().Bool("json", false, "Print the full result as JSON")
	rootCmd.AddCommand(fetchCmd)
}
