package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/toolserver"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the registered extraction strategies in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := tools.Strategies()
		for _, s := range out.Strategies {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", s.Priority, s.Name)
		}
		if len(out.LLMModels) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "llm: %s\n", strings.Join(out.LLMModels, ", "))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cache ttl: %s\n", out.CacheTTL)
		return nil
	},
}

var hintsCmd = &cobra.Command{
	Use:   "hints [YouTube URL or ID | file | -]",
	Short: "Detect sponsor, intro, outro and other patterns in a transcript",
	Example: `  transcriptctl hints dQw4w9WgXcQ
  transcriptctl hints transcript.txt
  transcriptctl fetch dQw4w9WgXcQ -f plain | transcriptctl hints -
  transcriptctl hints --text "this video is sponsored by Acme"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := toolserver.PatternHintsInput{}
		in.Text, _ = cmd.Flags().GetString("text")
		in.Lang, _ = cmd.Flags().GetString("lang")
		if len(args) == 1 && in.Text == "" {
			text, ok, err := readTextArg(cmd, args[0])
			if err != nil {
				return err
			}
			if ok {
				in.Text = text
			} else {
				in.Video = args[0]
			}
		}
		out, err := tools.Hints(cmd.Context(), in)
		if err != nil {
			return err
		}
		if out.Hints == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "no patterns detected")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Hints)
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [YouTube URL or ID]",
	Short: "Label the timeline of a video (needs LLM_API_KEY)",
	Example: `  transcriptctl classify dQw4w9WgXcQ
  transcriptctl classify --transcript captions.vtt
  transcriptctl classify dQw4w9WgXcQ --transcript - < captions.json3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := toolserver.SegmentsClassifyInput{}
		if len(args) == 1 {
			in.Video = args[0]
		}
		if path, _ := cmd.Flags().GetString("transcript"); path != "" {
			text, ok, err := readTextArg(cmd, path)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("transcript file %q not found", path)
			}
			in.Transcript = text
		}
		in.Lang, _ = cmd.Flags().GetString("lang")
		in.NoCache, _ = cmd.Flags().GetBool("no-cache")
		out, err := tools.Classify(cmd.Context(), in)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, out)
		}
		for _, s := range out.Segments {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-8s %-20s %s\n",
				clock(s.Start), clock(s.End), s.Label.DisplayName(), strings.TrimSpace(s.Text))
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary [YouTube URL or ID]",
	Short: "Summarize a video as markdown (needs LLM_API_KEY)",
	Example: `  transcriptctl summary dQw4w9WgXcQ
  transcriptctl summary dQw4w9WgXcQ --length long --language German`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := toolserver.TranscriptSummaryInput{Video: args[0]}
		in.Lang, _ = cmd.Flags().GetString("lang")
		in.Length, _ = cmd.Flags().GetString("length")
		in.Language, _ = cmd.Flags().GetString("language")
		in.Instructions, _ = cmd.Flags().GetString("instructions")
		in.NoCache, _ = cmd.Flags().GetBool("no-cache")
		out, err := tools.Summary(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Summary)
		return nil
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments [YouTube URL or ID]",
	Short: "Print the top comments of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := toolserver.VideoCommentsInput{Video: args[0]}
		in.Limit, _ = cmd.Flags().GetInt("limit")
		in.NoCache, _ = cmd.Flags().GetBool("no-cache")
		out, err := tools.Comments(cmd.Context(), in)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, out)
		}
		for _, c := range out.Comments {
			author := c.Author
			if c.IsCreator {
				author += " (creator)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s likes  %s\n  %s\n", author, c.Likes, c.Published, strings.ReplaceAll(c.Text, "\n", "\n  "))
		}
		return nil
	},
}

var metadataCmd = &cobra.Command{
	Use:   "metadata [YouTube URL or ID]",
	Short: "Print video metadata as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := tools.Metadata(cmd.Context(), toolserver.VideoMetadataInput{Video: args[0]})
		if err != nil {
			return err
		}
		return printJSON(cmd, out)
	},
}

// readTextArg reads "-" from stdin and an existing path from disk. Anything
// else is left to be parsed as a video.
func readTextArg(cmd *cobra.Command, arg string) (string, bool, error) {
	if arg == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), true, err
	}
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		b, err := os.ReadFile(arg) //nolint:gosec // user-supplied path on purpose
		return string(b), true, err
	}
	return "", false, nil
}

func init() {
	hintsCmd.Flags().String("text", "", "Scan this text instead of a fetched transcript")
	hintsCmd.Flags().StringP("lang", "l", "", "Caption language")
	classifyCmd.Flags().StringP("lang", "l", "", "Caption language")
	classifyCmd.Flags().Bool("no-cache", false, "Ignore a cached classification")
	classifyCmd.Flags().Bool("json", false, "Print JSON")
	classifyCmd.Flags().String("transcript", "", "Classify this caption file (or - for stdin) instead of fetching")
	summaryCmd.Flags().StringP("lang", "l", "", "Caption language")
	summaryCmd.Flags().String("length", "medium", "Summary length: short, medium or long")
	summaryCmd.Flags().String("language", "", "Output language (default English)")
	summaryCmd.Flags().String("instructions", "", "Custom instructions replacing the default task")
	summaryCmd.Flags().Bool("no-cache", false, "Ignore a cached summary")
	commentsCmd.Flags().IntP("limit", "n", 20, "Maximum comments")
	commentsCmd.Flags().Bool("no-cache", false, "Ignore cached comments")
	commentsCmd.Flags().Bool("json", false, "Print JSON")
	rootCmd.AddCommand(strategiesCmd, hintsCmd, classifyCmd, summaryCmd, commentsCmd, metadataCmd)
}
