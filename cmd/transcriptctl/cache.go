package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
	"github.com/anatolykoptev/go_transcript/internal/toolserver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the transcript cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [YouTube URL or ID]",
	Short: "Clear one video's cache entries, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := toolserver.CacheClearInput{}
		if len(args) == 1 {
			in.Video = args[0]
		}
		out, err := tools.ClearCache(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared: %s\n", out.Cleared)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently fetched videos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		out, err := tools.History(cmd.Context(), toolserver.HistoryListInput{Limit: limit})
		if err != nil {
			return err
		}
		for _, e := range out.Entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-3s %-10s %d segments\n",
				e.At.Local().Format(time.DateTime), e.VideoID, e.Lang, e.Strategy, e.Segments)
		}
		return nil
	},
}

func clock(sec float64) string { return transcript.FormatTimestamp(sec) }

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum entries")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd, historyCmd)
}
