// transcriptctl fetches YouTube transcripts from the command line using the
// same strategies and cache as the MCP server.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
