package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/mdchat/internal/heading"
)

func headingsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "headings FILE",
		Short: "List the headings mdchat sees in FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("headings: reading %s: %w", args[0], err)
			}
			heads := heading.Extract(string(data))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(heads)
			}
			for _, h := range heads {
				indent := strings.Repeat("  ", h.Level-1)
				fmt.Fprintf(out, "%5d  %sH%d %s\n", h.Line+1, indent, h.Level, h.Text)
			}
			if len(heads) == 0 {
				fmt.Fprintln(out, "No headings found.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print headings as JSON (0-based lines)")
	return cmd
}
