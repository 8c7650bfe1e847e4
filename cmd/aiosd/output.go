package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// printJSON writes v to the command's stdout as indented JSON, the uniform
// output format across every aiosd subcommand.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
