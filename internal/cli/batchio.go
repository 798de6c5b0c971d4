package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/andreyvit/treedb"
	"github.com/spf13/cobra"
)

// readBatch decodes a JSON batch from the file named by args[0], or from
// stdin when there are no args or the name is "-".
func readBatch(cmd *cobra.Command, args []string) (*treedb.Batch, error) {
	var r io.Reader = cmd.InOrStdin()
	name := "stdin"
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open batch: %w", err)
		}
		defer f.Close()
		r, name = f, args[0]
	}

	var m map[string]any
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode batch from %s: %w", name, err)
	}
	b, err := treedb.BatchFromMap(m)
	if err != nil {
		return nil, fmt.Errorf("invalid batch in %s: %w", name, err)
	}
	return b, nil
}

// writeJSON writes v as indented JSON. Object keys come out sorted.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
