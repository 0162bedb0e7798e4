// Package output serializes mappings to the external JSON contract: one
// object per requested log line, fields in srcRef/variables/stack order,
// newline-delimited when the window spans several lines.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ttiimm/log2src/internal/match"
)

// WriteMappings encodes mappings as a newline-delimited stream. Field
// order follows the struct declaration, map keys sort lexicographically,
// so output is byte-for-byte reproducible for a fixed index and log.
func WriteMappings(w io.Writer, mappings []*match.Mapping) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, m := range mappings {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encoding mapping: %w", err)
		}
	}
	return nil
}
