package output

import (
	"encoding/json"
	"io"
)

// JSONRenderer produces the canonical, byte-stable JSON contract — the
// same shape every engine operation returns, never colorized.
type JSONRenderer struct {
	w io.Writer
}

func (r *JSONRenderer) Render(_ string, report any) {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
