package output

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// field is one top-level report key rendered as a label/value pair.
type field struct {
	Label string
	Value string
}

// orderedFields marshals report to JSON and walks its top-level object in
// field-declaration order (json.Decoder preserves source order, unlike
// decoding into a map), rendering scalars directly and nested
// objects/arrays as compact JSON.
func orderedFields(report any) []field {
	raw, err := json.Marshal(report)
	if err != nil {
		return []field{{Label: "error", Value: err.Error()}}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return []field{{Label: "value", Value: string(raw)}}
	}

	var fields []field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			break
		}
		key := fmt.Sprintf("%v", keyTok)

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			break
		}
		fields = append(fields, field{Label: key, Value: renderValue(val)})
	}
	return fields
}

func renderValue(raw json.RawMessage) string {
	var scalar any
	if err := json.Unmarshal(raw, &scalar); err == nil {
		switch v := scalar.(type) {
		case string:
			return v
		case nil:
			return ""
		case bool, float64:
			return fmt.Sprintf("%v", v)
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}
