package recipe

import (
	"recipio/internal/pkg/common"
)

// StructuredFields are the payload keys that carry lists. Form submissions
// cannot nest values, so clients send these as JSON-encoded text.
var StructuredFields = []string{"ingredients", "instructions", "tags", "dietary_labels"}

// Normalize reconciles native JSON bodies and flat form bodies. Each
// structured field holding text is decoded as JSON; text that does not parse
// is kept unchanged for the schema check to reject. The input is not
// modified and absent fields stay absent.
func Normalize(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}

	for _, field := range StructuredFields {
		raw, ok := out[field].(string)
		if !ok {
			continue
		}
		var decoded any
		if err := common.ParseJSON(raw, &decoded); err != nil {
			continue
		}
		out[field] = decoded
	}

	return out
}
