// Package dto decodes loosely typed input (form posts, terminal answers,
// MCP tool arguments) into domain types.
package dto

import (
	"fmt"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// PatchFields lists the keys DecodePatch understands.
var PatchFields = []string{
	"target", "marketplace", "order_id", "rating", "used_seven_days",
	"name", "email", "phone", "feedback",
}

// DecodePatch converts a generic map into a FormPatch. Values may arrive as
// strings ("5", "true") and are coerced to the field type. Unknown keys are
// rejected.
func DecodePatch(input map[string]any) (domain.FormPatch, error) {
	var patch domain.FormPatch
	if len(input) == 0 {
		return patch, nil
	}

	normalized := make(map[string]any, len(input))
	for k, v := range input {
		if s, ok := v.(string); ok && isBoolField(k) {
			v = normalizeBool(s)
		}
		normalized[k] = v
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &patch,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return patch, err
	}
	if err := decoder.Decode(normalized); err != nil {
		return domain.FormPatch{}, fmt.Errorf("invalid form patch: %w", err)
	}
	return patch, nil
}

func isBoolField(key string) bool {
	return key == "used_seven_days"
}

// normalizeBool accepts the usual yes/no spellings a human types.
func normalizeBool(s string) any {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1", "on":
		return true
	case "n", "no", "false", "0", "off":
		return false
	}
	return s
}
