package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Decoder implements the two-stage parse policy for model output: a
// strict parse with schema validation first, then a lenient structural
// repair of near-valid JSON before giving up. Classification and document
// analysis share the same policy.
type Decoder struct{}

// Decode unmarshals raw into v and runs validate against the populated
// value. When either step fails, the raw text is repaired and both steps
// run once more.
func (Decoder) Decode(raw string, v any, validate func() error) error {
	trimmed := stripFences(raw)

	strictErr := decodeOnce(trimmed, v, validate)
	if strictErr == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(trimmed)
	if err != nil {
		return fmt.Errorf("strict parse failed (%v), repair failed: %w", strictErr, err)
	}
	if err := decodeOnce(repaired, v, validate); err != nil {
		return fmt.Errorf("strict parse failed (%v), repaired parse failed: %w", strictErr, err)
	}
	return nil
}

func decodeOnce(raw string, v any, validate func() error) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return err
	}
	if validate != nil {
		return validate()
	}
	return nil
}

// stripFences removes a markdown code fence wrapper, a common model
// artifact even under JSON mode.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
