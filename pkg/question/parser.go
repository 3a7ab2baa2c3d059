package question

import (
	"encoding/json"
	"fmt"
	"strings"
)

// unmarshalModelJSON parses a JSON document out of a model reply. Models
// routinely wrap JSON in markdown fences or lead with prose, so the parser
// cuts from the first brace to the last before decoding.
func unmarshalModelJSON(reply string, target interface{}) error {
	cleaned := strings.TrimSpace(reply)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in model reply")
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), target); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}
