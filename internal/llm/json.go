package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON extracts the JSON value from a model reply and unmarshals it
// into v. Markdown code fences and chatter around the value are ignored.
// Whichever of object or array opens first is taken.
func DecodeJSON(reply string, v interface{}) error {
	raw, err := ExtractJSON(reply)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("parse model JSON: %w (reply: %s)", err, truncate(raw, 120))
	}
	return nil
}

// ExtractJSON returns the outermost JSON object or array embedded in text
func ExtractJSON(text string) (string, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	objStart, objEnd := strings.Index(s, "{"), strings.LastIndex(s, "}")
	arrStart, arrEnd := strings.Index(s, "["), strings.LastIndex(s, "]")

	useArray := arrStart != -1 && arrEnd > arrStart && (objStart == -1 || arrStart < objStart)
	switch {
	case useArray:
		return s[arrStart : arrEnd+1], nil
	case objStart != -1 && objEnd > objStart:
		return s[objStart : objEnd+1], nil
	}
	return "", fmt.Errorf("no JSON found in model reply: %s", truncate(s, 120))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
