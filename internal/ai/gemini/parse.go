package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// decodeJSON extracts the JSON object from a model response and decodes it
// into target. Models are sloppy with types ("80" for 80), so decoding is
// weakly typed.
func decodeJSON(raw string, target any) error {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return fmt.Errorf("parse gemini response: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("create response decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if !strings.HasPrefix(raw, "{") {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			raw = raw[start : end+1]
		}
	}
	return raw
}

func buildPrompt(template string, values map[string]string) string {
	prompt := template
	for placeholder, value := range values {
		prompt = strings.ReplaceAll(prompt, placeholder, value)
	}
	return strings.TrimSpace(prompt)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit])
}
