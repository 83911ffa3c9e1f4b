package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", value, err)
	}
	return parsed.UTC(), nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeChoices(choices []ChoiceEntry) (string, error) {
	if choices == nil {
		choices = []ChoiceEntry{}
	}
	data, err := json.Marshal(choices)
	if err != nil {
		return "", fmt.Errorf("encode choices: %w", err)
	}
	return string(data), nil
}

func decodeChoices(raw sql.NullString) ([]ChoiceEntry, error) {
	if !raw.Valid || raw.String == "" {
		return []ChoiceEntry{}, nil
	}
	var choices []ChoiceEntry
	if err := json.Unmarshal([]byte(raw.String), &choices); err != nil {
		return nil, fmt.Errorf("decode choices: %w", err)
	}
	if choices == nil {
		choices = []ChoiceEntry{}
	}
	return choices, nil
}
