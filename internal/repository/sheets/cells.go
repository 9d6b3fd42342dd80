package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// cell renders one value as text. Unformatted numeric cells arrive as
// float64 and are printed without exponent so ear tags keep their digits.
func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case string:
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

func parseInt(value string) (int, error) {
	if value == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseFloat(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "yes", "y", "1", "x", "oui":
		return true
	}
	return false
}
