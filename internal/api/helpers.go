package api

import (
	"encoding/json"
	"strings"
)

func bindJSON(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}

func upperTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
