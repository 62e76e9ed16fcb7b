package app

import (
	"encoding/json"
	"fmt"
)

func printJSON(v interface{}) error {
	enc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}

func parseParameterFlags(raw []string) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(map[string]interface{}, len(raw))
	for _, kv := range raw {
		key, value, ok := splitKV(kv)
		if !ok {
			return nil, fmt.Errorf("invalid --parameter %q: expected key=value", kv)
		}
		params[key] = value
	}
	return params, nil
}

func splitKV(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
