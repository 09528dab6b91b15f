package session

import "encoding/json"

func decodeJSONBestEffort(raw json.RawMessage, out any) error {
	return json.Unmarshal(raw, out)
}

func marshalBestEffort(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
