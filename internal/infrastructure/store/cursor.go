package store

import (
	"encoding/base64"
	"encoding/json"
)

// position is the resume point encoded into a pagination cursor. The
// encoding is an implementation detail; callers treat cursors as opaque.
type position struct {
	PK string `json:"pk"`
	SK string `json:"sk"`
}

func encodeCursor(pk, sk string) string {
	raw, err := json.Marshal(position{PK: pk, SK: sk})
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// decodeCursor parses an opaque cursor. Malformed input is treated as
// no cursor, so a corrupted token restarts the listing from the top
// instead of failing the request.
func decodeCursor(token string) *position {
	if token == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil
	}
	var pos position
	if err := json.Unmarshal(raw, &pos); err != nil {
		return nil
	}
	if pos.PK == "" && pos.SK == "" {
		return nil
	}
	return &pos
}
