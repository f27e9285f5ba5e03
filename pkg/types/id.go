// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
)

// PaperID is the collaborator's opaque paper identifier. It arrives as a
// JSON string or a JSON number; both decode to the same text form and it
// always encodes back as a string.
type PaperID string

// UnmarshalJSON accepts a string, a number, or null.
func (id *PaperID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PaperID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("paper id must be a string or number: %w", err)
	}
	*id = PaperID(n.String())
	return nil
}
