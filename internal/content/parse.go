package content

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n\\s*```")

// parseJSON decodes a model reply into v. Models frequently wrap JSON
// in a markdown fence despite the prompt, so the fenced block is tried
// first, then the raw reply.
func parseJSON(reply string, v any) error {
	reply = strings.TrimSpace(reply)
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		reply = strings.TrimSpace(m[1])
	}
	if err := json.Unmarshal([]byte(reply), v); err != nil {
		return fmt.Errorf("malformed model reply: %w", err)
	}
	return nil
}
