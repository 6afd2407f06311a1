package game

import (
	"fmt"
	"hash/fnv"
	"strings"
)

var playerColors = []string{
	"#ff6b6b", "#4ecdc4", "#45b7d1", "#96ceb4",
	"#ffeaa7", "#dfe6e9", "#fd79a8", "#00b894",
	"#6c5ce7", "#fdcb6e", "#e17055", "#00cec9",
}

// NormalizeHexColor canonicalizes a 3- or 6-digit hex color, with or
// without a leading '#', case-insensitively, to lowercase "#rrggbb".
// Anything else is rejected.
func NormalizeHexColor(raw string) (string, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	s = strings.ToLower(s)

	switch len(s) {
	case 3:
		var b strings.Builder
		for i := 0; i < 3; i++ {
			if !isHexDigit(s[i]) {
				return "", fmt.Errorf("invalid color %q", raw)
			}
			b.WriteByte(s[i])
			b.WriteByte(s[i])
		}
		return "#" + b.String(), nil
	case 6:
		for i := 0; i < 6; i++ {
			if !isHexDigit(s[i]) {
				return "", fmt.Errorf("invalid color %q", raw)
			}
		}
		return "#" + s, nil
	default:
		return "", fmt.Errorf("invalid color %q", raw)
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

// defaultColorFor derives a stable palette color from a user id, used
// until the user picks one or a stored color is hydrated.
func defaultColorFor(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return playerColors[h.Sum32()%uint32(len(playerColors))]
}
