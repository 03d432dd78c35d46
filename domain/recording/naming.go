package recording

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const nameTimeLayout = "20060102_150405"

// SanitizeName reduces a test identifier to ASCII letters, digits and
// underscores. Anything else becomes an underscore.
func SanitizeName(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "recording"
	}
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// namer hands out session names that are unique for the life of the process,
// even when the same identifier is started twice within one second.
type namer struct {
	mu   sync.Mutex
	seen map[string]int
}

func newNamer() *namer { return &namer{seen: make(map[string]int)} }

func (n *namer) next(id string, at time.Time) string {
	base := SanitizeName(id) + "_" + at.Format(nameTimeLayout)
	n.mu.Lock()
	defer n.mu.Unlock()
	c := n.seen[base]
	n.seen[base] = c + 1
	if c == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, c)
}
