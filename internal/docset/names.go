package docset

import (
	"fmt"
	"time"
)

// UniqueName appends a clock suffix, "policy.pdf (14:05)", and falls back to
// a counter when that is taken too.
func UniqueName(name string, exists func(string) bool, now time.Time) string {
	stamp := now.Format("15:04")
	candidate := fmt.Sprintf("%s (%s)", name, stamp)
	for i := 2; exists(candidate); i++ {
		candidate = fmt.Sprintf("%s (%s #%d)", name, stamp, i)
	}
	return candidate
}
