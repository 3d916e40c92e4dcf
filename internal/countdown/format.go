package countdown

import (
	"fmt"
	"time"
)

// FormatTime renders d as M:SS, truncating to whole seconds.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
