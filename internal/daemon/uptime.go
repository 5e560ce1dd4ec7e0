package daemon

import (
	"fmt"
	"time"
)

// FormatUptime renders d with two decimals in seconds up to a minute, minutes
// up to an hour and hours beyond, e.g. "2.50 minute(s)".
func FormatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	switch {
	case secs <= 60:
		return fmt.Sprintf("%.2f second(s)", d.Seconds())
	case secs <= 3600:
		return fmt.Sprintf("%.2f minute(s)", float64(secs)/60)
	default:
		return fmt.Sprintf("%.2f hour(s)", float64(secs)/3600)
	}
}
