package quiz

import "fmt"

// Clock renders seconds as mm:ss. Hours wrap, matching the countdown label.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", (seconds%3600)/60, seconds%60)
}

// HitsLabel renders the found/total counter, e.g. "03/50".
func HitsLabel(found, total int) string {
	return fmt.Sprintf("%02d/%02d", found, total)
}
