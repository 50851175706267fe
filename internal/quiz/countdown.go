package quiz

import (
	"context"
	"fmt"
	"time"
)

// runCountdown ticks s once per interval. It exits when ctx is cancelled,
// which the session does whenever it leaves active.
func runCountdown(ctx context.Context, s *Session, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Tick() {
				return
			}
		}
	}
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
