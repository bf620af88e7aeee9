package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
)

func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if n < 0 {
		str = str[1:] // Remove minus sign for processing
	}

	var result []byte
	for i := len(str) - 1; i >= 0; i-- {
		if (len(str)-i-1)%3 == 0 && i != len(str)-1 {
			result = append([]byte{','}, result...)
		}
		result = append([]byte{str[i]}, result...)
	}

	if n < 0 {
		return "-" + string(result)
	}
	return string(result)
}

// ProgressBar renders current/total as a fixed-width bar.
func ProgressBar(current, total int64) string {
	filled := 0
	if total > 0 && current > 0 {
		filled = int(current * config.ProgressBarWidth / total)
	}
	filled = min(filled, config.ProgressBarWidth)
	return strings.Repeat(config.ProgressFilled, filled) +
		strings.Repeat(config.ProgressEmpty, config.ProgressBarWidth-filled)
}

// FormatDuration prints the two largest non-zero units, e.g. "2d 3h", "5m 10s".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}

	units := []struct {
		size   time.Duration
		suffix string
	}{{24 * time.Hour, "d"}, {time.Hour, "h"}, {time.Minute, "m"}, {time.Second, "s"}}

	parts := make([]string, 0, 2)
	for _, unit := range units {
		if len(parts) == 2 {
			break
		}
		if n := d / unit.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, unit.suffix))
			d -= n * unit.size
		}
	}
	return strings.Join(parts, " ")
}
