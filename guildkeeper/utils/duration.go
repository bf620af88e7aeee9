package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	durationPattern    = regexp.MustCompile(`^(\d+)([smhd])$`)
	ErrInvalidDuration = errors.New("invalid duration")
)

// ParseDuration reads admin command durations such as "30m" or "2d".
func ParseDuration(s string) (time.Duration, error) {
	match := durationPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, fmt.Errorf("%w %q: use a number followed by s, m, h or d", ErrInvalidDuration, s)
	}

	n, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidDuration, s, err)
	}

	var unit time.Duration
	switch match[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	return time.Duration(n) * unit, nil
}
