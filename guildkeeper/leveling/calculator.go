package leveling

import "math"

// XPPerLevelUnit scales the quadratic curve: reaching level L takes L*L*XPPerLevelUnit XP.
const XPPerLevelUnit = 100

// Progress describes where an XP total sits inside its current level.
type Progress struct {
	InLevelXP int64
	XPToNext  int64
	LevelSpan int64
}

// LevelFor returns floor(sqrt(xp/100)). Negative totals are treated as zero.
func LevelFor(xp int64) int {
	if xp <= 0 {
		return 0
	}

	level := int64(math.Sqrt(float64(xp) / XPPerLevelUnit))
	// float rounding can land one off near perfect squares
	for level > 0 && ThresholdFor(int(level)) > xp {
		level--
	}
	for ThresholdFor(int(level+1)) <= xp {
		level++
	}
	return int(level)
}

// ThresholdFor returns the minimum XP needed for level.
func ThresholdFor(level int) int64 {
	if level <= 0 {
		return 0
	}
	l := int64(level)
	return l * l * XPPerLevelUnit
}

func ProgressFor(xp int64) Progress {
	if xp < 0 {
		xp = 0
	}
	level := LevelFor(xp)
	current := ThresholdFor(level)
	next := ThresholdFor(level + 1)

	return Progress{
		InLevelXP: xp - current,
		XPToNext:  next - xp,
		LevelSpan: next - current,
	}
}

// LevelsCrossed lists every level in (from, to].
func LevelsCrossed(from, to int) []int {
	if to <= from {
		return nil
	}
	levels := make([]int, 0, to-from)
	for l := from + 1; l <= to; l++ {
		levels = append(levels, l)
	}
	return levels
}
