package config

import "time"

// Application-wide constants organized by domain

// UI and Display Constants
const (
	// Pagination
	LeaderboardPageSize = 10
	DefaultLeaderboard  = 10
	MaxLeaderboard      = 100

	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00
	LevelUpColor = 0xFFD700

	// Progress bar
	ProgressBarWidth = 12
	ProgressFilled   = "▰"
	ProgressEmpty    = "▱"
)

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout     = 10 * time.Second
	BatchQueryTimeout       = 30 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	StartupTimeout          = 30 * time.Second
	ShutdownTimeout         = 15 * time.Second

	// Command logging
	SlowCommandThreshold = 2 * time.Second
)

// Activity Constants
const (
	// Messages shorter than this never earn XP
	MinMessageLength = 3
	CommandPrefix    = "/"

	// Voice
	VoiceTickInterval = time.Minute

	// Channels remembered for reward announcements
	ActiveChannelCacheSize = 5000
)

// Monitoring intervals
const (
	MetricsSampleWindow = 200 * time.Millisecond
	CleanupInterval     = 5 * time.Minute
)
