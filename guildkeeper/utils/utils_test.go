package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "30s", want: 30 * time.Second},
		{in: "30m", want: 30 * time.Minute},
		{in: "12h", want: 12 * time.Hour},
		{in: "2d", want: 48 * time.Hour},
		{in: "0m", want: 0},
		{in: "", wantErr: true},
		{in: "10", wantErr: true},
		{in: "1w", wantErr: true},
		{in: "-5m", wantErr: true},
		{in: "1h30m", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDuration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "5m 10s", FormatDuration(5*time.Minute+10*time.Second))
	assert.Equal(t, "2d 3h", FormatDuration(51*time.Hour+20*time.Minute))
	assert.Equal(t, "1d 5m", FormatDuration(24*time.Hour+5*time.Minute))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "-12,345,678", FormatNumber(-12345678))
}

func TestProgressBar(t *testing.T) {
	empty := ProgressBar(0, 100)
	assert.Equal(t, strings.Repeat(config.ProgressEmpty, config.ProgressBarWidth), empty)

	half := ProgressBar(50, 100)
	assert.Equal(t, config.ProgressBarWidth/2, strings.Count(half, config.ProgressFilled))

	full := ProgressBar(150, 100)
	assert.Equal(t, strings.Repeat(config.ProgressFilled, config.ProgressBarWidth), full)
}

func TestBackgroundProcessManager(t *testing.T) {
	bpm := NewBackgroundProcessManager(context.Background())

	started := make(chan struct{})
	bpm.StartProcess("loop", "waits for cancel", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	require.Equal(t, 1, bpm.GetProcessCount())
	assert.Equal(t, "loop", bpm.ListProcesses()[0].Name)

	bpm.StartProcess("panics", "recovers", func(ctx context.Context) error {
		panic("boom")
	})

	require.NoError(t, bpm.Shutdown(time.Second))
	assert.Equal(t, 0, bpm.GetProcessCount())
}

func TestClassifyError(t *testing.T) {
	_, durationErr := ParseDuration("soon")
	tests := []struct {
		name        string
		err         error
		wantType    ErrorType
		wantMessage string
	}{
		{
			name:        "invalid multiplier shows cause",
			err:         fmt.Errorf("%w: factor must be positive, got 0", xp.ErrInvalidMultiplier),
			wantType:    UserError,
			wantMessage: "invalid multiplier: factor must be positive, got 0",
		},
		{name: "bad duration", err: durationErr, wantType: UserError, wantMessage: durationErr.Error()},
		{
			name:        "missing member",
			err:         fmt.Errorf("failed to unfreeze member 1: %w", xp.ErrMemberNotFound),
			wantType:    NotFoundError,
			wantMessage: "That member has no XP record yet.",
		},
		{name: "storage failure hides cause", err: errors.New("connection reset"), wantType: SystemError, wantMessage: RetryMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, ClassifyError(tt.err))
			assert.Equal(t, tt.wantMessage, ErrorMessage(tt.err))
		})
	}
}
