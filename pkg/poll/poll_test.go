package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntil(t *testing.T) {
	tests := []struct {
		name         string
		settings     Settings
		readyAt      int
		wantErr      error
		wantAttempts int
	}{
		{name: "ready immediately", settings: Settings{Interval: time.Millisecond, MaxAttempts: 3}, readyAt: 1, wantAttempts: 1},
		{name: "ready on last attempt", settings: Settings{Interval: time.Millisecond, MaxAttempts: 3}, readyAt: 3, wantAttempts: 3},
		{name: "never ready", settings: Settings{Interval: time.Millisecond, MaxAttempts: 4}, readyAt: 0, wantErr: ErrExhausted, wantAttempts: 4},
		{name: "zero attempts still checks once", settings: Settings{}, readyAt: 0, wantErr: ErrExhausted, wantAttempts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := Until(context.Background(), tt.settings, func(context.Context) (int, bool) {
				calls++
				return calls * 10, calls == tt.readyAt
			})

			assert.Equal(t, tt.wantAttempts, calls)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.readyAt*10, got)
		})
	}
}

func TestUntilStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Until(ctx, Settings{Interval: time.Hour, MaxAttempts: 5}, func(context.Context) (struct{}, bool) {
		calls++
		cancel()
		return struct{}{}, false
	})

	require.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestWithin(t *testing.T) {
	s := Within(60*time.Second, 5*time.Second)
	assert.Equal(t, 12, s.MaxAttempts)
	assert.Equal(t, 5*time.Second, s.Interval)
	assert.Equal(t, 55*time.Second, s.Budget())

	assert.Equal(t, 1, Within(time.Second, 5*time.Second).MaxAttempts)
	assert.Equal(t, 1, Within(time.Second, 0).MaxAttempts)
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), 0))
}
