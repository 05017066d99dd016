package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitForRun(t *testing.T) {
	t.Run("finished run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.True(t, waitForRun(ctx, time.Second))
	})

	t.Run("timeout elapses", func(t *testing.T) {
		assert.False(t, waitForRun(context.Background(), 5*time.Millisecond))
	})

	t.Run("zero timeout waits for the run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		start := time.Now()
		assert.True(t, waitForRun(ctx, 0))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})
}
