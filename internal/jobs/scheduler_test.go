package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("every now and then", "UTC", noop)
	assert.Error(t, err)
}

func TestNewScheduler_InvalidTimezone(t *testing.T) {
	_, err := NewScheduler("@hourly", "Mars/Olympus", noop)
	assert.Error(t, err)
}

func TestScheduler_Next(t *testing.T) {
	s, err := NewScheduler("0 3 * * *", "UTC", noop)
	require.NoError(t, err)

	from := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC), s.Next(from))
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	s, err := NewScheduler("@hourly", "", noop)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
