package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	errWrite := errors.New("not primary")

	tests := []struct {
		name      string
		failures  int
		wantCalls int
		wantWaits []time.Duration
		wantErr   error
	}{
		{name: "first attempt succeeds", failures: 0, wantCalls: 1},
		{name: "succeeds after retry", failures: 2, wantCalls: 3,
			wantWaits: []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}},
		{name: "no wait after last attempt", failures: 5, wantCalls: 3,
			wantWaits: []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, wantErr: errWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				calls int
				waits []time.Duration
			)
			wait := func(_ context.Context, d time.Duration) error {
				waits = append(waits, d)
				return nil
			}
			op := func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return errWrite
				}
				return nil
			}

			err := withRetry(context.Background(), writeAttempts, 100*time.Millisecond, wait, op)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantWaits, waits)
		})
	}
}

func TestWithRetry_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := withRetry(ctx, writeAttempts, time.Hour, waitContext, func(context.Context) error {
		calls++
		cancel()
		return errors.New("timeout")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
