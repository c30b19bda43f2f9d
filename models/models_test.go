package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-system/internal/status"
)

func mustInterval(t *testing.T, start, end string) Interval {
	t.Helper()
	s, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	e, err := time.Parse(time.RFC3339, end)
	require.NoError(t, err)
	return Interval{Starts: s, Ends: e}
}

func TestInterval_Validate(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		iv      Interval
		wantErr error
	}{
		{"valid", Interval{Starts: base, Ends: base.Add(time.Hour)}, nil},
		{"zero length", Interval{Starts: base, Ends: base}, status.ErrInvalidInterval},
		{"inverted", Interval{Starts: base.Add(time.Hour), Ends: base}, status.ErrInvalidInterval},
		{"missing start", Interval{Ends: base}, status.ErrInvalidInterval},
		{"missing end", Interval{Starts: base}, status.ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.iv.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInterval_Overlaps(t *testing.T) {
	a := mustInterval(t, "2026-03-01T10:00:00Z", "2026-03-01T11:00:00Z")

	tests := []struct {
		name string
		b    Interval
		want bool
	}{
		{"identical", mustInterval(t, "2026-03-01T10:00:00Z", "2026-03-01T11:00:00Z"), true},
		{"partial overlap", mustInterval(t, "2026-03-01T10:30:00Z", "2026-03-01T11:30:00Z"), true},
		{"contained", mustInterval(t, "2026-03-01T10:15:00Z", "2026-03-01T10:45:00Z"), true},
		{"covering", mustInterval(t, "2026-03-01T09:00:00Z", "2026-03-01T12:00:00Z"), true},
		{"adjacent after", mustInterval(t, "2026-03-01T11:00:00Z", "2026-03-01T12:00:00Z"), false},
		{"adjacent before", mustInterval(t, "2026-03-01T09:00:00Z", "2026-03-01T10:00:00Z"), false},
		{"disjoint", mustInterval(t, "2026-03-01T13:00:00Z", "2026-03-01T14:00:00Z"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(a), "overlap must be symmetric")
		})
	}
}

func TestInterval_Contains(t *testing.T) {
	iv := mustInterval(t, "2026-03-01T10:00:00Z", "2026-03-01T11:00:00Z")

	assert.True(t, iv.Contains(iv.Starts), "start is inside a half-open interval")
	assert.True(t, iv.Contains(iv.Starts.Add(30*time.Minute)))
	assert.False(t, iv.Contains(iv.Ends), "end is outside a half-open interval")
	assert.False(t, iv.Contains(iv.Starts.Add(-time.Second)))
}

func TestCanTransition(t *testing.T) {
	all := []BookingStatus{BookingPending, BookingConfirmed, BookingActive, BookingCompleted, BookingCancelled}

	allowed := map[BookingStatus][]BookingStatus{
		BookingPending:   {BookingConfirmed, BookingCancelled},
		BookingConfirmed: {BookingActive, BookingCancelled},
		BookingActive:    {BookingCompleted},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestBookingStatus_Terminal(t *testing.T) {
	assert.False(t, BookingPending.Terminal())
	assert.False(t, BookingConfirmed.Terminal())
	assert.False(t, BookingActive.Terminal())
	assert.True(t, BookingCompleted.Terminal())
	assert.True(t, BookingCancelled.Terminal())

	for _, s := range NonTerminalStatuses {
		assert.False(t, s.Terminal())
	}
}

func TestInterval_Hours(t *testing.T) {
	iv := mustInterval(t, "2026-03-01T10:00:00Z", "2026-03-01T12:30:00Z")
	assert.InDelta(t, 2.5, iv.Hours(), 1e-9)
}
