package availability

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var farFuture = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func times(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Time)
	}
	return out
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "23:59", want: 1439},
		{in: " 7:05 ", want: 425},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "1200", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, FormatTimeOfDay(got)))
		})
	}
}

func mustParse(t *testing.T, v string) int {
	t.Helper()
	m, err := ParseTimeOfDay(v)
	require.NoError(t, err)
	return m
}

func TestGenerateSlots_LongServiceFitsBeforeClose(t *testing.T) {
	slots, err := GenerateSlots("09:00", "21:00", 180, nil, "2099-01-01", farFuture)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	assert.Equal(t, "09:00", slots[0].Time)
	assert.True(t, slots[0].Available)

	last := slots[len(slots)-1]
	assert.Equal(t, "18:00", last.Time)
	assert.True(t, last.Available)
	assert.Len(t, slots, 19)

	for _, s := range slots {
		assert.True(t, s.Available, s.Time)
	}
}

func TestGenerateSlots_BookedCellBlocksOverlappingStarts(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	slots, err := GenerateSlots("09:00", "21:00", 60, []string{"10:00"}, "2026-03-10", now)
	require.NoError(t, err)

	got := map[string]bool{}
	for _, s := range slots {
		got[s.Time] = s.Available
	}

	assert.True(t, got["09:00"])
	assert.False(t, got["09:30"], "09:30 + 60m covers the 10:00 cell")
	assert.False(t, got["10:00"], "direct match")
	assert.True(t, got["10:30"])
	assert.Equal(t, "20:00", slots[len(slots)-1].Time)
}

func TestGenerateSlots_DurationLongerThanWindow(t *testing.T) {
	slots, err := GenerateSlots("09:00", "10:00", 90, nil, "", farFuture)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlots_NonMultipleDuration(t *testing.T) {
	slots, err := GenerateSlots("09:00", "11:00", 45, []string{"10:30"}, "", farFuture)
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, times(slots))
	assert.True(t, slots[0].Available)
	assert.True(t, slots[1].Available, "09:30 + 45m touches cells 09:30 and 10:00 only")
	assert.False(t, slots[2].Available, "10:00 + 45m touches the 10:30 cell")
}

func TestGenerateSlots_TodayFiltersPastStarts(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 10, 0, 0, time.UTC)
	slots, err := GenerateSlots("09:00", "12:00", 30, nil, "2026-05-04", now)
	require.NoError(t, err)

	want := map[string]bool{
		"09:00": false,
		"09:30": false,
		"10:00": false,
		"10:30": true,
		"11:00": true,
		"11:30": true,
	}
	require.Len(t, slots, len(want))
	for _, s := range slots {
		assert.Equal(t, want[s.Time], s.Available, s.Time)
	}
}

func TestGenerateSlots_TodayOnBoundaryKeepsCurrentSlot(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	slots, err := GenerateSlots("09:00", "12:00", 30, nil, "2026-05-04", now)
	require.NoError(t, err)

	s, ok := FindSlot(slots, "10:30")
	require.True(t, ok)
	assert.True(t, s.Available)

	s, ok = FindSlot(slots, "10:00")
	require.True(t, ok)
	assert.False(t, s.Available)
}

func TestGenerateSlots_OtherDateIgnoresClock(t *testing.T) {
	now := time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC)
	for _, date := range []string{"2026-05-05", "2026-05-03", ""} {
		slots, err := GenerateSlots("09:00", "12:00", 30, nil, date, now)
		require.NoError(t, err)
		for _, s := range slots {
			assert.True(t, s.Available, "date %q slot %s", date, s.Time)
		}
	}
}

func TestGenerateSlots_DuplicateBookedTimes(t *testing.T) {
	a, err := GenerateSlots("09:00", "12:00", 60, []string{"10:00", "10:00"}, "", farFuture)
	require.NoError(t, err)
	b, err := GenerateSlots("09:00", "12:00", 60, []string{"10:00"}, "", farFuture)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestGenerateSlots_MalformedInput(t *testing.T) {
	_, err := GenerateSlots("9am", "21:00", 30, nil, "", farFuture)
	assert.Error(t, err)

	_, err = GenerateSlots("09:00", "21:00", 0, nil, "", farFuture)
	assert.Error(t, err)

	_, err = GenerateSlots("09:00", "21:00", 30, []string{"noon"}, "", farFuture)
	assert.Error(t, err)
}

func TestGenerateSlots_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	durations := []int{15, 30, 45, 60, 90, 120, 180}

	for i := 0; i < 200; i++ {
		open := rng.Intn(20) * SlotGranularity
		closeAt := open + SlotGranularity + rng.Intn(30)*SlotGranularity
		if closeAt > 23*60+30 {
			closeAt = 23*60 + 30
		}
		duration := durations[rng.Intn(len(durations))]

		var booked []string
		bookedSet := map[int]bool{}
		for j := 0; j < rng.Intn(6); j++ {
			m := open + rng.Intn(20)*SlotGranularity
			if m >= 24*60 {
				continue
			}
			booked = append(booked, FormatTimeOfDay(m))
			bookedSet[m] = true
		}

		slots, err := GenerateSlots(FormatTimeOfDay(open), FormatTimeOfDay(closeAt), duration, booked, "", farFuture)
		require.NoError(t, err)

		shuffled := append([]string(nil), booked...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		again, err := GenerateSlots(FormatTimeOfDay(open), FormatTimeOfDay(closeAt), duration, shuffled, "", farFuture)
		require.NoError(t, err)
		assert.Equal(t, slots, again, "order of booked times must not matter")

		prev := -1
		for _, s := range slots {
			assert.GreaterOrEqual(t, s.Start, open)
			assert.LessOrEqual(t, s.Start+duration, closeAt)
			assert.Greater(t, s.Start, prev)
			assert.Zero(t, (s.Start-open)%SlotGranularity)
			prev = s.Start

			conflict := false
			for _, k := range OccupiedCells(s.Start, duration) {
				if bookedSet[k] {
					conflict = true
				}
			}
			assert.Equal(t, !conflict, s.Available, "slot %s", s.Time)
		}
	}
}

func TestOccupiedCells(t *testing.T) {
	assert.Equal(t, []int{600}, OccupiedCells(600, 30))
	assert.Equal(t, []int{600, 630}, OccupiedCells(600, 45))
	assert.Equal(t, []int{600, 630, 660}, OccupiedCells(600, 90))
	assert.Nil(t, OccupiedCells(600, 0))
}

func TestFindSlot(t *testing.T) {
	slots, err := GenerateSlots("09:00", "10:00", 30, nil, "", farFuture)
	require.NoError(t, err)

	_, ok := FindSlot(slots, "09:30")
	assert.True(t, ok)
	_, ok = FindSlot(slots, "09:15")
	assert.False(t, ok)
	_, ok = FindSlot(slots, "bad")
	assert.False(t, ok)
}
