package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/compagnon/datastore"
)

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2025, month, day, hour, 30, 0, 0, time.Local)
}

func TestResolveHourlyHalfOpen(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		hour int
		mood string
	}{
		{0, "sleepy"},
		{5, "sleepy"},
		{6, "waking_up"},
		{11, "hungry"},
		{13, "hungry"},
		{14, "productive"},
		{18, "chill"},
		{23, "chill"},
	}
	for _, tt := range tests {
		// 2025-03-12 is a wednesday with no special date
		got := rules.Resolve(at(time.March, 12, tt.hour))
		assert.Equal(t, tt.mood, got.Mood, "hour %d", tt.hour)
		assert.Empty(t, got.DayMood)
		assert.Empty(t, got.SpecialEvent)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	rules := Rules{Hourly: []HourRange{
		{Start: 8, End: 12, Mood: "first"},
		{Start: 10, End: 12, Mood: "second"},
	}}
	assert.Equal(t, "first", rules.Resolve(at(time.March, 12, 10)).Mood)
}

func TestResolveMergesAllTables(t *testing.T) {
	// 2025-10-31 is a friday
	got := DefaultRules().Resolve(at(time.October, 31, 20))
	assert.Equal(t, "chill", got.Mood)
	assert.Equal(t, "excited", got.DayMood)
	assert.Equal(t, "Halloween", got.SpecialEvent)
	assert.NotEmpty(t, got.SpecialPersonality)
	assert.Contains(t, got.String(), "Halloween")
}

func TestResolveEmptyRulesIsNeutral(t *testing.T) {
	got := Rules{}.Resolve(at(time.May, 5, 9))
	assert.Equal(t, Mood{Mood: "normal"}, got)
	assert.Equal(t, "humeur normal", got.String())
}

func TestLoadSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	backend := datastore.NewMemory()

	rules := Load(ctx, backend, nil)
	assert.Len(t, rules.Hourly, 5)

	_, err := backend.Load(ctx, DocumentName)
	require.NoError(t, err)

	again := Load(ctx, backend, nil)
	assert.Equal(t, rules, again)
}
