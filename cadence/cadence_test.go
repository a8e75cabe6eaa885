// ABOUTME: Tests for the stage catalog and due-date calculator
// ABOUTME: Covers resolution order, sentinel handling, jitter bounds, and floors
package cadence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/synchro/models"
)

// seqSource replays fixed draws, wrapping each into [0, n).
type seqSource struct {
	draws []int
	i     int
}

func (s *seqSource) IntN(n int) int {
	v := s.draws[s.i%len(s.draws)]
	s.i++
	if v < 0 {
		v = 0
	}
	if v >= n {
		v = n - 1
	}
	return v
}

// lowest always draws 0 (most negative jitter); highest always draws n-1.
type lowest struct{}

func (lowest) IntN(int) int { return 0 }

type highest struct{}

func (highest) IntN(n int) int { return n - 1 }

func TestDefaultTable(t *testing.T) {
	c := NewCatalog()
	want := map[string]int{
		"Weekly":    7,
		"Bi-Weekly": 14,
		"Monthly":   30,
		"Quarterly": 90,
		"Annually":  365,
	}
	for stage, days := range want {
		p := c.Resolve(stage, nil)
		assert.Equal(t, days, p.IntervalDays, stage)
		assert.Equal(t, SourceDefault, p.Source, stage)
		assert.True(t, p.Randomize, stage)
	}

	daily := c.Resolve("Daily", nil)
	assert.Equal(t, SourceBaseline, daily.Source)

	ext := NewCatalog(WithExtendedStages())
	assert.Equal(t, 1, ext.Resolve("Daily", nil).IntervalDays)
	assert.Equal(t, 7, ext.Resolve("Weekly", nil).IntervalDays)
}

func TestResolveOrder(t *testing.T) {
	c := NewCatalog()
	custom := []models.PipelineStage{
		{Name: "Monthly", IntervalDays: 21, Randomize: false},
		{Name: "Tennis Season", IntervalDays: 10, Randomize: true, RandomVariation: 2},
		{Name: models.StageNew, IntervalDays: 5},
	}

	p := c.Resolve("Monthly", custom)
	assert.Equal(t, 21, p.IntervalDays)
	assert.False(t, p.Randomize)
	assert.Equal(t, SourceCustom, p.Source)

	p = c.Resolve("Tennis Season", custom)
	assert.Equal(t, 10, p.IntervalDays)
	assert.Equal(t, 2, p.RandomVariation)

	p = c.Resolve("Weekly", custom)
	assert.Equal(t, 7, p.IntervalDays)
	assert.Equal(t, SourceDefault, p.Source)

	p = c.Resolve("Whenever", custom)
	assert.Equal(t, DefaultBaselineDays, p.IntervalDays)
	assert.False(t, p.Randomize)
	assert.Equal(t, SourceBaseline, p.Source)

	p = NewCatalog(WithBaseline(45)).Resolve("Whenever", nil)
	assert.Equal(t, 45, p.IntervalDays)
}

func TestSentinelCannotBeOverridden(t *testing.T) {
	c := NewCatalog()
	custom := []models.PipelineStage{{Name: models.StageNew, IntervalDays: 12, Randomize: true}}

	p := c.Resolve(models.StageNew, custom)
	assert.Equal(t, 0, p.IntervalDays)
	assert.False(t, p.Scheduled())
	assert.Equal(t, SourceSentinel, p.Source)

	calc := NewCalculator(nil, nil)
	now := time.Now()
	assert.Nil(t, calc.Next(&now, now, p))
}

func TestStagesMergesCustomRows(t *testing.T) {
	c := NewCatalog()
	stages := c.Stages([]models.PipelineStage{
		{Name: "Weekly", IntervalDays: 6},
		{Name: "Book Club", IntervalDays: 28, Randomize: true},
		{Name: models.StageNew, IntervalDays: 3},
	})

	require.Len(t, stages, 6)
	assert.Equal(t, "Weekly", stages[0].Name)
	assert.Equal(t, 6, stages[0].IntervalDays)
	assert.Equal(t, "Book Club", stages[5].Name)
	assert.True(t, c.IsDefault("Monthly"))
	assert.True(t, c.IsDefault(models.StageNew))
	assert.False(t, c.IsDefault("Book Club"))
}

func TestUniformJitterBounds(t *testing.T) {
	anchor := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Policy{Stage: "Monthly", IntervalDays: 30, Randomize: true, Source: SourceDefault}

	low := NewCalculator(Uniform{MaxDays: 5}, lowest{}).Next(&anchor, anchor, p)
	high := NewCalculator(Uniform{MaxDays: 5}, highest{}).Next(&anchor, anchor, p)
	assert.Equal(t, anchor.AddDate(0, 0, 25), *low)
	assert.Equal(t, anchor.AddDate(0, 0, 35), *high)

	calc := NewCalculator(Uniform{MaxDays: 5}, nil)
	for i := 0; i < 500; i++ {
		due := calc.Next(&anchor, anchor, p)
		days := int(due.Sub(anchor).Hours() / 24)
		assert.GreaterOrEqual(t, days, 25)
		assert.LessOrEqual(t, days, 35)
	}
}

func TestUniformNeverPrecedesAnchor(t *testing.T) {
	anchor := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	p := Policy{Stage: "Daily", IntervalDays: 1, Randomize: true, Source: SourceDefault}

	due := NewCalculator(Uniform{MaxDays: 5}, lowest{}).Next(&anchor, anchor, p)
	assert.Equal(t, anchor, *due)
}

func TestProportionalBuckets(t *testing.T) {
	anchor := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		interval int
		lo, hi   int
	}{
		{1, 1, 1},
		{7, 7, 7},
		{8, 7, 9},
		{14, 13, 15},
		{30, 29, 31},
		{31, 28, 34},
		{90, 87, 93},
		{365, 362, 368},
	}

	for _, tt := range tests {
		p := Policy{Stage: "x", IntervalDays: tt.interval, Randomize: true, Source: SourceDefault}
		low := NewCalculator(Proportional{}, lowest{}).Next(&anchor, anchor, p)
		high := NewCalculator(Proportional{}, highest{}).Next(&anchor, anchor, p)
		assert.Equal(t, anchor.AddDate(0, 0, tt.lo), *low, "interval %d low", tt.interval)
		assert.Equal(t, anchor.AddDate(0, 0, tt.hi), *high, "interval %d high", tt.interval)
	}
}

func TestProportionalFloor(t *testing.T) {
	anchor := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p := Policy{Stage: "Custom", IntervalDays: 2, Randomize: true, RandomVariation: 4, Source: SourceCustom}

	calc := NewCalculator(Proportional{}, nil)
	for i := 0; i < 500; i++ {
		due := calc.Next(&anchor, anchor, p)
		assert.False(t, due.Before(anchor.AddDate(0, 0, 1)), "due %v before anchor+1d", due)
	}

	zero := Policy{Stage: "Broken", IntervalDays: 0, Source: SourceCustom}
	due := calc.Next(&anchor, anchor, zero)
	assert.Equal(t, anchor.AddDate(0, 0, 1), *due)
}

func TestRandomizeDisabled(t *testing.T) {
	anchor := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p := Policy{Stage: "Whenever", IntervalDays: 30, Randomize: false, Source: SourceBaseline}

	for _, s := range []Strategy{Uniform{MaxDays: 5}, Proportional{}} {
		due := NewCalculator(s, highest{}).Next(&anchor, anchor, p)
		assert.Equal(t, anchor.AddDate(0, 0, 30), *due, s.Name())
	}
}

func TestCustomVariationOverridesStrategy(t *testing.T) {
	p := Policy{Stage: "Tennis", IntervalDays: 10, Randomize: true, RandomVariation: 2, Source: SourceCustom}
	calc := NewCalculator(Uniform{MaxDays: 5}, &seqSource{draws: []int{0, 4}})
	assert.Equal(t, 8, calc.Days(p))
	assert.Equal(t, 12, calc.Days(p))
}

func TestNilAnchorUsesNow(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	p := Policy{Stage: "Weekly", IntervalDays: 7, Randomize: true, Source: SourceDefault}

	due := NewCalculator(Proportional{}, nil).Next(nil, now, p)
	require.NotNil(t, due)
	assert.Equal(t, now.AddDate(0, 0, 7), *due)
}

func TestStrategyByName(t *testing.T) {
	s, err := StrategyByName("uniform", 0)
	require.NoError(t, err)
	assert.Equal(t, Uniform{MaxDays: DefaultUniformJitterDays}, s)

	s, err = StrategyByName("", 0)
	require.NoError(t, err)
	assert.Equal(t, StrategyProportional, s.Name())

	_, err = StrategyByName("gaussian", 0)
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2025-03-01",
		"2025-03-01T00:00:00",
		"2025-03-01T00:00:00Z",
		"2025-03-01T00:00:00.000000",
		"2025-03-01T01:00:00+01:00",
		" 2025-03-01 00:00:00 ",
	} {
		got, ok := ParseTime(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), "%s parsed as %v", s, got)
	}

	_, ok := ParseTime("last tuesday")
	assert.False(t, ok)
}

func TestAnchorOrNow(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, now, AnchorOrNow("", now))
	assert.Equal(t, now, AnchorOrNow("not a date", now))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), AnchorOrNow("2025-03-01", now))
}
