package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	daily      *Daily
	rng        *Range
	err        error
	lastStart  time.Time
	lastEnd    time.Time
	lastLimit  int
	rangeCalls int
}

func (m *mockSource) DailyTotals(_ context.Context, _ time.Time) (*Daily, error) {
	return m.daily, m.err
}

func (m *mockSource) RangeTotals(_ context.Context, start, end time.Time, limit int) (*Range, error) {
	m.rangeCalls++
	m.lastStart, m.lastEnd, m.lastLimit = start, end, limit
	return m.rng, m.err
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDailyReport_EmptyDayIsNotAnError(t *testing.T) {
	src := &mockSource{daily: &Daily{TotalRevenue: decimal.Zero}}
	agg := NewAggregator(src)

	d, err := agg.DailyReport(context.Background(), day("2026-08-01"))
	require.NoError(t, err)

	assert.True(t, d.TotalRevenue.IsZero())
	assert.Zero(t, d.TotalTransactions)
	assert.Empty(t, d.ServicesSold)
	assert.Empty(t, d.BarberPerformance)
}

func TestRangeReport_StartAfterEnd(t *testing.T) {
	src := &mockSource{}
	agg := NewAggregator(src)

	_, err := agg.RangeReport(context.Background(), day("2026-08-10"), day("2026-08-01"))

	require.ErrorIs(t, err, ErrInvalidRange)
	assert.Zero(t, src.rangeCalls, "invalid range must not query")
}

func TestRangeReport_SingleDayRangeAllowed(t *testing.T) {
	src := &mockSource{rng: &Range{TotalRevenue: decimal.RequireFromString("70.20"), TotalTransactions: 1}}
	agg := NewAggregator(src)

	r, err := agg.RangeReport(context.Background(), day("2026-08-01"), day("2026-08-01"))
	require.NoError(t, err)

	assert.Equal(t, 1, r.TotalTransactions)
	assert.Equal(t, day("2026-08-01"), src.lastStart)
	assert.Equal(t, day("2026-08-01"), src.lastEnd)
}

func TestRangeReport_PassesTopServicesLimit(t *testing.T) {
	src := &mockSource{rng: &Range{}}
	agg := NewAggregator(src)

	_, err := agg.RangeReport(context.Background(), day("2026-08-01"), day("2026-08-31"))
	require.NoError(t, err)

	assert.Equal(t, TopServicesLimit, src.lastLimit)
}
