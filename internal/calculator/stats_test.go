package calculator

import (
	"math/rand"
	"testing"
	"time"

	"GroceryLens/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(date, place, price string) model.PriceRecord {
	d, err := model.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return model.PriceRecord{Date: d, Place: place, PricePerUnit: decimal.RequireFromString(price)}
}

func TestComputeHistoryStats_TwoRecords(t *testing.T) {
	history := []model.PriceRecord{
		rec("2024-01-01", "A", "2.0"),
		rec("2024-01-05", "A", "3.0"),
	}

	stats, err := ComputeHistoryStats(history)
	require.NoError(t, err)

	assert.Equal(t, "2.50", stats.Average.StringFixed(2))
	assert.Equal(t, "2.00", stats.Min.StringFixed(2))
	assert.Equal(t, "3.00", stats.Max.StringFixed(2))
	assert.Equal(t, model.TrendIncreasing, stats.Trend)
	assert.Equal(t, 2, stats.Count)
}

func TestComputeHistoryStats_Empty(t *testing.T) {
	_, err := ComputeHistoryStats(nil)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestCalculateTrend_OnlyEndpointsCount(t *testing.T) {
	prices := []decimal.Decimal{
		decimal.RequireFromString("2"),
		decimal.RequireFromString("9"),
		decimal.RequireFromString("2"),
	}
	trend, err := CalculateTrend(prices)
	require.NoError(t, err)
	assert.Equal(t, model.TrendDecreasing, trend, "equal endpoints are not an increase")

	trend, err = CalculateTrend(prices[:2])
	require.NoError(t, err)
	assert.Equal(t, model.TrendIncreasing, trend)

	trend, err = CalculateTrend(prices[:1])
	require.NoError(t, err)
	assert.Equal(t, model.TrendDecreasing, trend)
}

func TestComputeHistoryStats_AverageWithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(40)
		records := make([]model.PriceRecord, n)
		for j := range records {
			cents := rng.Int63n(100000)
			records[j] = model.PriceRecord{
				Place:        "P",
				PricePerUnit: decimal.New(cents, -2),
			}
		}

		stats, err := ComputeHistoryStats(records)
		require.NoError(t, err)
		assert.True(t, stats.Average.GreaterThanOrEqual(stats.Min), "avg %s < min %s", stats.Average, stats.Min)
		assert.True(t, stats.Average.LessThanOrEqual(stats.Max), "avg %s > max %s", stats.Average, stats.Max)
	}
}

func TestGroupByPlace_KeepsOrder(t *testing.T) {
	history := []model.PriceRecord{
		rec("2024-01-01", "B", "1"),
		rec("2024-01-02", "A", "2"),
		rec("2024-01-03", "B", "3"),
		rec("2024-01-04", "C", "4"),
		rec("2024-01-05", "A", "5"),
	}

	groups := GroupByPlace(history)
	require.Len(t, groups, 3)
	assert.Equal(t, "B", groups[0].Place)
	assert.Equal(t, "A", groups[1].Place)
	assert.Equal(t, "C", groups[2].Place)
	assert.Equal(t, []model.PriceRecord{history[0], history[2]}, groups[0].Records)
	assert.Equal(t, []model.PriceRecord{history[1], history[4]}, groups[1].Records)
}

func TestGroupByPlace_IsPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	places := []string{"A", "B", "C", "D"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		n := rng.Intn(30)
		records := make([]model.PriceRecord, n)
		for j := range records {
			records[j] = model.PriceRecord{
				Date:         model.Date{Time: base.AddDate(0, 0, j)},
				Place:        places[rng.Intn(len(places))],
				PricePerUnit: decimal.New(rng.Int63n(1000), -2),
			}
		}

		groups := GroupByPlace(records)

		seen := make(map[string]bool)
		total := 0
		for _, g := range groups {
			assert.False(t, seen[g.Place], "place %s grouped twice", g.Place)
			seen[g.Place] = true
			for _, r := range g.Records {
				assert.Equal(t, g.Place, r.Place)
			}
			total += len(g.Records)
		}
		assert.Equal(t, n, total)

		// Each record appears exactly once: dates are unique per index.
		count := make(map[time.Time]int)
		for _, g := range groups {
			for _, r := range g.Records {
				count[r.Date.Time]++
			}
		}
		for _, r := range records {
			assert.Equal(t, 1, count[r.Date.Time])
		}
	}
}
