package costing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fulfillment-ws/internal/model"
)

func planOf(entries ...model.LotConsumption) Plan {
	return Plan(entries)
}

func drawFrom(n int, lotNumber string, qty float64) model.LotConsumption {
	return model.LotConsumption{
		LotID:        lotID(n),
		LotNumber:    lotNumber,
		QuantityUsed: dec(qty),
		UnitCost:     dec(10),
		TotalCost:    dec(qty * 10),
	}
}

func TestDetectVariance(t *testing.T) {
	t.Run("identical sequences are equivalent", func(t *testing.T) {
		selected := planOf(drawFrom(1, "L-001", 30), drawFrom(2, "L-002", 20))
		policy := planOf(drawFrom(1, "L-001", 30), drawFrom(2, "L-002", 20))
		report := DetectVariance(selected, policy)
		assert.False(t, report.HasViolation)
		assert.Empty(t, report.Message)
	})

	t.Run("different split of the same lots is equivalent only when the sequence matches", func(t *testing.T) {
		// Same lots, same order, different per-lot quantities: the lot-id
		// sequence is identical, so structurally no violation. The monetary
		// difference is CostVariance's job.
		selected := planOf(drawFrom(1, "L-001", 10), drawFrom(2, "L-002", 40))
		policy := planOf(drawFrom(1, "L-001", 30), drawFrom(2, "L-002", 20))
		assert.False(t, DetectVariance(selected, policy).HasViolation)
	})

	t.Run("reordering is a violation", func(t *testing.T) {
		selected := planOf(drawFrom(2, "L-002", 20), drawFrom(1, "L-001", 30))
		policy := planOf(drawFrom(1, "L-001", 30), drawFrom(2, "L-002", 20))
		report := DetectVariance(selected, policy)
		assert.True(t, report.HasViolation)
		assert.Contains(t, report.Message, "position 0")
	})

	t.Run("different lot set is a violation", func(t *testing.T) {
		selected := planOf(drawFrom(3, "L-003", 50))
		policy := planOf(drawFrom(1, "L-001", 50))
		assert.True(t, DetectVariance(selected, policy).HasViolation)
	})

	t.Run("splitting one draw into two entries is a violation", func(t *testing.T) {
		selected := planOf(drawFrom(1, "L-001", 20), drawFrom(1, "L-001", 10))
		policy := planOf(drawFrom(1, "L-001", 30))
		report := DetectVariance(selected, policy)
		assert.True(t, report.HasViolation)
		assert.Contains(t, report.Message, "lot(s)")
	})

	t.Run("two empty plans are equivalent", func(t *testing.T) {
		assert.False(t, DetectVariance(Plan{}, Plan{}).HasViolation)
	})
}

func TestCostVariance(t *testing.T) {
	t.Run("variance is physical minus accounting", func(t *testing.T) {
		variance, pct, has := CostVariance(dec(200), dec(250))
		assert.True(t, variance.Equal(dec(50)))
		assert.True(t, pct.Equal(dec(25)))
		assert.True(t, has)
	})

	t.Run("negative when physical is cheaper", func(t *testing.T) {
		variance, pct, has := CostVariance(dec(200), dec(150))
		assert.True(t, variance.Equal(dec(-50)))
		assert.True(t, pct.Equal(dec(-25)))
		assert.True(t, has)
	})

	t.Run("equal costs carry no variance", func(t *testing.T) {
		variance, pct, has := CostVariance(dec(200), dec(200))
		assert.True(t, variance.IsZero())
		assert.True(t, pct.IsZero())
		assert.False(t, has)
	})

	t.Run("zero accounting cost pins the percentage at zero", func(t *testing.T) {
		variance, pct, has := CostVariance(decimal.Zero, dec(80))
		assert.True(t, variance.Equal(dec(80)))
		assert.True(t, pct.IsZero())
		assert.True(t, has)
	})
}

func TestConsumptionFixtureSanity(t *testing.T) {
	// Guards the fixture helpers the other tests lean on.
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	lot := testLot(1, "L-001", 30, 10, base)
	require.Equal(t, lotID(1), lot.ID)
	require.True(t, lot.RemainingQuantity.Equal(decimal.NewFromInt(30)))
}
