package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobreplay/internal/common"
)

// S1. Simple rest + cancel.
func TestScenario_S1_RestAndCancel(t *testing.T) {
	ob := NewOrderBook()
	require.NoError(t, ob.AddLimit(1, common.Buy, 1000000, 100, 1))
	require.NoError(t, ob.Cancel(1, 30))

	assert.Equal(t, common.Price(1000000), ob.BestBid())
	depth := ob.Depth(common.Buy)
	require.Len(t, depth, 1)
	assert.Equal(t, 100.0, depth[0].Price)
	assert.Equal(t, common.Shares(70), depth[0].TotalShares)

	view, ok := ob.Order(1)
	require.True(t, ok)
	assert.Equal(t, common.Shares(70), view.Shares)
}

// S2. Cross on insert: marketable buy sweeps a resting ask fully and
// rests its residual on the bid side.
func TestScenario_S2_CrossOnInsert(t *testing.T) {
	ob := NewOrderBook()
	require.NoError(t, ob.AddLimit(10, common.Sell, 1000500, 50, 1))
	require.NoError(t, ob.AddLimit(11, common.Buy, 1000500, 80, 3))

	_, ok := ob.Order(10)
	assert.False(t, ok, "order 10 fully executed and removed")

	view, ok := ob.Order(11)
	require.True(t, ok)
	assert.Equal(t, common.Shares(30), view.Shares)
	assert.Equal(t, common.Side(common.Buy), view.Side)

	assert.Equal(t, common.Price(1000500), ob.BestBid())
	assert.Equal(t, sentinelAskForTest(), ob.BestAsk())
}

// S3. Execute against head removes it without disturbing the rest of
// the level's order or total.
func TestScenario_S3_ExecuteAgainstHead(t *testing.T) {
	ob := NewOrderBook()
	require.NoError(t, ob.AddLimit(20, common.Buy, 999900, 100, 1))
	require.NoError(t, ob.AddLimit(21, common.Buy, 999900, 50, 2))

	require.NoError(t, ob.ExecuteFill(common.Buy, 20, 100))

	_, ok := ob.Order(20)
	assert.False(t, ok)
	depth := ob.Depth(common.Buy)
	require.Len(t, depth, 1)
	assert.Equal(t, common.Shares(50), depth[0].TotalShares)
}

// S4. Delete then empty level.
func TestScenario_S4_DeleteEmptiesLevel(t *testing.T) {
	ob := NewOrderBook()
	require.NoError(t, ob.AddLimit(30, common.Sell, 1001000, 25, 1))
	require.NoError(t, ob.Delete(30))

	assert.Equal(t, sentinelAskForTest(), ob.BestAsk())
	assert.Empty(t, ob.Depth(common.Sell))
}

// S5. Replace carries the old order's side forward and re-checks the
// crossing condition.
func TestScenario_S5_Replace(t *testing.T) {
	ob := NewOrderBook()
	require.NoError(t, ob.AddLimit(40, common.Buy, 999000, 100, 1))
	require.NoError(t, ob.Replace(40, 41, 999500, 100, 2))

	_, ok := ob.Order(40)
	assert.False(t, ok)
	view, ok := ob.Order(41)
	require.True(t, ok)
	assert.Equal(t, common.Shares(100), view.Shares)
	assert.Equal(t, common.Price(999500), ob.BestBid())
}

// S6. Execute referencing an order that is not at the head of its level
// leaves the rest of the level's time priority untouched.
func TestScenario_S6_ExecuteNotAtHead(t *testing.T) {
	ob := NewOrderBook()
	require.NoError(t, ob.AddLimit(50, common.Buy, 999900, 100, 1))
	require.NoError(t, ob.AddLimit(51, common.Buy, 999900, 100, 2))
	require.NoError(t, ob.AddLimit(52, common.Buy, 999900, 100, 3))

	require.NoError(t, ob.ExecuteFill(common.Buy, 51, 100))

	_, ok := ob.Order(51)
	assert.False(t, ok)

	depth := ob.Depth(common.Buy)
	require.Len(t, depth, 1)
	assert.Equal(t, common.Shares(200), depth[0].TotalShares)

	lvl, ok := ob.bids.BestLevel()
	require.True(t, ok)
	ids := []uint64{}
	for _, o := range lvl.Orders() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []uint64{50, 52}, ids, "head unchanged, middle order removed")
}

func TestExecute_OverflowSweepsSameSideBook(t *testing.T) {
	ob := NewOrderBook()
	require.NoError(t, ob.AddLimit(1, common.Buy, 999900, 40, 1))
	require.NoError(t, ob.AddLimit(2, common.Buy, 999800, 60, 2))

	require.NoError(t, ob.ExecuteFill(common.Buy, 1, 100))

	_, ok := ob.Order(1)
	assert.False(t, ok)
	_, ok = ob.Order(2)
	assert.False(t, ok, "overflow consumed the next-best order on the same side")
	assert.Equal(t, sentinelBidForTest(), ob.BestBid())
}

func TestCancel_UnknownOrder_StrictFails(t *testing.T) {
	ob := NewOrderBook()
	err := ob.Cancel(999, 10)
	assert.Error(t, err)
}

func TestCancel_UnknownOrder_LenientDowngrades(t *testing.T) {
	ob := NewOrderBook()
	ob.Lenient = true
	err := ob.Cancel(999, 10)
	assert.NoError(t, err)
}

func TestAddDeleteRoundTrip_RestoresPriorState(t *testing.T) {
	ob := NewOrderBook()
	require.NoError(t, ob.AddLimit(1, common.Sell, 1002000, 10, 1))
	before := ob.BestAsk()

	require.NoError(t, ob.AddLimit(2, common.Buy, 1000000, 5, 2))
	require.NoError(t, ob.Delete(2))

	assert.Equal(t, before, ob.BestAsk())
	assert.Equal(t, common.Price(0), ob.BestBid())
}

func sentinelAskForTest() common.Price { return common.Price(1<<63 - 1) }
func sentinelBidForTest() common.Price { return common.Price(0) }
