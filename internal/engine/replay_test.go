package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobreplay/internal/common"
)

func TestReplay_RunSlice_AppliesInOrder(t *testing.T) {
	ob := NewOrderBook()
	r := NewReplay(ob)

	events := []Event{
		Add{TS: 1, ID: 1, Side: common.Buy, Price: 1000000, Shares: 100},
		Cancel{TS: 2, ID: 1, Shares: 30},
		Add{TS: 3, ID: 2, Side: common.Sell, Price: 1000500, Shares: 40},
	}
	require.NoError(t, r.RunSlice(events))
	assert.Equal(t, 3, r.Applied())
	assert.Equal(t, common.Price(1000000), ob.BestBid())
	assert.Equal(t, common.Price(1000500), ob.BestAsk())
}

func TestReplay_RunSlice_StopsOnFirstError(t *testing.T) {
	ob := NewOrderBook()
	r := NewReplay(ob)

	events := []Event{
		Add{TS: 1, ID: 1, Side: common.Buy, Price: 1000000, Shares: 100},
		Cancel{TS: 2, ID: 999, Shares: 1},
		Add{TS: 3, ID: 2, Side: common.Sell, Price: 1000500, Shares: 40},
	}
	err := r.RunSlice(events)
	assert.Error(t, err)
	assert.Equal(t, 2, r.Applied(), "the third event is never dispatched")
	assert.Equal(t, common.Price(1<<63-1), ob.BestAsk(), "never reached")
}

func TestReplay_Hooks_FireAroundEachEvent(t *testing.T) {
	ob := NewOrderBook()
	r := NewReplay(ob)

	var pre, post int
	r.Pre = func(ev Event, ob *OrderBook) { pre++ }
	r.Post = func(ev Event, ob *OrderBook) { post++ }

	events := []Event{
		Add{TS: 1, ID: 1, Side: common.Buy, Price: 1000000, Shares: 10},
		Add{TS: 2, ID: 2, Side: common.Buy, Price: 999000, Shares: 10},
	}
	require.NoError(t, r.RunSlice(events))
	assert.Equal(t, 2, pre)
	assert.Equal(t, 2, post)
}

func TestReplay_Run_DrainsChannel(t *testing.T) {
	ob := NewOrderBook()
	r := NewReplay(ob)

	ch := make(chan Event, 2)
	ch <- Add{TS: 1, ID: 1, Side: common.Buy, Price: 1000000, Shares: 10}
	ch <- Add{TS: 2, ID: 2, Side: common.Buy, Price: 999000, Shares: 5}
	close(ch)

	require.NoError(t, r.Run(ch))
	assert.Equal(t, 2, r.Applied())
}

func TestReplay_EachRunHasDistinctRunID(t *testing.T) {
	r1 := NewReplay(NewOrderBook())
	r2 := NewReplay(NewOrderBook())
	assert.NotEqual(t, r1.RunID, r2.RunID)
}
