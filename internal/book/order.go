// Package book implements the Price Level, Side Book, and order-handle
// plumbing that back a two-sided order book: a btree.BTreeG of price
// levels per side (continuing the teacher's internal/engine/orderbook.go),
// each level an intrusive FIFO linked list of resting orders (the Order
// design from ejyy-femto_go/orderbook.go, adapted from a slot array to
// plain pointers since this engine does not need an arena allocator).
package book

import "lobreplay/internal/common"

// Order is a resting limit order. The order-book layer (internal/engine)
// is the only thing that constructs, mutates, or destroys one; Level and
// SideBook operate on the handle they're given.
type Order struct {
	ID        uint64
	Side      common.Side
	Price     common.Price
	Shares    common.Shares
	Timestamp common.Timestamp

	level *PriceLevel
	prev  *Order
	next  *Order
}

// View returns the read-only snapshot exposed by OrderBook.Order.
func (o *Order) View() common.OrderView {
	return common.OrderView{
		ID:        o.ID,
		Side:      o.Side,
		Price:     o.Price,
		Shares:    o.Shares,
		Timestamp: o.Timestamp,
	}
}

// Level reports which price level this order currently rests at, or nil
// if it has been removed.
func (o *Order) Level() *PriceLevel { return o.level }
