package book

import "lobreplay/internal/common"

// PriceLevel holds the queue of resting orders at one price, oldest at
// the head, in strict arrival order (spec §3 invariant 4). Mirrors
// market/book.py's Level from original_source, but the orders map (which
// loses arrival order under Python dict semantics the source relied on
// incidentally) is replaced with an explicit doubly linked list so
// ordering is structural, not accidental.
type PriceLevel struct {
	price       common.Price
	numOrders   int
	totalShares common.Shares

	head, tail *Order
}

// Price returns the level's price.
func (l *PriceLevel) Price() common.Price { return l.price }

// NumOrders returns the count of resting orders at this level.
func (l *PriceLevel) NumOrders() int { return l.numOrders }

// TotalShares returns the aggregate resting quantity at this level.
func (l *PriceLevel) TotalShares() common.Shares { return l.totalShares }

// Empty reports whether the level has no resting orders left; the side
// book must remove such a level immediately (spec §3 invariant 2).
func (l *PriceLevel) Empty() bool { return l.numOrders == 0 }

// Add appends order to the tail of the queue. Precondition: order.Price
// equals the level's price.
func (l *PriceLevel) Add(order *Order) {
	order.level = l
	order.prev = l.tail
	order.next = nil
	if l.tail != nil {
		l.tail.next = order
	} else {
		l.head = order
	}
	l.tail = order
	l.numOrders++
	l.totalShares += order.Shares
}

// MatchTop consumes shares from the head order, the resting side of a
// crossing trade. If the head order has more than requested shares it is
// partially filled and stays at the head (still oldest, still first in
// line); otherwise it is fully filled and unlinked.
//
// Returns the remaining (unmatched) requested shares, whether the head
// order was fully filled, its id, and how many of its shares were taken.
func (l *PriceLevel) MatchTop(requested common.Shares) (remaining common.Shares, fullyFilled bool, orderID uint64, executed common.Shares) {
	head := l.head
	orderID = head.ID
	if head.Shares > requested {
		head.Shares -= requested
		l.totalShares -= requested
		return 0, false, orderID, requested
	}
	executed = head.Shares
	remaining = requested - head.Shares
	l.unlink(head)
	return remaining, true, orderID, executed
}

// Reduce partially cancels shares off a specific resting order. Per spec
// §9 ("Cancel-to-zero"), a cancel that drives shares to zero does NOT
// remove the order; the subsequent Delete is authoritative. Fails if
// shares exceeds the order's current resting quantity.
func (l *PriceLevel) Reduce(order *Order, shares common.Shares) error {
	if shares > order.Shares {
		return &common.InconsistentError{Op: "cancel", OrderID: order.ID, Resting: order.Shares, Quantity: shares}
	}
	order.Shares -= shares
	l.totalShares -= shares
	return nil
}

// Remove deletes order from the level, preserving the relative order of
// the rest.
func (l *PriceLevel) Remove(order *Order) {
	l.unlink(order)
}

func (l *PriceLevel) unlink(order *Order) {
	if order.prev != nil {
		order.prev.next = order.next
	} else {
		l.head = order.next
	}
	if order.next != nil {
		order.next.prev = order.prev
	} else {
		l.tail = order.prev
	}
	order.prev, order.next, order.level = nil, nil, nil
	l.numOrders--
	l.totalShares -= order.Shares
}

// Orders returns the resting orders head-to-tail, oldest first. Used by
// tests and by SideBook.Depth's callers that want per-order detail; the
// hot match path never needs a slice copy.
func (l *PriceLevel) Orders() []*Order {
	out := make([]*Order, 0, l.numOrders)
	for o := l.head; o != nil; o = o.next {
		out = append(out, o)
	}
	return out
}
