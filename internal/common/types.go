// Package common holds the domain types shared by the book, engine, and
// feed packages: sides, fixed-point price/share/timestamp aliases, and the
// read-only views handed back across package boundaries.
package common

import "fmt"

// Side identifies which book an order rests on.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Price is fixed-point, in 1/10,000 of the quote currency. No floats on
// the hot path.
type Price int64

// Shares is the resting/execute quantity. Strictly positive while resting.
type Shares uint32

// Timestamp is nanoseconds since midnight, decoded from a 48-bit
// big-endian field on the wire.
type Timestamp int64

// AsCurrency renders a fixed-point Price in quote-currency units, per
// spec §6's depth()/6 contract (price_in_currency = price / 10000).
func (p Price) AsCurrency() float64 {
	return float64(p) / 10000.0
}

// OrderView is the read-only snapshot returned by OrderBook.Order.
type OrderView struct {
	ID        uint64
	Side      Side
	Price     Price
	Shares    Shares
	Timestamp Timestamp
}

func (v OrderView) String() string {
	return fmt.Sprintf("order(%d side=%s price=%d shares=%d ts=%d)", v.ID, v.Side, v.Price, v.Shares, v.Timestamp)
}

// DepthLevel is one rung of the depth ladder returned by OrderBook.Depth.
type DepthLevel struct {
	Price       float64
	TotalShares Shares
}

// Fill records one execution for auditing, mirroring the teacher's
// Trade type (internal/common/trade.go) but scoped to what the Side Book
// match loop actually produces: an order id and the quantity taken off it.
type Fill struct {
	OrderID uint64
	Shares  Shares
}
