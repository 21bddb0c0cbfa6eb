package engine

import "lobreplay/internal/common"

// Event is the tagged union of the five canonical replay events (spec
// §4.E). The source dispatches on a string/enum `type`; spec §9 flags
// this as better modelled with a typed union dispatched by pattern
// match, so each variant is its own struct with its own Apply method,
// not a shared "Type" field plus divergent optional fields.
type Event interface {
	// Apply dispatches the event to the order book. ts is available on
	// every variant via Timestamp().
	Apply(ob *OrderBook) error
	Timestamp() common.Timestamp
}

// Add rests (or matches) a new limit order.
type Add struct {
	TS     common.Timestamp
	ID     uint64
	Side   common.Side
	Price  common.Price
	Shares common.Shares
}

func (e Add) Timestamp() common.Timestamp { return e.TS }
func (e Add) Apply(ob *OrderBook) error {
	return ob.AddLimit(e.ID, e.Side, e.Price, e.Shares, e.TS)
}

// Execute reports an exchange fill against a specific resting order.
// RestingSide is the side the referenced order rests on, which the raw
// feed does not restate (spec §4.F); the decoder tracks it.
type Execute struct {
	TS          common.Timestamp
	RestingSide common.Side
	RestingID   uint64
	Shares      common.Shares
}

func (e Execute) Timestamp() common.Timestamp { return e.TS }
func (e Execute) Apply(ob *OrderBook) error {
	return ob.ExecuteFill(e.RestingSide, e.RestingID, e.Shares)
}

// Cancel partially cancels shares off a resting order.
type Cancel struct {
	TS     common.Timestamp
	ID     uint64
	Shares common.Shares
}

func (e Cancel) Timestamp() common.Timestamp { return e.TS }
func (e Cancel) Apply(ob *OrderBook) error   { return ob.Cancel(e.ID, e.Shares) }

// Delete fully removes a resting order.
type Delete struct {
	TS common.Timestamp
	ID uint64
}

func (e Delete) Timestamp() common.Timestamp { return e.TS }
func (e Delete) Apply(ob *OrderBook) error   { return ob.Delete(e.ID) }

// Replace deletes OldID and adds a new order (NewID, NewPrice,
// NewShares) on the old order's side.
type Replace struct {
	TS        common.Timestamp
	OldID     uint64
	NewID     uint64
	NewPrice  common.Price
	NewShares common.Shares
}

func (e Replace) Timestamp() common.Timestamp { return e.TS }
func (e Replace) Apply(ob *OrderBook) error {
	return ob.Replace(e.OldID, e.NewID, e.NewPrice, e.NewShares, e.TS)
}
