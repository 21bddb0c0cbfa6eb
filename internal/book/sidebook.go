package book

import (
	"math"

	"github.com/tidwall/btree"

	"lobreplay/internal/common"
)

// SideBook is one side (bid or ask) of the book: an ordered map of
// price to PriceLevel. Spec §9 flags the source's "abstract base class
// + BID/ASK subclass with differing comparators" as something to model
// as "a single Side Book generic in a comparator" instead — this is
// that: one type, the only difference between a bid book and an ask
// book is which less-func and sentinel NewSideBook wires up, continuing
// the teacher's own internal/engine/orderbook.go, which already builds
// its two btree.BTreeG[*PriceLevel] instances that way.
type SideBook struct {
	side     common.Side
	levels   *btree.BTreeG[*PriceLevel]
	sentinel common.Price
}

// sentinelAsk is the "+infinity" sentinel for an empty ask book, chosen
// (per spec §9) so price comparisons against an empty opposite side
// never evaluate as crossed. original_source/market/book.py used 1E10;
// this rewrite uses MaxInt64 since Price is a fixed-point integer, not a
// float, so there is no reason to settle for a smaller sentinel.
const sentinelAsk = common.Price(math.MaxInt64)
const sentinelBid = common.Price(0)

// NewSideBook builds the bid book (prices descending, best = max) or the
// ask book (prices ascending, best = min).
func NewSideBook(side common.Side) *SideBook {
	sb := &SideBook{side: side}
	switch side {
	case common.Buy:
		sb.sentinel = sentinelBid
		sb.levels = btree.NewBTreeG(func(a, b *PriceLevel) bool { return a.price > b.price })
	case common.Sell:
		sb.sentinel = sentinelAsk
		sb.levels = btree.NewBTreeG(func(a, b *PriceLevel) bool { return a.price < b.price })
	}
	return sb
}

// Side reports which side this book represents.
func (s *SideBook) Side() common.Side { return s.side }

// BestQuote returns the top-of-book price and true, or the zero value
// and false if the side is empty.
func (s *SideBook) BestQuote() (common.Price, bool) {
	lvl, ok := s.levels.Min()
	if !ok {
		return 0, false
	}
	return lvl.price, true
}

// Quote returns the top-of-book price, or the side's sentinel
// (§3: "+∞ sentinel for ASK, 0 for BID") when empty. Reserved for the
// single-expression crossing checks in internal/engine; prefer
// BestQuote elsewhere.
func (s *SideBook) Quote() common.Price {
	if price, ok := s.BestQuote(); ok {
		return price
	}
	return s.sentinel
}

// BestLevel returns the level at the best price. Undefined (ok=false)
// when the side is empty.
func (s *SideBook) BestLevel() (*PriceLevel, bool) {
	return s.levels.Min()
}

// EnsureLevel returns the existing level at price, or creates one.
func (s *SideBook) EnsureLevel(price common.Price) *PriceLevel {
	probe := &PriceLevel{price: price}
	if lvl, ok := s.levels.Get(probe); ok {
		return lvl
	}
	lvl := &PriceLevel{price: price}
	s.levels.Set(lvl)
	return lvl
}

// RemoveLevel removes the level at price from the side book. No-op if
// absent.
func (s *SideBook) RemoveLevel(price common.Price) {
	s.levels.Delete(&PriceLevel{price: price})
}

// isOutside implements spec §4.B's crossing boundary: for a BUY sweeping
// the ask side, "outside" means the best ask has climbed past the
// limit; for a SELL sweeping the bid side, "outside" means the best bid
// has dropped past the limit. A nil limit never excludes anything —
// match until out of shares or out of book.
func (s *SideBook) isOutside(limit *common.Price) bool {
	if limit == nil {
		return false
	}
	best, ok := s.BestQuote()
	if !ok {
		return true
	}
	switch s.side {
	case common.Sell: // this is the ask side; caller is a buy sweeping up
		return best > *limit
	default: // common.Buy: this is the bid side; caller is a sell sweeping down
		return best < *limit
	}
}

// Match repeatedly consumes the best level's head order until requested
// shares are exhausted or the best price is outside limit (see
// isOutside). Returns the ids of orders fully executed (so the caller
// can unlink them from the Order Index), the fills for auditing, and any
// unexecuted remainder.
func (s *SideBook) Match(requested common.Shares, limit *common.Price) (fullyExecuted []uint64, fills []common.Fill, remaining common.Shares) {
	remaining = requested
	for remaining > 0 {
		if s.isOutside(limit) {
			break
		}
		lvl, ok := s.BestLevel()
		if !ok {
			break
		}

		var rem common.Shares
		var filled bool
		var orderID uint64
		var executed common.Shares
		rem, filled, orderID, executed = lvl.MatchTop(remaining)
		remaining = rem
		fills = append(fills, common.Fill{OrderID: orderID, Shares: executed})
		if filled {
			fullyExecuted = append(fullyExecuted, orderID)
		}

		if lvl.Empty() {
			s.RemoveLevel(lvl.price)
		}
	}
	return fullyExecuted, fills, remaining
}

// Depth returns (price, total_shares) pairs from best outward, with
// price converted to quote-currency units per spec §6.
func (s *SideBook) Depth() []common.DepthLevel {
	out := make([]common.DepthLevel, 0, s.levels.Len())
	s.levels.Scan(func(lvl *PriceLevel) bool {
		out = append(out, common.DepthLevel{Price: lvl.price.AsCurrency(), TotalShares: lvl.totalShares})
		return true
	})
	return out
}
