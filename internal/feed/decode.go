// Package feed implements the Feed Decoder (spec §4.F): a parser for a
// length-prefixed, big-endian, ITCH-like binary stream, plus the
// intermediate CSV cache format of spec §6 and a tomb-supervised
// producer that feeds the replay loop over a bounded channel (spec §5).
//
// The wire layout and the two-pass locate/event scan are grounded in
// original_source/input.py's parse_raw_itch_file, translated from
// struct.unpack field tuples to explicit encoding/binary reads in the
// style the teacher already uses for its own wire format
// (internal/net/messages.go).
package feed

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog/log"

	"lobreplay/internal/common"
	"lobreplay/internal/engine"
)

const (
	recordHeaderLen = 2 // 1 reserved byte + 1 length byte
	typeByteLen     = 1
	locateLen       = 2
	trackingLen     = 2
)

// Decode runs the full two-pass decode over a complete byte stream,
// filtering for ticker and producing an ordered (by ts, by construction
// of the stream) slice of canonical events.
func Decode(data []byte, ticker string, strict bool) ([]engine.Event, error) {
	target, err := locatePass(data, ticker)
	if err != nil {
		return nil, err
	}
	return eventPass(data, target, strict)
}

// locatePass scans stock-directory ('R') records for one whose symbol
// matches ticker, capturing its locate code. It aborts on the first 'A'
// record, since the stock directory always precedes add messages (spec
// §4.F), mirroring input.py's `if msg[0] == 65: break`.
func locatePass(data []byte, ticker string) (uint16, error) {
	offset := 0
	for offset < len(data) {
		payload, next, err := readRecord(data, offset)
		if err != nil {
			return 0, err
		}
		if len(payload) == 0 {
			offset = next
			continue
		}

		switch payload[0] {
		case 'R':
			// locate(2) + tracking(2) + reserved(2) + timestamp(4) precede
			// the 8-byte symbol: original_source/input.py unpacks this
			// record as "!HHHI8sccl", so the symbol sits at payload[11:19],
			// the same prelude width as the ref field in an 'A' record.
			if len(payload) < typeByteLen+locateLen+2+2+4+8 {
				return 0, &common.DecodeError{Offset: offset, Reason: "truncated stock directory record"}
			}
			locate := binary.BigEndian.Uint16(payload[1:3])
			symbol := bytes.TrimRight(payload[11:19], " \x00")
			if string(symbol) == ticker {
				return locate, nil
			}
		case 'A':
			return 0, &common.TickerNotFoundError{Ticker: ticker}
		}
		offset = next
	}
	return 0, &common.TickerNotFoundError{Ticker: ticker}
}

// eventPass decodes every record whose locate code matches target into a
// canonical Event, tracking which side each live order rests on (the raw
// feed never restates it on Execute) in a decoder-local map.
func eventPass(data []byte, target uint16, strict bool) ([]engine.Event, error) {
	restSide := make(map[uint64]common.Side)
	var events []engine.Event

	offset := 0
	for offset < len(data) {
		payload, next, err := readRecord(data, offset)
		if err != nil {
			return nil, err
		}
		if len(payload) < typeByteLen+locateLen {
			offset = next
			continue
		}

		locate := binary.BigEndian.Uint16(payload[1:3])
		if locate != target {
			offset = next
			continue
		}

		ev, err := decodeRecord(payload, offset, restSide, strict)
		if err != nil {
			return nil, err
		}
		if ev != nil {
			events = append(events, ev)
		}
		offset = next
	}
	return events, nil
}

// readRecord reads the reserved byte + length-prefixed payload starting
// at offset, returning the payload and the offset of the next record.
func readRecord(data []byte, offset int) (payload []byte, next int, err error) {
	if offset+recordHeaderLen > len(data) {
		return nil, 0, &common.DecodeError{Offset: offset, Reason: "truncated record header"}
	}
	length := int(data[offset+1])
	payloadStart := offset + recordHeaderLen
	payloadEnd := payloadStart + length
	if payloadEnd > len(data) {
		return nil, 0, &common.DecodeError{Offset: offset, Reason: "truncated record payload"}
	}
	return data[payloadStart:payloadEnd], payloadEnd, nil
}

// decodeRecord decodes one locate-matched payload per the field table in
// spec §4.F, after the common locate(2)+tracking(2) header.
func decodeRecord(payload []byte, offset int, restSide map[uint64]common.Side, strict bool) (engine.Event, error) {
	fields := payload[typeByteLen+locateLen+trackingLen:]
	msgType := payload[0]

	switch msgType {
	case 'A', 'F':
		if len(fields) < 6+8+1+4+8+4 {
			return nil, &common.DecodeError{Offset: offset, Reason: "truncated add record"}
		}
		ts := readUint48(fields[0:6])
		ref := binary.BigEndian.Uint64(fields[6:14])
		sideByte := fields[14]
		shares := binary.BigEndian.Uint32(fields[15:19])
		price := binary.BigEndian.Uint32(fields[27:31])

		side, err := decodeSide(sideByte, offset)
		if err != nil {
			return nil, err
		}
		restSide[ref] = side
		return engine.Add{
			TS:     common.Timestamp(ts),
			ID:     ref,
			Side:   side,
			Price:  common.Price(price),
			Shares: common.Shares(shares),
		}, nil

	case 'E', 'C':
		if len(fields) < 6+8+4+8 {
			return nil, &common.DecodeError{Offset: offset, Reason: "truncated execute record"}
		}
		ts := readUint48(fields[0:6])
		ref := binary.BigEndian.Uint64(fields[6:14])
		shares := binary.BigEndian.Uint32(fields[14:18])

		restingSide, ok := restSide[ref]
		if !ok {
			if strict {
				return nil, &common.DecodeError{Offset: offset, Reason: fmt.Sprintf("execute references unknown order %d", ref)}
			}
			log.Warn().Uint64("ref", ref).Msg("execute references order with no recorded side; skipping")
			return nil, nil
		}
		return engine.Execute{
			TS:          common.Timestamp(ts),
			RestingSide: restingSide,
			RestingID:   ref,
			Shares:      common.Shares(shares),
		}, nil

	case 'X':
		if len(fields) < 6+8+4 {
			return nil, &common.DecodeError{Offset: offset, Reason: "truncated cancel record"}
		}
		ts := readUint48(fields[0:6])
		ref := binary.BigEndian.Uint64(fields[6:14])
		shares := binary.BigEndian.Uint32(fields[14:18])
		return engine.Cancel{TS: common.Timestamp(ts), ID: ref, Shares: common.Shares(shares)}, nil

	case 'D':
		if len(fields) < 6+8 {
			return nil, &common.DecodeError{Offset: offset, Reason: "truncated delete record"}
		}
		ts := readUint48(fields[0:6])
		ref := binary.BigEndian.Uint64(fields[6:14])
		delete(restSide, ref)
		return engine.Delete{TS: common.Timestamp(ts), ID: ref}, nil

	case 'U':
		if len(fields) < 6+8+8+4+4 {
			return nil, &common.DecodeError{Offset: offset, Reason: "truncated replace record"}
		}
		ts := readUint48(fields[0:6])
		oldRef := binary.BigEndian.Uint64(fields[6:14])
		newRef := binary.BigEndian.Uint64(fields[14:22])
		shares := binary.BigEndian.Uint32(fields[22:26])
		price := binary.BigEndian.Uint32(fields[26:30])

		if side, ok := restSide[oldRef]; ok {
			restSide[newRef] = side
			delete(restSide, oldRef)
		}
		return engine.Replace{
			TS:        common.Timestamp(ts),
			OldID:     oldRef,
			NewID:     newRef,
			NewPrice:  common.Price(price),
			NewShares: common.Shares(shares),
		}, nil

	case 'R':
		// Stock directory record: this is how locatePass found target in
		// the first place, so it always recurs in the event pass under
		// the matched locate code. It carries no event and is skipped
		// regardless of strict mode, not just under the unrecognised-code
		// leniency below.
		return nil, nil

	default:
		// Unrecognised type code: skipped silently per spec §4.F, unless
		// strict mode asks for the gap to surface as a decode error.
		if strict {
			return nil, &common.DecodeError{Offset: offset, Reason: fmt.Sprintf("unrecognised message type %q", string(msgType))}
		}
		return nil, nil
	}
}

func decodeSide(b byte, offset int) (common.Side, error) {
	switch b {
	case 'B':
		return common.Buy, nil
	case 'S':
		return common.Sell, nil
	default:
		return 0, &common.DecodeError{Offset: offset, Reason: fmt.Sprintf("invalid side byte %q", string(b))}
	}
}

// readUint48 decodes a 48-bit big-endian unsigned integer (spec §4.F:
// "timestamps occupy 6 bytes").
func readUint48(b []byte) uint64 {
	var buf [8]byte
	copy(buf[2:], b)
	return binary.BigEndian.Uint64(buf[:])
}
