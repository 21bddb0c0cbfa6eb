package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"lobreplay/internal/common"
	"lobreplay/internal/engine"
)

// EncodeCSV writes events in the decoded-event cache format of spec §6,
// one event per line, no header. This is the optional serialization
// cache between the Feed Decoder and the Replay Loop that spec §1 lists
// as an external collaborator; the format itself is in scope.
func EncodeCSV(w io.Writer, events []engine.Event) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for _, ev := range events {
		var record []string
		switch e := ev.(type) {
		case engine.Add:
			record = []string{"A", itoa(e.TS), itoa(e.ID), sideByte(e.Side), itoa(e.Price), itoa(e.Shares)}
		case engine.Execute:
			record = []string{"E", itoa(e.TS), itoa(e.RestingID), sideByte(e.RestingSide), itoa(e.Shares)}
		case engine.Cancel:
			record = []string{"X", itoa(e.TS), itoa(e.ID), itoa(e.Shares)}
		case engine.Delete:
			record = []string{"D", itoa(e.TS), itoa(e.ID)}
		case engine.Replace:
			record = []string{"U", itoa(e.TS), itoa(e.NewID), itoa(e.OldID), itoa(e.NewPrice), itoa(e.NewShares)}
		default:
			return fmt.Errorf("encode csv: unknown event type %T", ev)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV reads back the cache format written by EncodeCSV. Round-trip
// law (spec §8): DecodeCSV(EncodeCSV(events)) == events for any
// synthetic sequence.
func DecodeCSV(r io.Reader) ([]engine.Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var events []engine.Event
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		ev, err := decodeCSVRecord(record)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func decodeCSVRecord(record []string) (engine.Event, error) {
	switch record[0] {
	case "A":
		if len(record) != 6 {
			return nil, fmt.Errorf("decode csv: A record wants 6 fields, got %d", len(record))
		}
		side, err := parseSideByte(record[3])
		if err != nil {
			return nil, err
		}
		return engine.Add{
			TS:     common.Timestamp(mustInt64(record[1])),
			ID:     mustUint64(record[2]),
			Side:   side,
			Price:  common.Price(mustInt64(record[4])),
			Shares: common.Shares(mustUint64(record[5])),
		}, nil
	case "E":
		if len(record) != 5 {
			return nil, fmt.Errorf("decode csv: E record wants 5 fields, got %d", len(record))
		}
		side, err := parseSideByte(record[3])
		if err != nil {
			return nil, err
		}
		return engine.Execute{
			TS:          common.Timestamp(mustInt64(record[1])),
			RestingID:   mustUint64(record[2]),
			RestingSide: side,
			Shares:      common.Shares(mustUint64(record[4])),
		}, nil
	case "X":
		if len(record) != 4 {
			return nil, fmt.Errorf("decode csv: X record wants 4 fields, got %d", len(record))
		}
		return engine.Cancel{
			TS:     common.Timestamp(mustInt64(record[1])),
			ID:     mustUint64(record[2]),
			Shares: common.Shares(mustUint64(record[3])),
		}, nil
	case "D":
		if len(record) != 3 {
			return nil, fmt.Errorf("decode csv: D record wants 3 fields, got %d", len(record))
		}
		return engine.Delete{
			TS: common.Timestamp(mustInt64(record[1])),
			ID: mustUint64(record[2]),
		}, nil
	case "U":
		if len(record) != 6 {
			return nil, fmt.Errorf("decode csv: U record wants 6 fields, got %d", len(record))
		}
		return engine.Replace{
			TS:        common.Timestamp(mustInt64(record[1])),
			NewID:     mustUint64(record[2]),
			OldID:     mustUint64(record[3]),
			NewPrice:  common.Price(mustInt64(record[4])),
			NewShares: common.Shares(mustUint64(record[5])),
		}, nil
	default:
		return nil, fmt.Errorf("decode csv: unknown event code %q", record[0])
	}
}

func sideByte(s common.Side) string {
	if s == common.Buy {
		return "B"
	}
	return "S"
}

func parseSideByte(s string) (common.Side, error) {
	switch s {
	case "B":
		return common.Buy, nil
	case "S":
		return common.Sell, nil
	default:
		return 0, fmt.Errorf("decode csv: invalid side %q", s)
	}
}

func itoa[T ~int64 | ~uint64 | ~uint32 | ~int32](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

func mustInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func mustUint64(s string) uint64 {
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}
