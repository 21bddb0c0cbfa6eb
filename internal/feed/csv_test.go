package feed

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobreplay/internal/common"
	"lobreplay/internal/engine"
)

func TestCSV_RoundTrip(t *testing.T) {
	events := []engine.Event{
		engine.Add{TS: 1, ID: 1, Side: common.Buy, Price: 1000000, Shares: 100},
		engine.Add{TS: 2, ID: 2, Side: common.Sell, Price: 1000500, Shares: 50},
		engine.Execute{TS: 3, RestingSide: common.Buy, RestingID: 1, Shares: 40},
		engine.Cancel{TS: 4, ID: 1, Shares: 10},
		engine.Replace{TS: 5, OldID: 2, NewID: 3, NewPrice: 1000400, NewShares: 25},
		engine.Delete{TS: 6, ID: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, events))

	decoded, err := DecodeCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, events, decoded)
}

func TestCSV_EncodeFormat(t *testing.T) {
	events := []engine.Event{
		engine.Add{TS: 1, ID: 1, Side: common.Buy, Price: 1000000, Shares: 100},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, events))
	assert.Equal(t, "A,1,1,B,1000000,100\n", buf.String())
}

func TestCSV_DecodeEmptyInput(t *testing.T) {
	events, err := DecodeCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCSV_DecodeUnknownEventCode(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("Z,1,2,3\n"))
	assert.Error(t, err)
}

func TestCSV_DecodeWrongFieldCount(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("D,1\n"))
	assert.Error(t, err)
}

func TestCSV_DecodeInvalidSide(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("A,1,1,Q,1000000,100\n"))
	assert.Error(t, err)
}
