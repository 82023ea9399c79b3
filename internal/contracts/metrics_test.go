package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord_UnavailableMarshalsAsNull(t *testing.T) {
	rec := MetricsRecord{
		Symbol:      "AAPL",
		Date:        time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC),
		TotalWeeks:  30,
		Change1wPct: 2.5,
		Change1yPct: Unavailable(), // only 30 weeks of history
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 2.5, decoded["change_1w_pct"])
	assert.Nil(t, decoded["change_1y_pct"])
}

func TestMetricsRecord_JSONRoundTripRestoresSentinel(t *testing.T) {
	rec := MetricsRecord{
		Symbol:      "GE",
		TotalWeeks:  10,
		Change1mPct: -3.25,
		Change3mPct: Unavailable(),
		Change6mPct: Unavailable(),
		Change1yPct: Unavailable(),
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var back MetricsRecord
	require.NoError(t, json.Unmarshal(raw, &back))

	assert.Equal(t, -3.25, back.Change1mPct)
	assert.True(t, IsUnavailable(back.Change3mPct))
	assert.True(t, IsUnavailable(back.Change6mPct))
	assert.True(t, IsUnavailable(back.Change1yPct))
	assert.False(t, IsUnavailable(back.Change1mPct))
}

func TestParseIndex(t *testing.T) {
	idx, err := ParseIndex("SP500")
	require.NoError(t, err)
	assert.Equal(t, IndexSP500, idx)
	assert.Equal(t, "^GSPC", idx.Ticker())

	idx, err = ParseIndex("nasdaq")
	require.NoError(t, err)
	assert.Equal(t, IndexNasdaq, idx)

	_, err = ParseIndex("FTSE100")
	assert.Error(t, err)
}
