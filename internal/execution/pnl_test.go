package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalcSellPnLFullClose(t *testing.T) {
	pnl := CalcSellPnL(100, 105, 1.0, 1.0, 0, 0.40)

	assert.InDelta(t, 5.00, pnl.Gross, 1e-9)
	assert.InDelta(t, 0.40, pnl.EntryFee, 1e-9) // estimated from entry notional
	assert.InDelta(t, 0.42, pnl.ExitFee, 1e-9)
	assert.InDelta(t, 4.18, pnl.Net, 1e-9)
	assert.InDelta(t, 4.18, pnl.NetPct, 1e-9) // relative to entry notional
}

func TestCalcSellPnLRecordedEntryFeeWins(t *testing.T) {
	pnl := CalcSellPnL(100, 105, 1.0, 1.0, 0.55, 0.40)
	assert.InDelta(t, 0.55, pnl.EntryFee, 1e-9)
	assert.InDelta(t, 5.00-0.55-0.42, pnl.Net, 1e-9)
}

func TestCalcSellPnLPartialProRatesEntryFee(t *testing.T) {
	// selling half the lot carries half the recorded entry fee
	pnl := CalcSellPnL(100, 110, 0.5, 1.0, 0.80, 0.40)

	assert.InDelta(t, 5.00, pnl.Gross, 1e-9)
	assert.InDelta(t, 0.40, pnl.EntryFee, 1e-9)
	assert.InDelta(t, 0.22, pnl.ExitFee, 1e-9) // 55 * 0.4%
	assert.InDelta(t, 4.38, pnl.Net, 1e-9)
}

func TestCalcSellPnLZeroAmountNoDivisionFault(t *testing.T) {
	pnl := CalcSellPnL(100, 105, 1.0, 0, 0.40, 0.40)
	// ratio defaults to 1, the whole recorded fee applies
	assert.InDelta(t, 0.40, pnl.EntryFee, 1e-9)
}

func TestMergeDCA(t *testing.T) {
	avg, amount, fee := MergeDCA(100, 0.5, 0.20, 90, 0.5, 0.18)

	assert.InDelta(t, 95.0, avg, 1e-9)
	assert.InDelta(t, 1.0, amount, 1e-9)
	assert.InDelta(t, 0.38, fee, 1e-9)
}

func TestMergeDCAZeroFill(t *testing.T) {
	avg, amount, fee := MergeDCA(100, 0, 0, 90, 0, 0)
	assert.Equal(t, 100.0, avg)
	assert.Equal(t, 0.0, amount)
	assert.Equal(t, 0.0, fee)
}
