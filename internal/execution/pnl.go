package execution

// PnL is fee-aware accounting for one sell.
type PnL struct {
	Gross     float64
	EntryFee  float64 // apportioned to the volume sold
	ExitFee   float64
	Net       float64
	NetPct    float64 // relative to entry notional of the volume sold
	ExitValue float64
}

// CalcSellPnL computes realized P&L for a (possibly partial) sell.
// recordedEntryFee is the fee captured at open for the whole lot; when
// zero it is estimated from the entry notional at the taker rate. The exit
// fee is always computed fresh.
func CalcSellPnL(entryPrice, exitPrice, volumeSold, positionAmount, recordedEntryFee, takerFeePct float64) PnL {
	gross := (exitPrice - entryPrice) * volumeSold

	entryFee := recordedEntryFee
	if entryFee == 0 {
		entryFee = entryPrice * positionAmount * takerFeePct / 100
	}

	// pro-rate the lot's entry fee to the fraction sold
	ratio := 1.0
	if positionAmount > 0 {
		ratio = volumeSold / positionAmount
	}
	entryFeePart := entryFee * ratio

	exitValue := exitPrice * volumeSold
	exitFee := exitValue * takerFeePct / 100

	net := gross - entryFeePart - exitFee

	entryNotional := entryPrice * volumeSold
	netPct := 0.0
	if entryNotional > 0 {
		netPct = net / entryNotional * 100
	}

	return PnL{
		Gross:     gross,
		EntryFee:  entryFeePart,
		ExitFee:   exitFee,
		Net:       net,
		NetPct:    netPct,
		ExitValue: exitValue,
	}
}

// MergeDCA folds an incremental fill into an open lot: volume-weighted
// average entry, additive fees. The config snapshot from the original open
// stays as is.
func MergeDCA(entryPrice, amount, entryFee, fillPrice, fillVolume, fillFee float64) (avgPrice, totalAmount, totalFee float64) {
	totalAmount = amount + fillVolume
	if totalAmount <= 0 {
		return entryPrice, amount, entryFee
	}
	avgPrice = (entryPrice*amount + fillPrice*fillVolume) / totalAmount
	totalFee = entryFee + fillFee
	return avgPrice, totalAmount, totalFee
}
