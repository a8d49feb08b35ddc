// Package fifo implements the deterministic lot-accounting engine (C3):
// pure computation over a Transfer stream, no I/O, parallelizable per
// (wallet, token) by the caller.
package fifo

import (
	"sort"

	"github.com/shopspring/decimal"

	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/model"
)

// epsilon avoids divide-by-zero when computing ROI against a zero cost
// basis (spec §4.3: "ε>0 to avoid divide-by-zero").
var epsilon = decimal.New(1, -8)

// roiGagnantThreshold is the 80% ROI boundary for GAGNANT/win-rate status
// (spec §4.3/§4.4).
var roiGagnantThreshold = decimal.NewFromInt(80)

type lot struct {
	qty       decimal.Decimal
	unitCost  decimal.Decimal
	isAirdrop bool
}

// Engine replays a sorted Transfer stream through the FIFO lot queue.
type Engine struct{}

func New() *Engine { return &Engine{} }

// sortTransfers enforces the determinism invariant (spec §4.3 / §8
// property 1, Open Question (a)): ascending (timestamp, block_number,
// transaction_hash).
func sortTransfers(transfers []model.Transfer) []model.Transfer {
	out := make([]model.Transfer, len(transfers))
	copy(out, transfers)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].TransactionHash < out[j].TransactionHash
	})
	return out
}

// Run replays transfers for one (wallet, token) pair and returns analytics
// populated with everything the FIFO engine itself can derive.
// currentPrice is C1's valuation for the remaining position; nil means
// "cannot value" (spec §4.1) and the position is held at cost basis.
func (e *Engine) Run(transfers []model.Transfer, currentPrice *decimal.Decimal) (model.TokenAnalytics, []errs.UnitResult) {
	var out model.TokenAnalytics
	var warnings []errs.UnitResult

	if len(transfers) == 0 {
		return out, warnings
	}

	sorted := sortTransfers(transfers)

	var lots []lot
	totalInvested := decimal.Zero
	totalRealized := decimal.Zero
	gainsAirdrops := decimal.Zero
	buyQtySum := decimal.Zero
	buyCostSum := decimal.Zero
	sellQtySum := decimal.Zero
	sellProceedsSum := decimal.Zero
	entries, exits := 0, 0

	for _, t := range sorted {
		qty := decimal.NewFromFloat(t.Quantity)

		switch {
		case t.Direction == model.DirectionIn && (t.ActionType == model.ActionBuy || t.ActionType == model.ActionTransferIn):
			cost := t.EffectiveUnitCost()
			if cost == nil {
				lots = append(lots, lot{qty: qty, unitCost: decimal.Zero, isAirdrop: true})
				break
			}
			unitCost := decimal.NewFromFloat(*cost)
			lots = append(lots, lot{qty: qty, unitCost: unitCost})
			totalInvested = totalInvested.Add(qty.Mul(unitCost))
			buyQtySum = buyQtySum.Add(qty)
			buyCostSum = buyCostSum.Add(qty.Mul(unitCost))
			entries++

		case t.Direction == model.DirectionIn && t.ActionType == model.ActionAirdrop:
			lots = append(lots, lot{qty: qty, unitCost: decimal.Zero, isAirdrop: true})
			entries++

		case t.Direction == model.DirectionOut && (t.ActionType == model.ActionSell || t.ActionType == model.ActionTransferOut):
			var salePrice decimal.Decimal
			if t.PricePerToken != nil {
				salePrice = decimal.NewFromFloat(*t.PricePerToken)
			}
			remaining := qty
			for remaining.GreaterThan(decimal.Zero) && len(lots) > 0 {
				head := &lots[0]
				taken := decimal.Min(head.qty, remaining)
				proceeds := taken.Mul(salePrice)
				realized := taken.Mul(salePrice.Sub(head.unitCost))
				if head.isAirdrop {
					gainsAirdrops = gainsAirdrops.Add(proceeds)
				} else {
					totalRealized = totalRealized.Add(realized)
				}
				sellQtySum = sellQtySum.Add(taken)
				sellProceedsSum = sellProceedsSum.Add(proceeds)
				head.qty = head.qty.Sub(taken)
				remaining = remaining.Sub(taken)
				if head.qty.IsZero() {
					lots = lots[1:]
				}
			}
			if remaining.GreaterThan(decimal.Zero) {
				proceeds := remaining.Mul(salePrice)
				gainsAirdrops = gainsAirdrops.Add(proceeds)
				sellQtySum = sellQtySum.Add(remaining)
				sellProceedsSum = sellProceedsSum.Add(proceeds)
				warnings = append(warnings, errs.UnitResult{
					Subject: t.Wallet + ":" + t.FungibleID,
					Err:     errs.New("fifo.Run", errs.KindDataIntegrity, errs.ErrNegativeInventory),
				})
			}
			exits++
		}
	}

	remainingQty := decimal.Zero
	remainingCost := decimal.Zero
	for _, l := range lots {
		remainingQty = remainingQty.Add(l.qty)
		if !l.isAirdrop {
			remainingCost = remainingCost.Add(l.qty.Mul(l.unitCost))
		}
	}

	var currentValue decimal.Decimal
	if currentPrice != nil {
		currentValue = remainingQty.Mul(*currentPrice)
	} else {
		currentValue = remainingCost
	}

	profitLoss := totalRealized.Add(currentValue).Sub(totalInvested)

	denom := totalInvested
	if denom.LessThanOrEqual(decimal.Zero) {
		denom = epsilon
	}
	roi := profitLoss.Div(denom).Mul(decimal.NewFromInt(100))

	status := model.StatusNeutre
	switch {
	case totalInvested.IsZero() && profitLoss.Add(gainsAirdrops).GreaterThan(decimal.Zero):
		status = model.StatusAirdropGagnant
	case roi.GreaterThanOrEqual(roiGagnantThreshold):
		status = model.StatusGagnant
	case roi.LessThan(decimal.Zero):
		status = model.StatusPerdant
	}

	weightedAvgBuy := decimal.Zero
	if buyQtySum.GreaterThan(decimal.Zero) {
		weightedAvgBuy = buyCostSum.Div(buyQtySum)
	}
	weightedAvgSell := decimal.Zero
	if sellQtySum.GreaterThan(decimal.Zero) {
		weightedAvgSell = sellProceedsSum.Div(sellQtySum)
	}

	out = model.TokenAnalytics{
		TotalInvestedUSD:     toFloat(totalInvested),
		TotalRealizedUSD:     toFloat(totalRealized),
		GainsAirdrops:        toFloat(gainsAirdrops),
		CurrentValueUSD:      toFloat(currentValue),
		ProfitLossUSD:        toFloat(profitLoss),
		ROIPercentage:        toFloat(roi),
		RemainingQuantity:    toFloat(remainingQty),
		RemainingCostBasis:   toFloat(remainingCost),
		WeightedAvgBuyPrice:  toFloat(weightedAvgBuy),
		WeightedAvgSellPrice: toFloat(weightedAvgSell),
		Status:               status,
		TotalEntries:         entries,
		TotalExits:           exits,
		TotalTransactions:    len(sorted),
		FirstTransactionDate: sorted[0].Timestamp,
		LastTransactionDate:  sorted[len(sorted)-1].Timestamp,
	}
	return out, warnings
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
