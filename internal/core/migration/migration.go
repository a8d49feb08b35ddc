// Package migration implements the Migration Handler (C8): detects
// when a smart wallet has moved most of its portfolio value to a fresh
// EOA within a trailing window, and records a Wallet Migration so the
// new address inherits cost basis rather than being scored as a cold
// start (spec §4.8). Workflow grounded on
// original_source/smart_wallet_analysis/tracking_live/wallet_migration_detector.py:
// 168h window, >70% of portfolio value, EOA check on the recipient,
// cost-basis inheritance gated by an IS NULL guard on the new wallet's
// transfers.
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/monitor"
	"smartwallet/internal/core/provider"
)

type Handler struct {
	cfg        config.MigrationConfig
	wallets    dao.WalletDAO
	migrations dao.WalletMigrationDAO
	transfers  dao.TransferDAO
	provider   provider.DataProvider
	eoa        provider.EOAChecker
	logger     *zap.Logger
}

func New(cfg config.MigrationConfig, wallets dao.WalletDAO, migrations dao.WalletMigrationDAO, transfers dao.TransferDAO, dp provider.DataProvider, eoa provider.EOAChecker, logger *zap.Logger) *Handler {
	return &Handler{cfg: cfg, wallets: wallets, migrations: migrations, transfers: transfers, provider: dp, eoa: eoa, logger: logger}
}

// Detect runs the migration check for a single smart wallet: fetch its
// recent outbound sends, find the recipient that received the largest
// share of portfolio value, and if that share clears the threshold and
// the recipient is a fresh EOA, record a migration (spec §4.8 steps 1-5).
func (h *Handler) Detect(ctx context.Context, oldWallet string) errs.UnitResult {
	w, err := h.wallets.GetByAddress(ctx, oldWallet)
	if err != nil || w == nil {
		return errs.UnitResult{Subject: oldWallet, Err: errs.New("migration.get_wallet", errs.KindExternal, err)}
	}

	sends, err := h.provider.ListRecentSends(ctx, oldWallet, w.Chain, h.cfg.WindowHours)
	if err != nil {
		return errs.UnitResult{Subject: oldWallet, Err: errs.New("migration.list_sends", errs.KindExternal, err)}
	}
	if len(sends) == 0 {
		return errs.UnitResult{Subject: oldWallet}
	}

	byRecipient := make(map[string][]provider.Send)
	totalSentUSD := 0.0
	for _, s := range sends {
		byRecipient[s.RecipientAddress] = append(byRecipient[s.RecipientAddress], s)
		totalSentUSD += s.USDValue
	}
	if totalSentUSD == 0 || w.TotalPortfolioValueUSD == 0 {
		return errs.UnitResult{Subject: oldWallet}
	}

	candidate, candidateUSD := "", 0.0
	for recipient, rs := range byRecipient {
		sum := 0.0
		for _, s := range rs {
			sum += s.USDValue
		}
		if sum > candidateUSD {
			candidate, candidateUSD = recipient, sum
		}
	}
	if candidate == "" {
		return errs.UnitResult{Subject: oldWallet}
	}

	pct := candidateUSD / w.TotalPortfolioValueUSD
	if pct <= h.cfg.ValueThresholdPct {
		return errs.UnitResult{Subject: oldWallet}
	}

	isEOA, err := h.eoa.IsEOA(ctx, w.Chain, candidate)
	if err != nil {
		return errs.UnitResult{Subject: oldWallet, Err: errs.New("migration.eoa_check", errs.KindExternal, err)}
	}
	if !isEOA {
		return errs.UnitResult{Subject: oldWallet}
	}

	tokens := byRecipient[candidate]
	transferred := make([]model.TransferredToken, 0, len(tokens))
	for _, s := range tokens {
		transferred = append(transferred, model.TransferredToken{
			Symbol: s.Symbol, FungibleID: s.FungibleID, Quantity: s.Quantity, ValueUSD: s.USDValue,
		})
	}
	snapshot, err := marshalTransferred(transferred)
	if err != nil {
		return errs.UnitResult{Subject: oldWallet, Err: errs.New("migration.marshal_snapshot", errs.KindInvalidData, err)}
	}

	mig := &model.WalletMigration{
		OldWallet:             oldWallet,
		NewWallet:             candidate,
		MigrationDate:         time.Now().Truncate(24 * time.Hour),
		TokensTransferred:     snapshot,
		TotalValueTransferred: candidateUSD,
		TransferPercentage:    pct,
		IsValidated:           true,
	}
	if err := h.migrations.Create(ctx, mig); err != nil {
		return errs.UnitResult{Subject: oldWallet, Err: errs.New("migration.persist", errs.KindExternal, err)}
	}

	if err := h.inheritCostBasis(ctx, oldWallet, candidate); err != nil {
		return errs.UnitResult{Subject: oldWallet, Err: err}
	}

	newWallet := &model.Wallet{
		Address:         candidate,
		Chain:           w.Chain,
		DiscoveryPeriod: model.DiscoveryPeriodMigrate,
		IsActive:        true,
	}
	if err := h.wallets.Upsert(ctx, newWallet); err != nil {
		return errs.UnitResult{Subject: oldWallet, Err: errs.New("migration.upsert_new_wallet", errs.KindExternal, err)}
	}

	monitor.MigrationsDetected.WithLabelValues(w.Chain).Inc()
	return errs.UnitResult{Subject: oldWallet}
}

// inheritCostBasis copies the old wallet's per-token weighted cost
// basis onto the new wallet's inbound transfers whose
// InheritedPricePerToken is still nil. A transfer that already carries
// an inherited price is skipped; the observed PricePerToken is never
// modified (spec §4.3 "Cost override" / §4.8 cost-basis inheritance via
// an IS NULL guard).
func (h *Handler) inheritCostBasis(ctx context.Context, oldWallet, newWallet string) *errs.Error {
	oldTransfers, err := h.transfers.ListByWallet(ctx, oldWallet)
	if err != nil {
		return errs.New("migration.list_old_transfers", errs.KindExternal, err)
	}
	avgCost := map[string]float64{}
	qty := map[string]float64{}
	for _, t := range oldTransfers {
		if t.Direction != model.DirectionIn {
			continue
		}
		cost := t.EffectiveUnitCost()
		if cost == nil {
			continue
		}
		avgCost[t.FungibleID] = (avgCost[t.FungibleID]*qty[t.FungibleID] + *cost*t.Quantity) / (qty[t.FungibleID] + t.Quantity)
		qty[t.FungibleID] += t.Quantity
	}

	newTransfers, err := h.transfers.ListByWallet(ctx, newWallet)
	if err != nil {
		return errs.New("migration.list_new_transfers", errs.KindExternal, err)
	}
	var toUpdate []model.Transfer
	for _, t := range newTransfers {
		if t.Direction != model.DirectionIn {
			continue
		}
		if t.InheritedPricePerToken != nil {
			continue // IS NULL guard: never overwrite an already-inherited cost
		}
		if cost, ok := avgCost[t.FungibleID]; ok {
			t.InheritedPricePerToken = &cost
			t.IsInheritedFromWallet = &oldWallet
			toUpdate = append(toUpdate, t)
		}
	}
	if len(toUpdate) == 0 {
		return nil
	}
	if err := h.transfers.UpdateInheritedCost(ctx, toUpdate); err != nil {
		return errs.New("migration.persist_inherited_cost", errs.KindExternal, err)
	}
	return nil
}

func marshalTransferred(tokens []model.TransferredToken) (datatypes.JSON, error) {
	if len(tokens) == 0 {
		return datatypes.JSON("[]"), nil
	}
	b, err := sonic.Marshal(tokens)
	if err != nil {
		return nil, fmt.Errorf("marshal transferred tokens: %w", err)
	}
	return datatypes.JSON(b), nil
}
