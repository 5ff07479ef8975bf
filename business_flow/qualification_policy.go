package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/repository"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// Qualification policy names accepted in configuration
const (
	PolicyPurchaseVolume = "purchase_volume"
	PolicyCreditVolume   = "credit_volume"
	PolicyNone           = "none"
)

// QualificationPolicy scores a trader against discount thresholds.
// Implementations only read; they never mutate the ledger.
type QualificationPolicy interface {
	Name() string
	Score(ctx context.Context, trader *models.Trader) (float64, error)
}

// NewQualificationPolicy resolves a configured policy name; empty selects purchase volume
func NewQualificationPolicy(name string, txRepo repository.TransactionRepository) (QualificationPolicy, error) {
	switch name {
	case "", PolicyPurchaseVolume:
		return &LedgerVolumePolicy{txRepo: txRepo, kind: models.TransactionKindVoucherPurchase, name: PolicyPurchaseVolume}, nil
	case PolicyCreditVolume:
		return &LedgerVolumePolicy{txRepo: txRepo, kind: models.TransactionKindCreditAdd, name: PolicyCreditVolume}, nil
	case PolicyNone:
		return NoQualificationPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown qualification policy %q", name)
	}
}

// LedgerVolumePolicy scores a trader by the cumulative major-unit volume of one ledger kind
type LedgerVolumePolicy struct {
	txRepo repository.TransactionRepository
	kind   models.TransactionKind
	name   string
}

func (p *LedgerVolumePolicy) Name() string { return p.name }

func (p *LedgerVolumePolicy) Score(ctx context.Context, trader *models.Trader) (float64, error) {
	total, err := p.txRepo.SumMagnitudeByKind(ctx, trader.ID, p.kind)
	if err != nil {
		return 0, err
	}
	return utils.FromMinorUnits(total), nil
}

// NoQualificationPolicy always scores 0, so only threshold-0 rules apply
type NoQualificationPolicy struct{}

func (NoQualificationPolicy) Name() string { return PolicyNone }

func (NoQualificationPolicy) Score(context.Context, *models.Trader) (float64, error) {
	return 0, nil
}
