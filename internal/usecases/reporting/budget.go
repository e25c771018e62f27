package reporting

import (
	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/pkg/utils"
)

// zeroDecimalCurrencies are the currencies the platform bills in whole units;
// every other currency reports budgets in minor units (cents).
var zeroDecimalCurrencies = map[string]bool{
	"CLP": true,
	"CRC": true,
	"HUF": true,
	"ISK": true,
	"JPY": true,
	"KRW": true,
	"PYG": true,
	"TWD": true,
	"UGX": true,
	"VND": true,
	"XAF": true,
	"XOF": true,
}

// BudgetResolver computes display budgets with the two inheritance
// directions: a campaign with no own budget sums its ad sets' daily budgets
// (ABO), and an ad set with no own budget shows its campaign's (CBO). At
// most one direction applies to any row.
type BudgetResolver struct {
	catalog *CatalogStore
}

func NewBudgetResolver(catalog *CatalogStore) *BudgetResolver {
	return &BudgetResolver{catalog: catalog}
}

// Resolve returns the effective budget of an entity, or nil when neither the
// entity nor its budget-owning relative carries one.
func (r *BudgetResolver) Resolve(accountID string, e *domain.CatalogEntity, currency string) *domain.BudgetInfo {
	if e == nil {
		return nil
	}

	raw, budgetType := ownBudget(e)
	inherited := false

	if raw == 0 {
		switch e.Level {
		case domain.LevelCampaign:
			// ABO: budget lives on the ad sets.
			var sum int64
			for _, child := range r.catalog.ByLevel(accountID, domain.LevelAdset, e.ID) {
				if child.IsDeleted || child.Archived() {
					continue
				}
				sum += child.DailyBudget
			}
			if sum > 0 {
				raw, budgetType, inherited = sum, domain.BudgetDaily, true
			}
		case domain.LevelAdset:
			// CBO: display the campaign's budget.
			if parent := r.catalog.Get(accountID, domain.LevelCampaign, e.ParentID); parent != nil {
				if parentRaw, parentType := ownBudget(parent); parentRaw > 0 {
					raw, budgetType, inherited = parentRaw, parentType, true
				}
			}
		}
	}

	if raw == 0 {
		return nil
	}

	amount := normalizeAmount(raw, currency)

	info := &domain.BudgetInfo{
		Amount:      amount,
		Type:        budgetType,
		IsInherited: inherited,
	}

	// Flat multiples of the daily amount. Estimates only, not
	// calendar-exact.
	if budgetType == domain.BudgetDaily {
		info.Weekly = utils.RoundWithTwoDecimalPlace(amount * 7)
		info.Monthly = utils.RoundWithTwoDecimalPlace(amount * 30)
		info.Quarterly = utils.RoundWithTwoDecimalPlace(amount * 90)
		info.Yearly = utils.RoundWithTwoDecimalPlace(amount * 365)
	}

	return info
}

func ownBudget(e *domain.CatalogEntity) (int64, domain.BudgetType) {
	if e.DailyBudget > 0 {
		return e.DailyBudget, domain.BudgetDaily
	}
	return e.LifetimeBudget, domain.BudgetLifetime
}

func normalizeAmount(raw int64, currency string) float64 {
	if zeroDecimalCurrencies[currency] {
		return float64(raw)
	}
	return utils.RoundWithTwoDecimalPlace(float64(raw) / 100)
}
