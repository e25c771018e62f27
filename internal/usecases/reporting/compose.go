package reporting

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/pkg/utils"
)

// ErrAccountNotFound is returned when a view targets an unregistered account.
var ErrAccountNotFound = errors.New("ad account not found")

// ViewQuery describes one report resolution: a hierarchy level, an optional
// parent filter, a date window and the presentation options.
type ViewQuery struct {
	AccountID string
	Level     domain.Level
	ParentID  string
	StartDate time.Time
	EndDate   time.Time
	// Statuses is an explicit allow-list. Empty means the default filter:
	// everything except DELETED and ARCHIVED. Unknown-status rows are
	// always kept.
	Statuses  []domain.EffectiveStatus
	SortField string
	SortDesc  bool
}

// Engine assembles report rows from the three inputs: the catalog store, the
// insight store and the override map. Resolution is a pure synchronous
// function of those inputs; the only parallelism is fetching the direct and
// child-level insight rows side by side before computation starts.
type Engine struct {
	catalog   *CatalogStore
	overrides *OverrideStore
	insights  InsightSource
	accounts  AccountSource
	status    *StatusResolver
	budget    *BudgetResolver
}

func NewEngine(catalog *CatalogStore, overrides *OverrideStore, insights InsightSource, accounts AccountSource) *Engine {
	return &Engine{
		catalog:   catalog,
		overrides: overrides,
		insights:  insights,
		accounts:  accounts,
		status:    NewStatusResolver(catalog, overrides),
		budget:    NewBudgetResolver(catalog),
	}
}

// ResolveView returns the ordered, status-annotated row set for the query.
// Every catalog entity at the level appears exactly once: entities without
// delivery in the window come back as synthetic zero rows.
func (e *Engine) ResolveView(q ViewQuery) ([]*domain.ResolvedRow, error) {
	if q.StartDate.IsZero() || q.EndDate.IsZero() {
		return nil, errors.New("start and end dates are required")
	}
	if q.StartDate.After(q.EndDate) {
		return nil, errors.New("start date must not be after end date")
	}

	account, err := e.accounts.GetAccountByExternalID(q.AccountID)
	if err != nil {
		return nil, errors.Wrap(err, "loading account")
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	records, err := e.fetchInsights(account.ID, q)
	if err != nil {
		return nil, err
	}

	merged := MergeLevel(records, q.Level, q.ParentID, q.StartDate, q.EndDate)

	rows := make([]*domain.ResolvedRow, 0, len(merged))
	seen := make(map[string]bool, len(merged))

	for entityID, dayRows := range merged {
		seen[entityID] = true
		rows = append(rows, e.buildRow(account, q, entityID, dayRows))
	}

	// Pseudo-rows: catalog entities with no insight rows in the window
	// still appear, zero-valued, so "no delivery yet" stays visible.
	for _, entity := range e.catalog.ByLevel(account.ID, q.Level, q.ParentID) {
		if seen[entity.ID] {
			continue
		}
		rows = append(rows, e.buildSyntheticRow(account, q, entity))
	}

	rows = filterByStatus(rows, q.Statuses)
	sortRows(rows, q.SortField, q.SortDesc)

	return rows, nil
}

// fetchInsights loads the requested level and its child level side by side.
func (e *Engine) fetchInsights(accountID string, q ViewQuery) ([]*domain.InsightRecord, error) {
	var (
		directRows, childRows []*domain.InsightRecord
		directErr, childErr   error
	)

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		directRows, directErr = e.insights.GetByLevelsAndDateRange(accountID, []domain.Level{q.Level}, q.StartDate, q.EndDate)
	}()

	if childLevel, ok := q.Level.Child(); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			childRows, childErr = e.insights.GetByLevelsAndDateRange(accountID, []domain.Level{childLevel}, q.StartDate, q.EndDate)
		}()
	}

	wg.Wait()

	if directErr != nil {
		return nil, errors.Wrap(directErr, "loading insight rows")
	}
	if childErr != nil {
		// Backfill input only; direct rows alone still produce a report.
		logrus.WithError(childErr).Warn("report: failed to load child-level insight rows, skipping backfill")
	}

	return append(directRows, childRows...), nil
}

func (e *Engine) buildRow(account *domain.AdAccount, q ViewQuery, entityID string, dayRows []*domain.InsightRecord) *domain.ResolvedRow {
	total := Rollup(dayRows)

	row := &domain.ResolvedRow{
		EntityID:     entityID,
		Level:        q.Level,
		Objective:    total.Objective,
		Spend:        utils.RoundWithTwoDecimalPlace(total.Spend),
		Impressions:  total.Impressions,
		Clicks:       total.Clicks,
		Reach:        total.Reach,
		LastDate:     total.Date,
		ResultByDate: make(map[string]int64, len(dayRows)),
		SpendByDate:  make(map[string]float64, len(dayRows)),
	}

	// Ratios come from the summed numerators and denominators.
	row.CTR = utils.RoundWithTwoDecimalPlace(utils.SafeDiv(float64(total.Clicks), float64(total.Impressions)) * 100)
	row.CPM = utils.RoundWithTwoDecimalPlace(utils.SafeDiv(total.Spend, float64(total.Impressions)) * 1000)
	row.CPC = utils.RoundWithTwoDecimalPlace(utils.SafeDiv(total.Spend, float64(total.Clicks)))
	row.Frequency = utils.RoundWithTwoDecimalPlace(utils.SafeDiv(float64(total.Impressions), float64(total.Reach)))

	row.ResultCount, row.ResultLabel, row.CostPerResult = DeriveResult(total)

	for _, day := range dayRows {
		dateKey := day.Date.Format(time.DateOnly)
		count, _, _ := DeriveResult(day)
		row.ResultByDate[dateKey] = count
		row.SpendByDate[dateKey] = utils.RoundWithTwoDecimalPlace(day.Spend)
	}

	entity := e.catalog.Get(account.ID, q.Level, entityID)
	if entity != nil {
		row.Name = entity.Name
		row.ParentID = entity.ParentID
	} else {
		// Insight row referencing an entity the catalog does not know:
		// rendered neutrally, never fatal.
		logrus.WithFields(logrus.Fields{
			"entity_id": entityID,
			"level":     q.Level,
		}).Debug("report: insight row without catalog entry")
	}

	e.annotate(account, row, entity)
	return row
}

func (e *Engine) buildSyntheticRow(account *domain.AdAccount, q ViewQuery, entity *domain.CatalogEntity) *domain.ResolvedRow {
	row := &domain.ResolvedRow{
		EntityID:    entity.ID,
		Name:        entity.Name,
		Level:       q.Level,
		ParentID:    entity.ParentID,
		IsSynthetic: true,
	}
	e.annotate(account, row, entity)
	return row
}

// annotate fills status and budget, the two catalog-derived columns.
func (e *Engine) annotate(account *domain.AdAccount, row *domain.ResolvedRow, entity *domain.CatalogEntity) {
	row.EffectiveStatus = e.status.Resolve(account.ID, account.Health, row.Level, row.EntityID)
	row.StatusLabel = row.EffectiveStatus.Label()
	row.Budget = e.budget.Resolve(account.ID, entity, account.Currency)
}

func filterByStatus(rows []*domain.ResolvedRow, allowed []domain.EffectiveStatus) []*domain.ResolvedRow {
	out := rows[:0]

	if len(allowed) == 0 {
		for _, row := range rows {
			if row.EffectiveStatus == domain.StatusDeleted || row.EffectiveStatus == domain.StatusArchived {
				continue
			}
			out = append(out, row)
		}
		return out
	}

	allowedSet := make(map[domain.EffectiveStatus]bool, len(allowed))
	for _, st := range allowed {
		allowedSet[st] = true
	}

	for _, row := range rows {
		// Unknown-status rows always pass the filter.
		if row.EffectiveStatus == domain.StatusUnknown || allowedSet[row.EffectiveStatus] {
			out = append(out, row)
		}
	}
	return out
}

// statusTier buckets statuses for ordering: running first, then the
// downgraded, then paused, then everything else.
func statusTier(st domain.EffectiveStatus) int {
	switch st {
	case domain.StatusActive:
		return 0
	case domain.StatusAdsetPaused:
		return 1
	case domain.StatusPaused, domain.StatusCampaignPaused:
		return 2
	default:
		return 3
	}
}

func sortRows(rows []*domain.ResolvedRow, field string, desc bool) {
	switch field {
	case "":
		// Default ordering: status tiers ascending, newest data first
		// within a tier.
		sort.SliceStable(rows, func(i, j int) bool {
			ti, tj := statusTier(rows[i].EffectiveStatus), statusTier(rows[j].EffectiveStatus)
			if ti != tj {
				return ti < tj
			}
			if !rows[i].LastDate.Equal(rows[j].LastDate) {
				return rows[i].LastDate.After(rows[j].LastDate)
			}
			return rows[i].EntityID < rows[j].EntityID
		})
	case "status", "effective_status":
		sort.SliceStable(rows, func(i, j int) bool {
			ti, tj := statusTier(rows[i].EffectiveStatus), statusTier(rows[j].EffectiveStatus)
			if desc {
				return ti > tj
			}
			return ti < tj
		})
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			vi, iOK := sortValue(rows[i], field)
			vj, jOK := sortValue(rows[j], field)
			// Rows without a value sort last in either direction.
			if iOK != jOK {
				return iOK
			}
			if !iOK {
				return false
			}
			if desc {
				return vi > vj
			}
			return vi < vj
		})
	}
}

// sortValue maps a sortable column to a comparable number; false means the
// row has no value for the column.
func sortValue(row *domain.ResolvedRow, field string) (float64, bool) {
	switch field {
	case "spend":
		return row.Spend, true
	case "impressions":
		return float64(row.Impressions), true
	case "clicks":
		return float64(row.Clicks), true
	case "reach":
		return float64(row.Reach), true
	case "result", "result_count":
		return float64(row.ResultCount), true
	case "cost_per_result":
		return row.CostPerResult, true
	case "ctr":
		return row.CTR, true
	case "frequency":
		return row.Frequency, true
	case "budget":
		if row.Budget == nil {
			return 0, false
		}
		return row.Budget.Amount, true
	}
	return 0, false
}
