package meta

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	metadomain "github.com/adstation/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/adstation/campaign-manager-api/infrastructure/integrator/meta/metaclient"
	"github.com/adstation/campaign-manager-api/infrastructure/repository"
	"github.com/adstation/campaign-manager-api/internal/config"
	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/internal/usecases/reporting"
	"github.com/adstation/campaign-manager-api/pkg/utils"
)

// MetaIntegrator converts raw Graph API shapes into domain types. String
// numerics are coerced here; malformed or non-finite values degrade to zero
// with a warning, never into an error.
type MetaIntegrator struct {
	cfg         *config.Config
	Client      metaclient.Client
	accountRepo repository.AccountRepository
}

func New(cfg *config.Config, client metaclient.Client, accountRepo repository.AccountRepository) *MetaIntegrator {
	return &MetaIntegrator{
		cfg:         cfg,
		Client:      client,
		accountRepo: accountRepo,
	}
}

// GetEntitiesByLevel pulls the full structural snapshot of one level.
func (s *MetaIntegrator) GetEntitiesByLevel(accountID string, level domain.Level) ([]*domain.CatalogEntity, error) {
	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil || account == nil {
		logrus.WithField("account_id", accountID).WithError(err).Error("catalog: failed to resolve account for entity sync")
		return nil, err
	}

	raw, err := s.Client.GetEntitiesByLevel(account.ExternalID, level)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"level":      level,
		}).WithError(err).Error("catalog: failed to fetch entities from API")
		return nil, err
	}

	entities := make([]*domain.CatalogEntity, 0, len(raw))
	for i := range raw {
		entities = append(entities, factoryCatalogEntity(&raw[i], accountID, level))
	}

	return entities, nil
}

// GetEntityByID fetches one entity, used to confirm a status toggle.
func (s *MetaIntegrator) GetEntityByID(accountID string, level domain.Level, entityID string) (*domain.CatalogEntity, error) {
	raw, err := s.Client.GetEntityByID(entityID, level)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	return factoryCatalogEntity(raw, accountID, level), nil
}

// UpdateEntityStatus pushes a status flip, classifying platform refusals
// into the reporting error types.
func (s *MetaIntegrator) UpdateEntityStatus(entityID string, level domain.Level, active bool) error {
	err := s.Client.UpdateEntityStatus(entityID, active)
	if err == nil {
		return nil
	}

	var graphErr *metaclient.GraphError
	if errors.As(err, &graphErr) {
		if graphErr.RateLimited() {
			return &reporting.StatusUpdateRateLimitedError{Reason: graphErr.Details.Message}
		}
		if graphErr.PermissionDenied() {
			return &reporting.StatusUpdateRejectedError{Reason: graphErr.Details.Message}
		}
	}

	return err
}

// GetAccountSnapshot probes an account's health, currency and name.
func (s *MetaIntegrator) GetAccountSnapshot(accountExternalID string) (*domain.AdAccount, error) {
	raw, err := s.Client.GetAdAccountByExternalID(accountExternalID)
	if err != nil {
		logrus.WithField("account_external_id", accountExternalID).WithError(err).Error("catalog: failed to fetch ad account")
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	health := domain.AccountHealthy
	if raw.Blocked() {
		health = domain.AccountDisabled
		if raw.Unpaid() {
			health = domain.AccountUnpaid
		}
	}

	status := domain.AdAccountStatusActive
	if raw.Blocked() {
		status = domain.AdAccountStatusInactive
	}

	return &domain.AdAccount{
		ExternalID: raw.ID,
		Name:       raw.Name,
		Currency:   raw.Currency,
		Status:     status,
		Health:     health,
		UpdatedAt:  time.Now(),
	}, nil
}

// GetInsights pulls the daily insight series of one level for the window.
// ingestedAt stamps the whole batch: one sync run, one timestamp.
func (s *MetaIntegrator) GetInsights(accountID string, level domain.Level, startDate, endDate time.Time, ingestedAt time.Time) ([]*domain.InsightRecord, error) {
	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil || account == nil {
		logrus.WithField("account_id", accountID).WithError(err).Error("insights: failed to resolve account for insight sync")
		return nil, err
	}

	raw, err := s.Client.GetInsightsByLevel(account.ExternalID, level, startDate, endDate)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"level":      level,
		}).WithError(err).Error("insights: failed to fetch insights from API")
		return nil, err
	}

	records := make([]*domain.InsightRecord, 0, len(raw))
	for i := range raw {
		if rec := factoryInsightRecord(&raw[i], level, ingestedAt); rec != nil {
			records = append(records, rec)
		}
	}

	return records, nil
}

func factoryCatalogEntity(raw *metadomain.Entity, accountID string, level domain.Level) *domain.CatalogEntity {
	parentID := ""
	switch level {
	case domain.LevelAdset:
		parentID = raw.CampaignID
	case domain.LevelAd:
		parentID = raw.AdsetID
	}

	updatedAt := time.Now()
	if raw.UpdatedTime != "" {
		if parsed, err := time.Parse("2006-01-02T15:04:05-0700", raw.UpdatedTime); err == nil {
			updatedAt = parsed
		}
	}

	return &domain.CatalogEntity{
		ID:               raw.ID,
		AccountID:        accountID,
		Level:            level,
		ParentID:         parentID,
		Name:             raw.Name,
		ConfiguredStatus: raw.Status,
		ReportedStatus:   raw.EffectiveStatus,
		DailyBudget:      parseAmount(raw.ID, "daily_budget", raw.DailyBudget),
		LifetimeBudget:   parseAmount(raw.ID, "lifetime_budget", raw.LifetimeBudget),
		IsDeleted:        raw.Status == "DELETED" || raw.EffectiveStatus == "DELETED",
		UpdatedAt:        updatedAt,
	}
}

func factoryInsightRecord(raw *metadomain.Insight, level domain.Level, ingestedAt time.Time) *domain.InsightRecord {
	entityID := raw.CampaignID
	switch level {
	case domain.LevelAdset:
		entityID = raw.AdsetID
	case domain.LevelAd:
		entityID = raw.AdID
	}
	if entityID == "" {
		logrus.WithField("date_start", raw.DateStart).Warn("insights: row without entity id, skipping")
		return nil
	}

	date, err := utils.ParseDate(raw.DateStart)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"entity_id":  entityID,
			"date_start": raw.DateStart,
		}).Warn("insights: row with unparseable date, skipping")
		return nil
	}

	return &domain.InsightRecord{
		EntityID:      entityID,
		Level:         level,
		Date:          *date,
		CampaignID:    raw.CampaignID,
		AdsetID:       raw.AdsetID,
		Spend:         parseFloat(entityID, "spend", raw.Spend),
		Impressions:   parseInt(entityID, "impressions", raw.Impressions),
		Clicks:        parseInt(entityID, "clicks", raw.Clicks),
		Reach:         parseInt(entityID, "reach", raw.Reach),
		Actions:       factoryActions(raw.Actions),
		CostPerAction: factoryActions(raw.CostPerActions),
		Objective:     raw.Objective,
		IngestedAt:    ingestedAt,
	}
}

func factoryActions(raw []metadomain.Action) []domain.Action {
	if len(raw) == 0 {
		return nil
	}

	actions := make([]domain.Action, 0, len(raw))
	for _, a := range raw {
		value, err := strconv.ParseFloat(a.Value, 64)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"action_type": a.ActionType,
				"value":       a.Value,
			}).Warn("insights: error converting action value to float")
		}
		actions = append(actions, domain.Action{
			ActionType: a.ActionType,
			Value:      utils.Finite(value),
		})
	}
	return actions
}

func parseFloat(entityID, field, value string) float64 {
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"entity_id": entityID,
			"field":     field,
			"value":     value,
		}).Warn("insights: error converting value to float")
		return 0
	}
	return utils.Finite(f)
}

func parseInt(entityID, field, value string) int64 {
	if value == "" {
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"entity_id": entityID,
			"field":     field,
			"value":     value,
		}).Warn("insights: error converting value to int")
		return 0
	}
	return n
}

func parseAmount(entityID, field, value string) int64 {
	return parseInt(entityID, field, value)
}
