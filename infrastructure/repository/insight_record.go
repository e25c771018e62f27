package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/adstation/campaign-manager-api/infrastructure/database/postgres"
	"github.com/adstation/campaign-manager-api/internal/domain"
)

const insightRecordsTable = "insight_records ir"

// InsightRecordRepository is the append-only store of daily insight rows.
// Ingestion never updates rows in place: a retried sync simply appends
// duplicates with a newer ingested_at, and reads return everything for the
// aggregation engine to deduplicate.
type InsightRecordRepository interface {
	SaveBatch(accountID string, records []*domain.InsightRecord) error
	GetByLevelsAndDateRange(accountID string, levels []domain.Level, startDate, endDate time.Time) ([]*domain.InsightRecord, error)
	DeleteOlderThan(days int) (int64, error)
}

type insightRecordRepository struct {
	conn *postgres.Connection
}

func NewInsightRecordRepository(conn *postgres.Connection) InsightRecordRepository {
	return &insightRecordRepository{
		conn: conn,
	}
}

func (r *insightRecordRepository) SaveBatch(accountID string, records []*domain.InsightRecord) error {
	if len(records) == 0 {
		return nil
	}

	queryBuilder := squirrel.
		Insert("insight_records").
		Columns("account_id", "entity_id", "level", "date", "campaign_id", "adset_id", "spend", "impressions", "clicks", "reach", "actions", "cost_per_action", "objective", "ingested_at").
		PlaceholderFormat(squirrel.Dollar)

	for _, rec := range records {
		actionsJSON, err := marshalActions(rec.Actions)
		if err != nil {
			return fmt.Errorf("serializing actions for %s: %w", rec.EntityID, err)
		}
		costsJSON, err := marshalActions(rec.CostPerAction)
		if err != nil {
			return fmt.Errorf("serializing cost_per_action for %s: %w", rec.EntityID, err)
		}

		queryBuilder = queryBuilder.Values(
			accountID,
			rec.EntityID,
			rec.Level,
			rec.Date.Format("2006-01-02"),
			nullableString(rec.CampaignID),
			nullableString(rec.AdsetID),
			rec.Spend,
			rec.Impressions,
			rec.Clicks,
			rec.Reach,
			actionsJSON,
			costsJSON,
			rec.Objective,
			rec.IngestedAt,
		)
	}

	insertSQL, insertArgs, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("building insight batch insert: %w", err)
	}

	_, err = r.conn.Exec(insertSQL, insertArgs...)
	return err
}

func (r *insightRecordRepository) GetByLevelsAndDateRange(accountID string, levels []domain.Level, startDate, endDate time.Time) ([]*domain.InsightRecord, error) {
	query, args, err := squirrel.
		Select("ir.entity_id, ir.level, ir.date, ir.campaign_id, ir.adset_id, ir.spend, ir.impressions, ir.clicks, ir.reach, ir.actions, ir.cost_per_action, ir.objective, ir.ingested_at").
		From(insightRecordsTable).
		Where(squirrel.Eq{"ir.account_id": accountID, "ir.level": levels}).
		Where(squirrel.GtOrEq{"ir.date": startDate.Format("2006-01-02")}).
		Where(squirrel.LtOrEq{"ir.date": endDate.Format("2006-01-02")}).
		OrderBy("ir.date ASC", "ir.ingested_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insight query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying insight records: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.InsightRecord, 0)
	for rows.Next() {
		rec, err := scanInsightRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning insight record: %w", err)
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating insight rows: %w", err)
	}

	return records, nil
}

func (r *insightRecordRepository) DeleteOlderThan(days int) (int64, error) {
	deleteSQL, deleteArgs, err := squirrel.
		Delete("insight_records").
		Where(squirrel.Expr("date < NOW() - MAKE_INTERVAL(days => ?)", days)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building insight retention delete: %w", err)
	}

	result, err := r.conn.Exec(deleteSQL, deleteArgs...)
	if err != nil {
		return 0, fmt.Errorf("deleting old insight records: %w", err)
	}

	return result.RowsAffected()
}

func scanInsightRecord(rows *sql.Rows) (*domain.InsightRecord, error) {
	rec := &domain.InsightRecord{}
	var campaignID, adsetID sql.NullString
	var actionsJSON, costsJSON []byte

	if err := rows.Scan(
		&rec.EntityID,
		&rec.Level,
		&rec.Date,
		&campaignID,
		&adsetID,
		&rec.Spend,
		&rec.Impressions,
		&rec.Clicks,
		&rec.Reach,
		&actionsJSON,
		&costsJSON,
		&rec.Objective,
		&rec.IngestedAt,
	); err != nil {
		return nil, err
	}

	rec.CampaignID = campaignID.String
	rec.AdsetID = adsetID.String

	if len(actionsJSON) > 0 {
		if err := json.Unmarshal(actionsJSON, &rec.Actions); err != nil {
			return nil, fmt.Errorf("deserializing actions: %w", err)
		}
	}
	if len(costsJSON) > 0 {
		if err := json.Unmarshal(costsJSON, &rec.CostPerAction); err != nil {
			return nil, fmt.Errorf("deserializing cost_per_action: %w", err)
		}
	}

	return rec, nil
}

func marshalActions(actions []domain.Action) ([]byte, error) {
	if actions == nil {
		return nil, nil
	}
	return json.Marshal(actions)
}
