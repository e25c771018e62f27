package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/adstation/campaign-manager-api/infrastructure/database/postgres"
	"github.com/adstation/campaign-manager-api/internal/domain"
)

const catalogEntitiesTable = "catalog_entities ce"

type CatalogEntityRepository interface {
	GetByAccountAndLevel(accountID string, level domain.Level) ([]*domain.CatalogEntity, error)
	// ReplaceForAccountLevel upserts the snapshot and flags every row of
	// the level that is absent from it as deleted. Rows are never removed:
	// deletion must stay visible to reporting.
	ReplaceForAccountLevel(accountID string, level domain.Level, entities []*domain.CatalogEntity) error
}

type catalogEntityRepository struct {
	conn *postgres.Connection
}

func NewCatalogEntityRepository(conn *postgres.Connection) CatalogEntityRepository {
	return &catalogEntityRepository{
		conn: conn,
	}
}

func (r *catalogEntityRepository) GetByAccountAndLevel(accountID string, level domain.Level) ([]*domain.CatalogEntity, error) {
	query, args, err := squirrel.
		Select("ce.id, ce.account_id, ce.level, ce.parent_id, ce.name, ce.configured_status, ce.reported_status, ce.daily_budget, ce.lifetime_budget, ce.is_deleted, ce.updated_at").
		From(catalogEntitiesTable).
		Where(squirrel.Eq{"ce.account_id": accountID, "ce.level": level}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building catalog entities query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying catalog entities: %w", err)
	}
	defer rows.Close()

	entities := make([]*domain.CatalogEntity, 0)
	for rows.Next() {
		e := &domain.CatalogEntity{}
		var parentID sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&e.Level,
			&parentID,
			&e.Name,
			&e.ConfiguredStatus,
			&e.ReportedStatus,
			&e.DailyBudget,
			&e.LifetimeBudget,
			&e.IsDeleted,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning catalog entity: %w", err)
		}
		e.ParentID = parentID.String
		entities = append(entities, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog entity rows: %w", err)
	}

	return entities, nil
}

func (r *catalogEntityRepository) ReplaceForAccountLevel(accountID string, level domain.Level, entities []*domain.CatalogEntity) error {
	return r.conn.RunInTransaction(context.Background(), func(tx *sql.Tx) error {
		if len(entities) > 0 {
			queryBuilder := squirrel.
				Insert("catalog_entities").
				Columns("id", "account_id", "level", "parent_id", "name", "configured_status", "reported_status", "daily_budget", "lifetime_budget", "is_deleted", "updated_at").
				PlaceholderFormat(squirrel.Dollar).
				Suffix(`ON CONFLICT (id) DO UPDATE SET
					parent_id = EXCLUDED.parent_id,
					name = EXCLUDED.name,
					configured_status = EXCLUDED.configured_status,
					reported_status = EXCLUDED.reported_status,
					daily_budget = EXCLUDED.daily_budget,
					lifetime_budget = EXCLUDED.lifetime_budget,
					is_deleted = EXCLUDED.is_deleted,
					updated_at = EXCLUDED.updated_at`)

			for _, e := range entities {
				queryBuilder = queryBuilder.Values(
					e.ID,
					accountID,
					level,
					nullableString(e.ParentID),
					e.Name,
					e.ConfiguredStatus,
					e.ReportedStatus,
					e.DailyBudget,
					e.LifetimeBudget,
					e.IsDeleted,
					e.UpdatedAt,
				)
			}

			upsertSQL, upsertArgs, err := queryBuilder.ToSql()
			if err != nil {
				return fmt.Errorf("building catalog upsert: %w", err)
			}
			if _, err := tx.Exec(upsertSQL, upsertArgs...); err != nil {
				return fmt.Errorf("upserting catalog entities: %w", err)
			}
		}

		// Anything the snapshot no longer carries was deleted upstream.
		ids := make([]string, 0, len(entities))
		for _, e := range entities {
			ids = append(ids, e.ID)
		}

		flagBuilder := squirrel.
			Update("catalog_entities").
			Set("is_deleted", true).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"account_id": accountID, "level": level}).
			PlaceholderFormat(squirrel.Dollar)
		if len(ids) > 0 {
			flagBuilder = flagBuilder.Where(squirrel.NotEq{"id": ids})
		}

		flagSQL, flagArgs, err := flagBuilder.ToSql()
		if err != nil {
			return fmt.Errorf("building catalog deletion flag update: %w", err)
		}
		if _, err := tx.Exec(flagSQL, flagArgs...); err != nil {
			return fmt.Errorf("flagging removed catalog entities: %w", err)
		}

		return nil
	})
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
