package repository

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"

	"github.com/adstation/campaign-manager-api/infrastructure/database/postgres"
	"github.com/adstation/campaign-manager-api/internal/domain"
)

const adAccountsTable = "ad_accounts a"

type AccountRepository interface {
	GetAccountByID(accountID string) (*domain.AdAccount, error)
	GetAccountByExternalID(accountExternalID string) (*domain.AdAccount, error)
	ListAccounts(availableStatus []domain.AdAccountStatus) ([]*domain.AdAccount, error)
	SaveOrUpdate(accounts []*domain.AdAccount) error
	UpdateHealth(accountID string, health domain.AccountHealth) error
}

type accountRepository struct {
	conn *postgres.Connection
}

func NewAccountRepository(conn *postgres.Connection) AccountRepository {
	return &accountRepository{
		conn: conn,
	}
}

func (a *accountRepository) GetAccountByExternalID(accountExternalID string) (*domain.AdAccount, error) {
	return a.getAccount(squirrel.Eq{"a.external_id": accountExternalID})
}

func (a *accountRepository) GetAccountByID(accountID string) (*domain.AdAccount, error) {
	return a.getAccount(squirrel.Eq{"a.id": accountID})
}

func (a *accountRepository) getAccount(whereClause map[string]interface{}) (*domain.AdAccount, error) {
	accountsSQL, accountsArgs, err := squirrel.
		Select("a.id, a.external_id, a.name, a.nickname, a.currency, a.status, a.health, a.updated_at").
		From(adAccountsTable).
		Where(whereClause).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	row := a.conn.QueryRow(accountsSQL, accountsArgs...)

	acc, err := a.deserializeAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return acc, nil
}

func (a *accountRepository) deserializeAccount(row *sql.Row) (*domain.AdAccount, error) {
	acc := &domain.AdAccount{}

	if err := row.Scan(
		&acc.ID,
		&acc.ExternalID,
		&acc.Name,
		&acc.Nickname,
		&acc.Currency,
		&acc.Status,
		&acc.Health,
		&acc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return acc, nil
}

func (a *accountRepository) ListAccounts(availableStatus []domain.AdAccountStatus) ([]*domain.AdAccount, error) {
	queryBuilder := squirrel.
		Select("a.id, a.external_id, a.name, a.nickname, a.currency, a.status, a.health, a.updated_at").
		From(adAccountsTable).
		OrderBy("a.nickname ASC").
		PlaceholderFormat(squirrel.Dollar)

	if len(availableStatus) > 0 {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"a.status": availableStatus})
	}

	accountsSQL, accountsArgs, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := a.conn.Query(accountsSQL, accountsArgs...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.AdAccount, 0)
	for rows.Next() {
		acc := &domain.AdAccount{}
		if err := rows.Scan(
			&acc.ID,
			&acc.ExternalID,
			&acc.Name,
			&acc.Nickname,
			&acc.Currency,
			&acc.Status,
			&acc.Health,
			&acc.UpdatedAt,
		); err != nil {
			logrus.WithError(err).Error("Error deserializing ad account")
			continue
		}
		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

func (a *accountRepository) SaveOrUpdate(accounts []*domain.AdAccount) error {
	if len(accounts) == 0 {
		return nil
	}

	queryBuilder := squirrel.
		Insert("ad_accounts").
		Columns("id", "external_id", "name", "nickname", "currency", "status", "health", "updated_at").
		PlaceholderFormat(squirrel.Dollar).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			name = EXCLUDED.name,
			currency = EXCLUDED.currency,
			status = EXCLUDED.status,
			health = EXCLUDED.health,
			updated_at = EXCLUDED.updated_at`)

	for _, acc := range accounts {
		queryBuilder = queryBuilder.Values(
			acc.ID,
			acc.ExternalID,
			acc.Name,
			acc.Nickname,
			acc.Currency,
			acc.Status,
			acc.Health,
			acc.UpdatedAt,
		)
	}

	accountsSQL, accountsArgs, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = a.conn.Exec(accountsSQL, accountsArgs...)
	return err
}

func (a *accountRepository) UpdateHealth(accountID string, health domain.AccountHealth) error {
	updateSQL, updateArgs, err := squirrel.
		Update("ad_accounts").
		Set("health", health).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": accountID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = a.conn.Exec(updateSQL, updateArgs...)
	return err
}
