package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
)

// SettingRepository is the typed per-tenant key/value settings gateway.
type SettingRepository interface {
	Get(ctx context.Context, companyID int64, key string) (string, error)
	Upsert(ctx context.Context, companyID int64, key, value string) (*domain.Setting, error)
	ListByCompany(ctx context.Context, companyID int64) ([]domain.Setting, error)

	// EscalationConfig resolves the escalation pair for one tenant.
	EscalationConfig(ctx context.Context, companyID int64) (domain.EscalationConfig, error)
	// EscalationConfigs resolves the escalation pair for every tenant that
	// has written either key.
	EscalationConfigs(ctx context.Context) (map[int64]domain.EscalationConfig, error)
}

type settingRepository struct {
	pool *pgxpool.Pool
}

// NewSettingRepository instantiates repository.
func NewSettingRepository(pool *pgxpool.Pool) SettingRepository {
	return &settingRepository{pool: pool}
}

func (r *settingRepository) Get(ctx context.Context, companyID int64, key string) (string, error) {
	const query = `SELECT value FROM settings WHERE company_id=$1 AND key=$2`
	var value string
	if err := r.pool.QueryRow(ctx, query, companyID, key).Scan(&value); err != nil {
		return "", err
	}
	return value, nil
}

func (r *settingRepository) Upsert(ctx context.Context, companyID int64, key, value string) (*domain.Setting, error) {
	const query = `
        INSERT INTO settings (company_id, key, value)
        VALUES ($1,$2,$3)
        ON CONFLICT (company_id, key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()
        RETURNING id, company_id, key, value, created_at, updated_at`
	var setting domain.Setting
	if err := r.pool.QueryRow(ctx, query, companyID, key, value).Scan(
		&setting.ID,
		&setting.CompanyID,
		&setting.Key,
		&setting.Value,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepository) ListByCompany(ctx context.Context, companyID int64) ([]domain.Setting, error) {
	const query = `
        SELECT id, company_id, key, value, created_at, updated_at
        FROM settings WHERE company_id=$1 ORDER BY key ASC`
	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Setting
	for rows.Next() {
		var setting domain.Setting
		if err := rows.Scan(
			&setting.ID,
			&setting.CompanyID,
			&setting.Key,
			&setting.Value,
			&setting.CreatedAt,
			&setting.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, setting)
	}
	return result, rows.Err()
}

func (r *settingRepository) EscalationConfig(ctx context.Context, companyID int64) (domain.EscalationConfig, error) {
	const query = `SELECT key, value FROM settings WHERE company_id=$1 AND key IN ($2,$3)`
	rows, err := r.pool.Query(ctx, query, companyID,
		domain.SettingKeyEscalationEnabled, domain.SettingKeyEscalationWaitMinutes)
	if err != nil {
		return domain.EscalationConfig{}, err
	}
	defer rows.Close()

	var cfg domain.EscalationConfig
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.EscalationConfig{}, err
		}
		applyEscalationKey(&cfg, key, value)
	}
	return cfg, rows.Err()
}

func (r *settingRepository) EscalationConfigs(ctx context.Context) (map[int64]domain.EscalationConfig, error) {
	const query = `SELECT company_id, key, value FROM settings WHERE key IN ($1,$2)`
	rows, err := r.pool.Query(ctx, query,
		domain.SettingKeyEscalationEnabled, domain.SettingKeyEscalationWaitMinutes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make(map[int64]domain.EscalationConfig)
	for rows.Next() {
		var companyID int64
		var key, value string
		if err := rows.Scan(&companyID, &key, &value); err != nil {
			return nil, err
		}
		cfg := configs[companyID]
		applyEscalationKey(&cfg, key, value)
		configs[companyID] = cfg
	}
	return configs, rows.Err()
}

// applyEscalationKey folds one stored row into the typed config. A
// non-numeric waitMinutes value is treated as missing, never as an error.
func applyEscalationKey(cfg *domain.EscalationConfig, key, value string) {
	switch key {
	case domain.SettingKeyEscalationEnabled:
		cfg.Enabled = domain.ParseEnabled(value)
	case domain.SettingKeyEscalationWaitMinutes:
		if minutes, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			cfg.WaitMinutes = minutes
		}
	}
}
