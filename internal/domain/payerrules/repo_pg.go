package payerrules

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Payer Repository ===========

type payerRepoPG struct{ pool *pgxpool.Pool }

func NewPayerRepoPG(pool *pgxpool.Pool) PayerRepository { return &payerRepoPG{pool: pool} }

func (r *payerRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const payerCols = `id, name, payer_code, timely_filing_days, approval_rate, requires_auth_cpts, created_at, updated_at`

func scanPayer(row pgx.Row) (*Payer, error) {
	var p Payer
	err := row.Scan(&p.ID, &p.Name, &p.PayerCode, &p.TimelyFilingDays,
		&p.ApprovalRate, &p.RequiresAuthCPTs, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *payerRepoPG) Create(ctx context.Context, p *Payer) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.TimelyFilingDays <= 0 {
		p.TimelyFilingDays = DefaultTimelyFilingDays
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payer (id, name, payer_code, timely_filing_days, approval_rate, requires_auth_cpts)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.PayerCode, p.TimelyFilingDays, p.ApprovalRate, p.RequiresAuthCPTs)
	return err
}

func (r *payerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payer, error) {
	return scanPayer(r.conn(ctx).QueryRow(ctx, `SELECT `+payerCols+` FROM payer WHERE id = $1`, id))
}

func (r *payerRepoPG) GetByCode(ctx context.Context, payerCode string) (*Payer, error) {
	return scanPayer(r.conn(ctx).QueryRow(ctx, `SELECT `+payerCols+` FROM payer WHERE payer_code = $1`, payerCode))
}

func (r *payerRepoPG) Update(ctx context.Context, p *Payer) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE payer SET name=$2, payer_code=$3, timely_filing_days=$4,
			approval_rate=$5, requires_auth_cpts=$6, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.PayerCode, p.TimelyFilingDays, p.ApprovalRate, p.RequiresAuthCPTs)
	return err
}

func (r *payerRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM payer WHERE id = $1`, id)
	return err
}

func (r *payerRepoPG) List(ctx context.Context, limit, offset int) ([]*Payer, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM payer`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+payerCols+` FROM payer ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Payer
	for rows.Next() {
		p, err := scanPayer(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Rule Repository ===========

type ruleRepoPG struct{ pool *pgxpool.Pool }

func NewRuleRepoPG(pool *pgxpool.Pool) RuleRepository { return &ruleRepoPG{pool: pool} }

func (r *ruleRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const ruleCols = `id, payer_id, rule_type, condition, action, message, priority,
	effective_from, effective_to, active, created_at, updated_at`

func scanRule(row pgx.Row) (*Rule, error) {
	var ru Rule
	err := row.Scan(&ru.ID, &ru.PayerID, &ru.RuleType, &ru.Condition, &ru.Action, &ru.Message, &ru.Priority,
		&ru.EffectiveFrom, &ru.EffectiveTo, &ru.Active, &ru.CreatedAt, &ru.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &ru, err
}

func (r *ruleRepoPG) Create(ctx context.Context, ru *Rule) error {
	if ru.ID == uuid.Nil {
		ru.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payer_rule (id, payer_id, rule_type, condition, action, message, priority,
			effective_from, effective_to, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		ru.ID, ru.PayerID, ru.RuleType, ru.Condition, ru.Action, ru.Message, ru.Priority,
		ru.EffectiveFrom, ru.EffectiveTo, ru.Active)
	return err
}

func (r *ruleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return scanRule(r.conn(ctx).QueryRow(ctx, `SELECT `+ruleCols+` FROM payer_rule WHERE id = $1`, id))
}

func (r *ruleRepoPG) Update(ctx context.Context, ru *Rule) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE payer_rule SET rule_type=$2, condition=$3, action=$4, message=$5, priority=$6,
			effective_from=$7, effective_to=$8, active=$9, updated_at=NOW()
		WHERE id = $1`,
		ru.ID, ru.RuleType, ru.Condition, ru.Action, ru.Message, ru.Priority,
		ru.EffectiveFrom, ru.EffectiveTo, ru.Active)
	return err
}

func (r *ruleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM payer_rule WHERE id = $1`, id)
	return err
}

func (r *ruleRepoPG) ListByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]*Rule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM payer_rule WHERE payer_id = $1`, payerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+ruleCols+` FROM payer_rule WHERE payer_id = $1 ORDER BY priority DESC, created_at LIMIT $2 OFFSET $3`, payerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Rule
	for rows.Next() {
		ru, err := scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ru)
	}
	return items, total, rows.Err()
}

func (r *ruleRepoPG) ListActiveByPayer(ctx context.Context, payerID uuid.UUID) ([]*Rule, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+ruleCols+` FROM payer_rule
		WHERE payer_id = $1 AND active = TRUE
		ORDER BY priority DESC, created_at`, payerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Rule
	for rows.Next() {
		ru, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ru)
	}
	return items, rows.Err()
}
