package eligibility

import (
	"context"
	"errors"
	"time"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, insurance_id, patient_id, service_date, status, note, checked_at, created_at`

func scanVerification(row pgx.Row) (*Verification, error) {
	var v Verification
	err := row.Scan(&v.ID, &v.InsuranceID, &v.PatientID, &v.ServiceDate,
		&v.Status, &v.Note, &v.CheckedAt, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *Verification) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CheckedAt.IsZero() {
		v.CheckedAt = time.Now()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO eligibility_verification (id, insurance_id, patient_id, service_date, status, note, checked_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		v.ID, v.InsuranceID, v.PatientID, v.ServiceDate, v.Status, v.Note, v.CheckedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Verification, error) {
	return scanVerification(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM eligibility_verification WHERE id = $1`, id))
}

func (r *repoPG) GetLatest(ctx context.Context, insuranceID uuid.UUID, serviceDate time.Time) (*Verification, error) {
	return scanVerification(r.conn(ctx).QueryRow(ctx, `
		SELECT `+cols+` FROM eligibility_verification
		WHERE insurance_id = $1 AND service_date = $2
		ORDER BY checked_at DESC LIMIT 1`, insuranceID, serviceDate))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Verification, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM eligibility_verification WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM eligibility_verification WHERE patient_id = $1 ORDER BY checked_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}
