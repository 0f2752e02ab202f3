package claims

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

const claimCols = `id, claim_number, patient_id, patient_dob,
	rendering_provider_id, billing_provider_id, facility_id,
	primary_insurance_id, secondary_insurance_id, tertiary_insurance_id, payer_id,
	service_start, service_end, place_of_service, authorization_number, service_type,
	total_charges, patient_responsibility, insurance_amount, copay, deductible,
	status, created_at, updated_at`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.ClaimNumber, &c.PatientID, &c.PatientDOB,
		&c.RenderingProviderID, &c.BillingProviderID, &c.FacilityID,
		&c.PrimaryInsuranceID, &c.SecondaryInsuranceID, &c.TertiaryInsuranceID, &c.PayerID,
		&c.ServiceStart, &c.ServiceEnd, &c.PlaceOfService, &c.AuthorizationNumber, &c.ServiceType,
		&c.TotalCharges, &c.PatientResponsibility, &c.InsuranceAmount, &c.Copay, &c.Deductible,
		&c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Claim) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusDraft
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO claim (id, claim_number, patient_id, patient_dob,
			rendering_provider_id, billing_provider_id, facility_id,
			primary_insurance_id, secondary_insurance_id, tertiary_insurance_id, payer_id,
			service_start, service_end, place_of_service, authorization_number, service_type,
			total_charges, patient_responsibility, insurance_amount, copay, deductible, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		c.ID, c.ClaimNumber, c.PatientID, c.PatientDOB,
		c.RenderingProviderID, c.BillingProviderID, c.FacilityID,
		c.PrimaryInsuranceID, c.SecondaryInsuranceID, c.TertiaryInsuranceID, c.PayerID,
		c.ServiceStart, c.ServiceEnd, c.PlaceOfService, c.AuthorizationNumber, c.ServiceType,
		c.TotalCharges, c.PatientResponsibility, c.InsuranceAmount, c.Copay, c.Deductible, c.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx, `SELECT `+claimCols+` FROM claim WHERE id = $1`, id))
}

func (r *repoPG) GetByClaimNumber(ctx context.Context, claimNumber string) (*Claim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx, `SELECT `+claimCols+` FROM claim WHERE claim_number = $1`, claimNumber))
}

func (r *repoPG) Update(ctx context.Context, c *Claim) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE claim SET claim_number=$2, patient_dob=$3,
			rendering_provider_id=$4, billing_provider_id=$5, facility_id=$6,
			primary_insurance_id=$7, secondary_insurance_id=$8, tertiary_insurance_id=$9, payer_id=$10,
			service_start=$11, service_end=$12, place_of_service=$13,
			authorization_number=$14, service_type=$15,
			total_charges=$16, patient_responsibility=$17, insurance_amount=$18,
			copay=$19, deductible=$20, status=$21, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.ClaimNumber, c.PatientDOB,
		c.RenderingProviderID, c.BillingProviderID, c.FacilityID,
		c.PrimaryInsuranceID, c.SecondaryInsuranceID, c.TertiaryInsuranceID, c.PayerID,
		c.ServiceStart, c.ServiceEnd, c.PlaceOfService,
		c.AuthorizationNumber, c.ServiceType,
		c.TotalCharges, c.PatientResponsibility, c.InsuranceAmount,
		c.Copay, c.Deductible, c.Status)
	return err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE claim SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM claim WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM claim WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+claimCols+` FROM claim WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectClaims(rows, total)
}

func (r *repoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Claim, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM claim WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+claimCols+` FROM claim WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectClaims(rows, total)
}

func collectClaims(rows pgx.Rows, total int) ([]*Claim, int, error) {
	var items []*Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) FindOverlapping(ctx context.Context, patientID uuid.UUID, serviceDate time.Time, excludeID uuid.UUID) ([]*Claim, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+claimCols+` FROM claim
		WHERE patient_id = $1 AND id != $2
		  AND status IN ('submitted', 'processing', 'paid')
		  AND service_start <= $3
		  AND COALESCE(service_end, service_start) >= $3
		ORDER BY created_at DESC`, patientID, excludeID, serviceDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) AddProcedure(ctx context.Context, p *Procedure) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO claim_procedure (id, claim_id, cpt_code, description, quantity,
			unit_price, total_price, modifiers, diagnosis_pointer, service_date, place_of_service)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.ClaimID, p.CPTCode, p.Description, p.Quantity,
		p.UnitPrice, p.TotalPrice, p.Modifiers, p.DiagnosisPointer, p.ServiceDate, p.PlaceOfService)
	return err
}

func (r *repoPG) GetProcedures(ctx context.Context, claimID uuid.UUID) ([]*Procedure, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, claim_id, cpt_code, description, quantity,
			unit_price, total_price, modifiers, diagnosis_pointer, service_date, place_of_service, created_at
		FROM claim_procedure WHERE claim_id = $1 ORDER BY created_at`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Procedure
	for rows.Next() {
		var p Procedure
		if err := rows.Scan(&p.ID, &p.ClaimID, &p.CPTCode, &p.Description, &p.Quantity,
			&p.UnitPrice, &p.TotalPrice, &p.Modifiers, &p.DiagnosisPointer, &p.ServiceDate, &p.PlaceOfService, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

func (r *repoPG) AddDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO claim_diagnosis (id, claim_id, icd10_code, description, is_primary)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.ClaimID, d.ICD10Code, d.Description, d.IsPrimary)
	return err
}

func (r *repoPG) GetDiagnoses(ctx context.Context, claimID uuid.UUID) ([]*Diagnosis, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, claim_id, icd10_code, description, is_primary, created_at
		FROM claim_diagnosis WHERE claim_id = $1 ORDER BY is_primary DESC, created_at`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Diagnosis
	for rows.Next() {
		var d Diagnosis
		if err := rows.Scan(&d.ID, &d.ClaimID, &d.ICD10Code, &d.Description, &d.IsPrimary, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

func (r *repoPG) AddStatusHistory(ctx context.Context, h *StatusHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO claim_status_history (id, claim_id, from_status, to_status, changed_by, note)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		h.ID, h.ClaimID, h.FromStatus, h.ToStatus, h.ChangedBy, h.Note)
	return err
}

func (r *repoPG) GetStatusHistory(ctx context.Context, claimID uuid.UUID) ([]*StatusHistory, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, claim_id, from_status, to_status, changed_by, note, created_at
		FROM claim_status_history WHERE claim_id = $1 ORDER BY created_at`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*StatusHistory
	for rows.Next() {
		var h StatusHistory
		if err := rows.Scan(&h.ID, &h.ClaimID, &h.FromStatus, &h.ToStatus, &h.ChangedBy, &h.Note, &h.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &h)
	}
	return items, rows.Err()
}
