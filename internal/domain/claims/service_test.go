package claims

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	items      map[uuid.UUID]*Claim
	procedures map[uuid.UUID]*Procedure
	diagnoses  map[uuid.UUID]*Diagnosis
	history    []*StatusHistory

	addProcedureErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		items:      make(map[uuid.UUID]*Claim),
		procedures: make(map[uuid.UUID]*Procedure),
		diagnoses:  make(map[uuid.UUID]*Diagnosis),
	}
}

func (m *mockRepo) Create(_ context.Context, c *Claim) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	m.items[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Claim, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockRepo) GetByClaimNumber(_ context.Context, claimNumber string) (*Claim, error) {
	for _, c := range m.items {
		if c.ClaimNumber != nil && *c.ClaimNumber == claimNumber {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, c *Claim) error {
	if _, ok := m.items[c.ID]; !ok {
		return ErrNotFound
	}
	m.items[c.ID] = c
	return nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	c, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	var result []*Claim
	for _, c := range m.items {
		if c.PatientID == patientID {
			result = append(result, c)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByStatus(_ context.Context, status string, limit, offset int) ([]*Claim, int, error) {
	var result []*Claim
	for _, c := range m.items {
		if c.Status == status {
			result = append(result, c)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) FindOverlapping(_ context.Context, patientID uuid.UUID, serviceDate time.Time, excludeID uuid.UUID) ([]*Claim, error) {
	var result []*Claim
	for _, c := range m.items {
		if c.PatientID != patientID || c.ID == excludeID {
			continue
		}
		if c.Status != StatusSubmitted && c.Status != StatusProcessing && c.Status != StatusPaid {
			continue
		}
		if c.ServiceStart == nil {
			continue
		}
		end := *c.ServiceStart
		if c.ServiceEnd != nil {
			end = *c.ServiceEnd
		}
		if !serviceDate.Before(*c.ServiceStart) && !serviceDate.After(end) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockRepo) AddProcedure(_ context.Context, p *Procedure) error {
	if m.addProcedureErr != nil {
		return m.addProcedureErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.procedures[p.ID] = p
	return nil
}

func (m *mockRepo) GetProcedures(_ context.Context, claimID uuid.UUID) ([]*Procedure, error) {
	var result []*Procedure
	for _, p := range m.procedures {
		if p.ClaimID == claimID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockRepo) AddDiagnosis(_ context.Context, d *Diagnosis) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.diagnoses[d.ID] = d
	return nil
}

func (m *mockRepo) GetDiagnoses(_ context.Context, claimID uuid.UUID) ([]*Diagnosis, error) {
	var result []*Diagnosis
	for _, d := range m.diagnoses {
		if d.ClaimID == claimID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *mockRepo) AddStatusHistory(_ context.Context, h *StatusHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	h.CreatedAt = time.Now()
	m.history = append(m.history, h)
	return nil
}

func (m *mockRepo) GetStatusHistory(_ context.Context, claimID uuid.UUID) ([]*StatusHistory, error) {
	var result []*StatusHistory
	for _, h := range m.history {
		if h.ClaimID == claimID {
			result = append(result, h)
		}
	}
	return result, nil
}

// rollbackTx runs fn and restores the repo's state when fn fails, the
// way a real transaction would discard partial writes.
func rollbackTx(repo *mockRepo) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		items := make(map[uuid.UUID]*Claim, len(repo.items))
		for k, v := range repo.items {
			items[k] = v
		}
		procedures := make(map[uuid.UUID]*Procedure, len(repo.procedures))
		for k, v := range repo.procedures {
			procedures[k] = v
		}
		diagnoses := make(map[uuid.UUID]*Diagnosis, len(repo.diagnoses))
		for k, v := range repo.diagnoses {
			diagnoses[k] = v
		}
		history := append([]*StatusHistory(nil), repo.history...)
		if err := fn(ctx); err != nil {
			repo.items = items
			repo.procedures = procedures
			repo.diagnoses = diagnoses
			repo.history = history
			return err
		}
		return nil
	}
}

// -- Tests --

func TestCreateClaim(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	c := &Claim{PatientID: uuid.New()}

	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == uuid.Nil {
		t.Fatal("expected claim ID to be set")
	}
	if c.Status != StatusDraft {
		t.Fatalf("expected draft status, got %s", c.Status)
	}
}

func TestCreateClaim_PatientRequired(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	c := &Claim{}

	if err := svc.Create(context.Background(), c); err == nil {
		t.Fatal("expected error for missing patient_id")
	}
}

func TestCreateClaim_WithChildren(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	unit := 100.0
	c := &Claim{
		PatientID: uuid.New(),
		Procedures: []*Procedure{
			{CPTCode: "99213", Quantity: 1, UnitPrice: &unit},
		},
		Diagnoses: []*Diagnosis{
			{ICD10Code: "E11.9", IsPrimary: true},
		},
	}

	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	procs, _ := repo.GetProcedures(context.Background(), c.ID)
	if len(procs) != 1 {
		t.Fatalf("expected 1 procedure, got %d", len(procs))
	}
	diags, _ := repo.GetDiagnoses(context.Background(), c.ID)
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnosis, got %d", len(diags))
	}
}

func TestCreateClaim_ChildInsertFailureRollsBack(t *testing.T) {
	repo := newMockRepo()
	repo.addProcedureErr = errors.New("insert failed")
	svc := NewService(repo, rollbackTx(repo))
	unit := 100.0
	c := &Claim{
		PatientID: uuid.New(),
		Procedures: []*Procedure{
			{CPTCode: "99213", Quantity: 1, UnitPrice: &unit},
		},
		Diagnoses: []*Diagnosis{
			{ICD10Code: "E11.9", IsPrimary: true},
		},
	}

	if err := svc.Create(context.Background(), c); err == nil {
		t.Fatal("expected error from failed procedure insert")
	}
	if len(repo.items) != 0 {
		t.Fatalf("expected no claims persisted, got %d", len(repo.items))
	}
	if len(repo.procedures) != 0 {
		t.Fatalf("expected no procedures persisted, got %d", len(repo.procedures))
	}
	if len(repo.diagnoses) != 0 {
		t.Fatalf("expected no diagnoses persisted, got %d", len(repo.diagnoses))
	}
}

func TestUpdateClaim_OnlyDraft(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	c := &Claim{PatientID: uuid.New(), Status: StatusSubmitted}
	c.ID = uuid.New()
	repo.items[c.ID] = c

	if err := svc.Update(context.Background(), c); err == nil {
		t.Fatal("expected error updating a submitted claim")
	}
}

func TestDeleteClaim_OnlyDraft(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	c := &Claim{PatientID: uuid.New(), Status: StatusPaid}
	c.ID = uuid.New()
	repo.items[c.ID] = c

	if err := svc.Delete(context.Background(), c.ID); err == nil {
		t.Fatal("expected error deleting a paid claim")
	}
}

func TestUpdateStatus_ValidTransition(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	c := &Claim{PatientID: uuid.New(), Status: StatusSubmitted}
	c.ID = uuid.New()
	repo.items[c.ID] = c

	if err := svc.UpdateStatus(context.Background(), c.ID, StatusProcessing, "user-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != StatusProcessing {
		t.Fatalf("expected processing, got %s", c.Status)
	}
	hist, _ := repo.GetStatusHistory(context.Background(), c.ID)
	if len(hist) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(hist))
	}
	if hist[0].FromStatus == nil || *hist[0].FromStatus != StatusSubmitted {
		t.Fatal("expected from_status submitted")
	}
	if hist[0].ToStatus != StatusProcessing {
		t.Fatalf("expected to_status processing, got %s", hist[0].ToStatus)
	}
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	c := &Claim{PatientID: uuid.New(), Status: StatusPaid}
	c.ID = uuid.New()
	repo.items[c.ID] = c

	if err := svc.UpdateStatus(context.Background(), c.ID, StatusDraft, "user-1", nil); err == nil {
		t.Fatal("expected error for paid -> draft transition")
	}
	hist, _ := repo.GetStatusHistory(context.Background(), c.ID)
	if len(hist) != 0 {
		t.Fatal("expected no history for rejected transition")
	}
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	c := &Claim{PatientID: uuid.New(), Status: StatusDraft}
	c.ID = uuid.New()
	repo.items[c.ID] = c

	if err := svc.UpdateStatus(context.Background(), c.ID, "archived", "user-1", nil); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusSubmitted, StatusProcessing, true},
		{StatusSubmitted, StatusDenied, true},
		{StatusProcessing, StatusPaid, true},
		{StatusProcessing, StatusDenied, true},
		{StatusDraft, StatusPaid, false},
		{StatusPaid, StatusDraft, false},
		{StatusDenied, StatusSubmitted, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestAddProcedure_ModifierLimit(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	p := &Procedure{
		ClaimID:   uuid.New(),
		CPTCode:   "99213",
		Modifiers: []string{"25", "59", "LT", "RT", "76"},
	}

	if err := svc.AddProcedure(context.Background(), p); err == nil {
		t.Fatal("expected error for more than 4 modifiers")
	}
}

func TestAddProcedure_DefaultQuantity(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	p := &Procedure{ClaimID: uuid.New(), CPTCode: "99213"}

	if err := svc.AddProcedure(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %v", p.Quantity)
	}
}

func TestAddDiagnosis_CodeRequired(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	d := &Diagnosis{ClaimID: uuid.New()}

	if err := svc.AddDiagnosis(context.Background(), d); err == nil {
		t.Fatal("expected error for missing icd10_code")
	}
}

func TestListByStatus_Invalid(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	if _, _, err := svc.ListByStatus(context.Background(), "bogus", 10, 0); err == nil {
		t.Fatal("expected error for invalid status")
	}
}
