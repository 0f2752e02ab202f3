package submission

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/claims"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/scrubbing"
)

type mockRepo struct {
	claims     map[uuid.UUID]*claims.Claim
	procedures map[uuid.UUID][]*claims.Procedure
	diagnoses  map[uuid.UUID][]*claims.Diagnosis
	history    map[uuid.UUID][]*claims.StatusHistory
	updates    int
	updateErr  func(attempt int) error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		claims:     map[uuid.UUID]*claims.Claim{},
		procedures: map[uuid.UUID][]*claims.Procedure{},
		diagnoses:  map[uuid.UUID][]*claims.Diagnosis{},
		history:    map[uuid.UUID][]*claims.StatusHistory{},
	}
}

func (m *mockRepo) Create(_ context.Context, c *claims.Claim) error {
	m.claims[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*claims.Claim, error) {
	c, ok := m.claims[id]
	if !ok {
		return nil, claims.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) GetByClaimNumber(_ context.Context, number string) (*claims.Claim, error) {
	for _, c := range m.claims {
		if c.ClaimNumber != nil && *c.ClaimNumber == number {
			return c, nil
		}
	}
	return nil, claims.ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, c *claims.Claim) error {
	m.updates++
	if m.updateErr != nil {
		if err := m.updateErr(m.updates); err != nil {
			return err
		}
	}
	m.claims[c.ID] = c
	return nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	c, ok := m.claims[id]
	if !ok {
		return claims.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.claims, id)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, _ uuid.UUID, _, _ int) ([]*claims.Claim, int, error) {
	return nil, 0, nil
}

func (m *mockRepo) ListByStatus(_ context.Context, _ string, _, _ int) ([]*claims.Claim, int, error) {
	return nil, 0, nil
}

func (m *mockRepo) FindOverlapping(_ context.Context, _ uuid.UUID, _ time.Time, _ uuid.UUID) ([]*claims.Claim, error) {
	return nil, nil
}

func (m *mockRepo) AddProcedure(_ context.Context, p *claims.Procedure) error {
	m.procedures[p.ClaimID] = append(m.procedures[p.ClaimID], p)
	return nil
}

func (m *mockRepo) GetProcedures(_ context.Context, claimID uuid.UUID) ([]*claims.Procedure, error) {
	return m.procedures[claimID], nil
}

func (m *mockRepo) AddDiagnosis(_ context.Context, d *claims.Diagnosis) error {
	m.diagnoses[d.ClaimID] = append(m.diagnoses[d.ClaimID], d)
	return nil
}

func (m *mockRepo) GetDiagnoses(_ context.Context, claimID uuid.UUID) ([]*claims.Diagnosis, error) {
	return m.diagnoses[claimID], nil
}

func (m *mockRepo) AddStatusHistory(_ context.Context, h *claims.StatusHistory) error {
	m.history[h.ClaimID] = append(m.history[h.ClaimID], h)
	return nil
}

func (m *mockRepo) GetStatusHistory(_ context.Context, claimID uuid.UUID) ([]*claims.StatusHistory, error) {
	return m.history[claimID], nil
}

func ptr[T any](v T) *T { return &v }

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// seedDraftClaim stores a claim that scrubs clean.
func seedDraftClaim(repo *mockRepo) *claims.Claim {
	serviceDate := time.Now().AddDate(0, -1, 0)
	c := &claims.Claim{
		ID:                  uuid.New(),
		PatientID:           uuid.New(),
		RenderingProviderID: ptr(uuid.New()),
		PrimaryInsuranceID:  ptr(uuid.New()),
		ServiceStart:        &serviceDate,
		PlaceOfService:      ptr("11"),
		TotalCharges:        ptr(150.0),
		Status:              claims.StatusDraft,
	}
	repo.claims[c.ID] = c
	repo.procedures[c.ID] = []*claims.Procedure{
		{ClaimID: c.ID, CPTCode: "99213", Quantity: 2, UnitPrice: ptr(75.0), TotalPrice: ptr(150.0), DiagnosisPointer: ptr(1)},
	}
	repo.diagnoses[c.ID] = []*claims.Diagnosis{
		{ClaimID: c.ID, ICD10Code: "E11.9", IsPrimary: true},
	}
	return c
}

func newService(repo *mockRepo) *Service {
	scrubber := scrubbing.NewScrubber(nil, nil, nil, nil)
	return NewService(repo, scrubber, passthroughTx, "CLM", 5*time.Second)
}

func TestSubmit_Success(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	svc := newService(repo)

	result, err := svc.Submit(context.Background(), draft.ID, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Validation.CanSubmit {
		t.Fatal("expected a clean validation result")
	}

	stored := repo.claims[draft.ID]
	if stored.Status != claims.StatusSubmitted {
		t.Fatalf("expected submitted, got %s", stored.Status)
	}
	if stored.ClaimNumber == nil {
		t.Fatal("expected a claim number to be assigned")
	}
	pattern := regexp.MustCompile(`^CLM-\d{8}-\d{4}$`)
	if !pattern.MatchString(*stored.ClaimNumber) {
		t.Fatalf("claim number %q does not match CLM-YYYYMMDD-NNNN", *stored.ClaimNumber)
	}

	history := repo.history[draft.ID]
	if len(history) != 1 {
		t.Fatalf("expected one status history row, got %d", len(history))
	}
	h := history[0]
	if h.FromStatus == nil || *h.FromStatus != claims.StatusDraft || h.ToStatus != claims.StatusSubmitted {
		t.Fatalf("unexpected history transition: %+v", h)
	}
	if h.ChangedBy == nil || *h.ChangedBy != "user-1" {
		t.Fatal("expected history to record the submitting user")
	}
}

func TestSubmit_BlockedPersistsNothing(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	draft.PatientID = uuid.Nil
	svc := newService(repo)

	_, err := svc.Submit(context.Background(), draft.ID, "user-1")
	if err == nil {
		t.Fatal("expected submission to be blocked")
	}
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %T", err)
	}
	if !strings.Contains(blocked.Error(), "Patient is required") {
		t.Fatalf("expected the joined message to name the blocker, got %q", blocked.Error())
	}
	if blocked.Validation == nil || blocked.Validation.CanSubmit {
		t.Fatal("expected the blocked result to carry the failing validation")
	}

	if repo.updates != 0 {
		t.Fatal("a blocked submission must not write the claim")
	}
	if len(repo.history[draft.ID]) != 0 {
		t.Fatal("a blocked submission must not write history")
	}
	if repo.claims[draft.ID].Status != claims.StatusDraft {
		t.Fatal("claim must stay in draft")
	}
}

func TestSubmit_ExpiredFilingBlocks(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	old := time.Now().AddDate(0, 0, -400)
	draft.ServiceStart = &old
	svc := newService(repo)

	_, err := svc.Submit(context.Background(), draft.ID, "user-1")
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if !strings.Contains(blocked.Error(), "timely filing deadline passed") {
		t.Fatalf("expected a filing message, got %q", blocked.Error())
	}
	if repo.updates != 0 {
		t.Fatal("an expired claim must not be persisted")
	}
}

func TestSubmit_OnlyDraft(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	draft.Status = claims.StatusSubmitted
	svc := newService(repo)

	if _, err := svc.Submit(context.Background(), draft.ID, "user-1"); err == nil {
		t.Fatal("expected error for non-draft claim")
	}
}

func TestSubmit_NotFound(t *testing.T) {
	svc := newService(newMockRepo())

	_, err := svc.Submit(context.Background(), uuid.New(), "user-1")
	if !errors.Is(err, claims.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmit_ClaimNumberCollisionRetries(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	repo.updateErr = func(attempt int) error {
		if attempt <= 2 {
			return &pgconn.PgError{Code: "23505"}
		}
		return nil
	}
	svc := newService(repo)

	result, err := svc.Submit(context.Background(), draft.ID, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updates != 3 {
		t.Fatalf("expected 3 update attempts, got %d", repo.updates)
	}
	if result.Claim.ClaimNumber == nil {
		t.Fatal("expected a claim number after retrying")
	}
}

func TestSubmit_ClaimNumberRetriesExhausted(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	repo.updateErr = func(int) error {
		return &pgconn.PgError{Code: "23505"}
	}
	svc := newService(repo)

	_, err := svc.Submit(context.Background(), draft.ID, "user-1")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if repo.updates != maxClaimNumberAttempts {
		t.Fatalf("expected %d attempts, got %d", maxClaimNumberAttempts, repo.updates)
	}
}

func TestSubmit_KeepsExistingClaimNumber(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	draft.ClaimNumber = ptr("CLM-20260101-0042")
	svc := newService(repo)

	result, err := svc.Submit(context.Background(), draft.ID, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Claim.ClaimNumber == nil || *result.Claim.ClaimNumber != "CLM-20260101-0042" {
		t.Fatalf("expected the existing claim number to survive, got %v", result.Claim.ClaimNumber)
	}
	stored := repo.claims[draft.ID]
	if stored.ClaimNumber == nil || *stored.ClaimNumber != "CLM-20260101-0042" {
		t.Fatalf("stored claim number changed to %v", stored.ClaimNumber)
	}
}

func TestSubmit_ExistingClaimNumberConflict(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	draft.ClaimNumber = ptr("CLM-20260101-0042")
	repo.updateErr = func(int) error {
		return &pgconn.PgError{Code: "23505"}
	}
	svc := newService(repo)

	_, err := svc.Submit(context.Background(), draft.ID, "user-1")
	if err == nil {
		t.Fatal("expected error for a duplicate claim number")
	}
	if !strings.Contains(err.Error(), "already in use") {
		t.Fatalf("expected a duplicate-number message, got %q", err)
	}
	if repo.updates != 1 {
		t.Fatalf("an existing number must not be regenerated, got %d update attempts", repo.updates)
	}
	stored := repo.claims[draft.ID]
	if stored.ClaimNumber == nil || *stored.ClaimNumber != "CLM-20260101-0042" {
		t.Fatalf("stored claim number changed to %v", stored.ClaimNumber)
	}
	if stored.Status != claims.StatusDraft {
		t.Fatalf("claim must stay in draft, got %s", stored.Status)
	}
}

// stubValidator records whether the pipeline context carried a deadline.
type stubValidator struct {
	sawDeadline bool
}

func (v *stubValidator) Scrub(ctx context.Context, _ *claims.Claim) *scrubbing.Result {
	_, v.sawDeadline = ctx.Deadline()
	return &scrubbing.Result{CanSubmit: true}
}

func (v *stubValidator) CheckTimelyFiling(_ context.Context, _ time.Time, _ *uuid.UUID) *scrubbing.TimelyFiling {
	return &scrubbing.TimelyFiling{}
}

func TestSubmit_ScrubRunsUnderTimeout(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	stub := &stubValidator{}
	svc := NewService(repo, stub, passthroughTx, "CLM", 250*time.Millisecond)

	if _, err := svc.Submit(context.Background(), draft.ID, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stub.sawDeadline {
		t.Fatal("expected the scrub context to carry a deadline")
	}
}

func TestScrub_ZeroTimeoutLeavesContextUnbounded(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	stub := &stubValidator{}
	svc := NewService(repo, stub, passthroughTx, "CLM", 0)

	if _, err := svc.Scrub(context.Background(), draft.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.sawDeadline {
		t.Fatal("expected no deadline when the timeout is disabled")
	}
}

func TestScrub_LoadsChildren(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	svc := newService(repo)

	result, err := svc.Scrub(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected a clean scrub, got %+v", result.Errors)
	}
}

func TestTimelyFiling_RequiresServiceDate(t *testing.T) {
	repo := newMockRepo()
	draft := seedDraftClaim(repo)
	draft.ServiceStart = nil
	svc := newService(repo)

	if _, err := svc.TimelyFiling(context.Background(), draft.ID); err == nil {
		t.Fatal("expected error for a claim without a service date")
	}
}
