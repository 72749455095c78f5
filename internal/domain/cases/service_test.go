package cases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"treatment-cases/internal/platform/metrics"
	"treatment-cases/internal/ports/clinics"
	"treatment-cases/internal/ports/notify"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// -------------------------
// Test repo (in-memory, CAS por versión)
// -------------------------

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Case

	// conflicts > 0 simula otro writer: el próximo Update pierde la carrera.
	conflicts int
	updates   int
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Case{}}
}

func (r *testRepo) Create(ctx context.Context, c Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; ok {
		return errors.New("repo: already exists")
	}
	c.Version = 0
	r.byID[c.ID] = c.Clone()
	return nil
}

func (r *testRepo) Update(ctx context.Context, c Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[c.ID]
	if !ok {
		return ErrNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		cur.Version++
		r.byID[c.ID] = cur
		return ErrConflict
	}
	if cur.Version != c.Version {
		return ErrConflict
	}
	next := c.Clone()
	next.Version++
	r.byID[c.ID] = next
	r.updates++
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return Case{}, ErrNotFound
	}
	return c.Clone(), nil
}

func (r *testRepo) ListByPatient(ctx context.Context, patientID string) ([]Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Case, 0)
	for _, c := range r.byID {
		if c.PatientID == patientID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (r *testRepo) stored(t *testing.T, id string) Case {
	t.Helper()
	c, err := r.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("stored case %s: %v", id, err)
	}
	return c
}

type testClinics map[string]clinics.Snapshot

func (m testClinics) Snapshot(ctx context.Context, clinicID string) (clinics.Snapshot, error) {
	s, ok := m[clinicID]
	if !ok {
		return clinics.Snapshot{}, clinics.ErrClinicNotFound
	}
	return s, nil
}

type testSender struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (s *testSender) Notify(ctx context.Context, n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.err
}

func (s *testSender) statuses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, n := range s.sent {
		out = append(out, n.Status)
	}
	return out
}

type fixture struct {
	repo   *testRepo
	sender *testSender
	svc    *Service
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   newTestRepo(),
		sender: &testSender{},
		now:    time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, Options{
		Clinics: testClinics{
			"h1": {Name: "Apollo Hospitals", City: "Chennai"},
			"h2": {Name: "Bumrungrad International", City: "Bangkok"},
		},
		Notifier:     f.sender,
		RetryBackoff: time.Millisecond,
	})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) tick() { f.now = f.now.Add(time.Minute) }

func (f *fixture) create(t *testing.T) Case {
	t.Helper()
	c, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: "patient-1",
		Condition: "Knee replacement",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return c
}

func (f *fixture) addQuote(t *testing.T, caseID, clinicID string, price int64) Case {
	t.Helper()
	f.tick()
	c, err := f.svc.AddQuote(context.Background(), caseID, QuoteInput{ClinicID: clinicID, QuotedPrice: price})
	if err != nil {
		t.Fatalf("AddQuote(%s) error: %v", clinicID, err)
	}
	return c
}

func (f *fixture) advance(t *testing.T, caseID string, to Status, msg string) Case {
	t.Helper()
	f.tick()
	c, err := f.svc.Advance(context.Background(), caseID, to, msg)
	if err != nil {
		t.Fatalf("Advance(%s) error: %v", to, err)
	}
	return c
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_StartsSubmitted(t *testing.T) {
	f := newFixture(t)

	c := f.create(t)
	if c.Status != StatusSubmitted {
		t.Fatalf("expected submitted, got %s", c.Status)
	}
	if len(c.StatusHistory) != 1 || c.StatusHistory[0].Message != msgSubmitted {
		t.Fatalf("expected single submitted event, got %#v", c.StatusHistory)
	}
	if c.CreatedAt != f.now || c.UpdatedAt != f.now {
		t.Fatalf("expected CreatedAt/UpdatedAt to be now")
	}

	f.svc.Wait()
	if got := f.sender.statuses(); len(got) != 1 || got[0] != string(StatusSubmitted) {
		t.Fatalf("expected one submitted notification, got %v", got)
	}
}

func TestService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	lo, hi := int64(10), int64(5)

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"no patient", CreateInput{Condition: "x"}},
		{"no condition", CreateInput{PatientID: "p", Condition: "   "}},
		{"inverted budget", CreateInput{PatientID: "p", Condition: "x", BudgetMin: &lo, BudgetMax: &hi}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestService_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.create(t)

	c = f.advance(t, c.ID, StatusReviewing, "Case under review")
	if len(c.StatusHistory) != 2 {
		t.Fatalf("expected 2 events after reviewing, got %d", len(c.StatusHistory))
	}

	c = f.addQuote(t, c.ID, "h1", 9000)
	if c.Status != StatusHospitalMatched || len(c.StatusHistory) != 3 {
		t.Fatalf("expected hospital_matched with 3 events, got %s/%d", c.Status, len(c.StatusHistory))
	}
	if c.StatusHistory[2].Message != msgHospitalMatched {
		t.Fatalf("expected auto message, got %q", c.StatusHistory[2].Message)
	}

	c = f.addQuote(t, c.ID, "h2", 8000)
	if len(c.ApprovedHospitals) != 2 || len(c.StatusHistory) != 3 {
		t.Fatalf("second quote must not transition: %d quotes %d events", len(c.ApprovedHospitals), len(c.StatusHistory))
	}

	f.tick()
	c, err := f.svc.SelectHospital(ctx, c.ID, "patient-1", "h2")
	if err != nil {
		t.Fatalf("SelectHospital error: %v", err)
	}
	if c.Status != StatusHospitalAccepted || c.MatchedClinicID != "h2" || len(c.StatusHistory) != 4 {
		t.Fatalf("unexpected after selection: %s/%s/%d", c.Status, c.MatchedClinicID, len(c.StatusHistory))
	}
	if got := c.StatusHistory[3].Message; got != "Patient selected Bumrungrad International (Bangkok)" {
		t.Fatalf("unexpected selection message %q", got)
	}

	c = f.advance(t, c.ID, StatusTreatmentScheduled, "Surgery on March 3")
	if len(c.StatusHistory) != 5 {
		t.Fatalf("expected 5 events, got %d", len(c.StatusHistory))
	}

	// timestamps no decrecen
	for i := 1; i < len(c.StatusHistory); i++ {
		if c.StatusHistory[i].Timestamp.Before(c.StatusHistory[i-1].Timestamp) {
			t.Fatalf("history out of order at %d", i)
		}
	}

	f.svc.Wait()
	want := []string{"submitted", "reviewing", "hospital_matched", "hospital_accepted", "treatment_scheduled"}
	got := f.sender.statuses()
	if len(got) != len(want) {
		t.Fatalf("expected %d notifications, got %v", len(want), got)
	}
	seen := map[string]bool{}
	for _, s := range got {
		seen[s] = true
	}
	for _, s := range want {
		if !seen[s] {
			t.Fatalf("missing notification for %s in %v", s, got)
		}
	}
}

func TestService_Advance_InvalidTransitionLeavesCaseUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	_, err := f.svc.Advance(ctx, c.ID, StatusTreatmentScheduled, "skip")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	stored := f.repo.stored(t, c.ID)
	if stored.Status != StatusSubmitted || len(stored.StatusHistory) != 1 || stored.Version != 0 {
		t.Fatalf("case must be unchanged, got %s/%d/v%d", stored.Status, len(stored.StatusHistory), stored.Version)
	}

	// hacia atrás tampoco
	f.addQuote(t, c.ID, "h1", 100)
	_, err = f.svc.Advance(ctx, c.ID, StatusReviewing, "back")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition going back, got %v", err)
	}

	_, err = f.svc.Advance(ctx, c.ID, Status("archived"), "x")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestService_Advance_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	if _, err := f.svc.Advance(ctx, c.ID, StatusReviewing, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without message, got %v", err)
	}

	f.advance(t, c.ID, StatusReviewing, "review")

	// hospital_matched manual sin cotizaciones
	if _, err := f.svc.Advance(ctx, c.ID, StatusHospitalMatched, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState with empty ledger, got %v", err)
	}

	f.addQuote(t, c.ID, "h1", 100)

	// hospital_accepted solo por selección
	if _, err := f.svc.Advance(ctx, c.ID, StatusHospitalAccepted, "force"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState forcing accepted, got %v", err)
	}
	if stored := f.repo.stored(t, c.ID); stored.MatchedClinicID != "" {
		t.Fatalf("forced accept must not match a clinic")
	}
}

func TestService_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.create(t)
	f.addQuote(t, c.ID, "h1", 100)
	c = f.advance(t, c.ID, StatusCancelled, "Patient withdrew")
	if c.Status != StatusCancelled || c.MatchedClinicID != "" {
		t.Fatalf("expected cancelled without match, got %s/%s", c.Status, c.MatchedClinicID)
	}
	if _, err := f.svc.Advance(ctx, c.ID, StatusReviewing, "reopen"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelled is terminal, got %v", err)
	}

	// después de la selección ya no se cancela
	c2 := f.create(t)
	f.addQuote(t, c2.ID, "h1", 100)
	if _, err := f.svc.SelectHospital(ctx, c2.ID, "patient-1", "h1"); err != nil {
		t.Fatalf("SelectHospital error: %v", err)
	}
	if _, err := f.svc.Advance(ctx, c2.ID, StatusCancelled, "late"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition cancelling accepted case, got %v", err)
	}
}

func TestService_AddQuote_IdempotentUpsert(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)

	f.addQuote(t, c.ID, "h1", 9000)
	f.addQuote(t, c.ID, "h2", 7000)
	c = f.addQuote(t, c.ID, "h1", 8500)

	if len(c.ApprovedHospitals) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(c.ApprovedHospitals))
	}
	if c.ApprovedHospitals[0].ClinicID != "h1" || c.ApprovedHospitals[0].QuotedPrice != 8500 {
		t.Fatalf("expected h1 replaced in place, got %#v", c.ApprovedHospitals[0])
	}
	if c.ApprovedHospitals[0].ApprovedAt != f.now {
		t.Fatalf("expected ApprovedAt refreshed")
	}
	if len(c.StatusHistory) != 2 {
		t.Fatalf("re-adding must not append events, got %d", len(c.StatusHistory))
	}
}

func TestService_AddQuote_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	if _, err := f.svc.AddQuote(ctx, c.ID, QuoteInput{ClinicID: "h1", QuotedPrice: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero price, got %v", err)
	}
	if _, err := f.svc.AddQuote(ctx, c.ID, QuoteInput{ClinicID: "nope", QuotedPrice: 10}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown clinic, got %v", err)
	}
	if _, err := f.svc.AddQuote(ctx, "missing", QuoteInput{ClinicID: "h1", QuotedPrice: 10}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown case, got %v", err)
	}

	f.addQuote(t, c.ID, "h1", 10)
	if _, err := f.svc.SelectHospital(ctx, c.ID, "patient-1", "h1"); err != nil {
		t.Fatalf("SelectHospital error: %v", err)
	}
	if _, err := f.svc.AddQuote(ctx, c.ID, QuoteInput{ClinicID: "h2", QuotedPrice: 10}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after acceptance, got %v", err)
	}
}

type countingClinics struct {
	testClinics
	mu    sync.Mutex
	calls int
}

func (m *countingClinics) Snapshot(ctx context.Context, clinicID string) (clinics.Snapshot, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.testClinics.Snapshot(ctx, clinicID)
}

func TestService_AddQuote_ClosedCaseChecksStateFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lookup := &countingClinics{testClinics: testClinics{
		"h1": {Name: "Apollo Hospitals", City: "Chennai"},
	}}
	f.svc.clinics = lookup

	c := f.create(t)
	f.advance(t, c.ID, StatusCancelled, "patient withdrew")

	for _, clinicID := range []string{"nope", "h1"} {
		if _, err := f.svc.AddQuote(ctx, c.ID, QuoteInput{ClinicID: clinicID, QuotedPrice: 10}); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState for %s on cancelled case, got %v", clinicID, err)
		}
	}
	if lookup.calls != 0 {
		t.Fatalf("clinic directory must not be consulted for a closed case, got %d calls", lookup.calls)
	}

	stored := f.repo.stored(t, c.ID)
	if stored.Status != StatusCancelled || len(stored.ApprovedHospitals) != 0 {
		t.Fatalf("cancelled case must stay untouched, got %s with %d quotes", stored.Status, len(stored.ApprovedHospitals))
	}
}

func TestService_RemoveQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	f.addQuote(t, c.ID, "h1", 100)
	f.addQuote(t, c.ID, "h2", 200)

	if _, err := f.svc.RemoveQuote(ctx, c.ID, "h9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent quote, got %v", err)
	}

	f.tick()
	c, err := f.svc.RemoveQuote(ctx, c.ID, "h1")
	if err != nil {
		t.Fatalf("RemoveQuote error: %v", err)
	}
	if c.Status != StatusHospitalMatched || len(c.ApprovedHospitals) != 1 {
		t.Fatalf("expected still matched with 1 quote, got %s/%d", c.Status, len(c.ApprovedHospitals))
	}

	f.tick()
	c, err = f.svc.RemoveQuote(ctx, c.ID, "h2")
	if err != nil {
		t.Fatalf("RemoveQuote error: %v", err)
	}
	if c.Status != StatusReviewing || len(c.ApprovedHospitals) != 0 {
		t.Fatalf("expected revert to reviewing, got %s/%d", c.Status, len(c.ApprovedHospitals))
	}
	last := c.StatusHistory[len(c.StatusHistory)-1]
	if last.Status != StatusReviewing || last.Message != msgQuotesWithdrawn {
		t.Fatalf("expected auto revert event, got %#v", last)
	}
}

func TestService_RemoveQuote_MatchedClinicIsProtected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	f.addQuote(t, c.ID, "h1", 100)
	f.addQuote(t, c.ID, "h2", 200)
	if _, err := f.svc.SelectHospital(ctx, c.ID, "patient-1", "h1"); err != nil {
		t.Fatalf("SelectHospital error: %v", err)
	}

	if _, err := f.svc.RemoveQuote(ctx, c.ID, "h1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState removing matched clinic, got %v", err)
	}
	stored := f.repo.stored(t, c.ID)
	if _, ok := stored.Quote("h1"); !ok || stored.MatchedClinicID != "h1" {
		t.Fatalf("matched quote must stay in ledger")
	}

	// la no elegida sí se puede sacar
	if _, err := f.svc.RemoveQuote(ctx, c.ID, "h2"); err != nil {
		t.Fatalf("RemoveQuote(h2) error: %v", err)
	}
}

func TestService_SelectHospital_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	if _, err := f.svc.SelectHospital(ctx, c.ID, "patient-1", "h1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState before quotes, got %v", err)
	}

	f.addQuote(t, c.ID, "h1", 100)

	if _, err := f.svc.SelectHospital(ctx, c.ID, "patient-2", "h1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other patient, got %v", err)
	}
	if _, err := f.svc.SelectHospital(ctx, c.ID, "patient-1", "h3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for clinic without quote, got %v", err)
	}

	f.addQuote(t, c.ID, "h2", 200)

	if _, err := f.svc.SelectHospital(ctx, c.ID, "patient-1", "h1"); err != nil {
		t.Fatalf("SelectHospital error: %v", err)
	}
	// segunda selección, misma clínica y otra clínica cotizada
	for _, clinicID := range []string{"h1", "h2"} {
		if _, err := f.svc.SelectHospital(ctx, c.ID, "patient-1", clinicID); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState on second select (%s), got %v", clinicID, err)
		}
	}

	stored := f.repo.stored(t, c.ID)
	if stored.MatchedClinicID != "h1" {
		t.Fatalf("first selection must stick, matched=%q", stored.MatchedClinicID)
	}
	if stored.Status != StatusHospitalAccepted {
		t.Fatalf("expected hospital_accepted, got %s", stored.Status)
	}
	if n := len(stored.StatusHistory); n != 3 {
		t.Fatalf("expected 3 events after one selection, got %d", n)
	}
}

func TestService_WithdrawnQuoteThenRematch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	check := func(step string, got Case, status Status, quotes, events int) {
		t.Helper()
		if got.Status != status {
			t.Fatalf("%s: expected %s, got %s", step, status, got.Status)
		}
		if len(got.ApprovedHospitals) != quotes {
			t.Fatalf("%s: expected %d quotes, got %d", step, quotes, len(got.ApprovedHospitals))
		}
		if len(got.StatusHistory) != events {
			t.Fatalf("%s: expected %d events, got %d", step, events, len(got.StatusHistory))
		}
		stored := f.repo.stored(t, c.ID)
		if stored.Status != got.Status || len(stored.StatusHistory) != events {
			t.Fatalf("%s: stored case diverges from returned case", step)
		}
	}

	check("create", c, StatusSubmitted, 0, 1)

	c = f.addQuote(t, c.ID, "h1", 100)
	check("add h1", c, StatusHospitalMatched, 1, 2)

	f.tick()
	c, err := f.svc.RemoveQuote(ctx, c.ID, "h1")
	if err != nil {
		t.Fatalf("RemoveQuote(h1) error: %v", err)
	}
	check("remove h1", c, StatusReviewing, 0, 3)
	if got := c.StatusHistory[2].Message; got != msgQuotesWithdrawn {
		t.Fatalf("unexpected withdraw message %q", got)
	}

	c = f.addQuote(t, c.ID, "h2", 200)
	check("add h2", c, StatusHospitalMatched, 1, 4)

	f.tick()
	c, err = f.svc.SelectHospital(ctx, c.ID, "patient-1", "h2")
	if err != nil {
		t.Fatalf("SelectHospital(h2) error: %v", err)
	}
	check("select h2", c, StatusHospitalAccepted, 1, 5)
	if c.MatchedClinicID != "h2" {
		t.Fatalf("expected matched h2, got %q", c.MatchedClinicID)
	}

	if _, err := f.svc.RemoveQuote(ctx, c.ID, "h2"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState removing selected clinic, got %v", err)
	}
	check("after failed remove", f.repo.stored(t, c.ID), StatusHospitalAccepted, 1, 5)
}

func TestService_RetriesOnConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	before := testutil.ToFloat64(metrics.Conflicts().WithLabelValues("add_quote"))

	f.repo.conflicts = 2
	c, err := f.svc.AddQuote(ctx, c.ID, QuoteInput{ClinicID: "h1", QuotedPrice: 100})
	if err != nil {
		t.Fatalf("AddQuote should succeed after retries: %v", err)
	}
	if c.Status != StatusHospitalMatched || len(c.StatusHistory) != 2 {
		t.Fatalf("expected exactly one transition, got %s/%d", c.Status, len(c.StatusHistory))
	}

	after := testutil.ToFloat64(metrics.Conflicts().WithLabelValues("add_quote"))
	if after-before != 2 {
		t.Fatalf("expected 2 conflicts counted, got %v", after-before)
	}
}

func TestService_ConflictRetriesExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	f.repo.conflicts = 100
	_, err := f.svc.Advance(ctx, c.ID, StatusReviewing, "review")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if f.repo.updates != 0 {
		t.Fatalf("no update should have landed")
	}
}

func TestService_ConcurrentQuotesFromTwoOperators(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, id := range []string{"h1", "h2"} {
		wg.Add(1)
		go func(clinicID string) {
			defer wg.Done()
			_, err := f.svc.AddQuote(context.Background(), c.ID, QuoteInput{ClinicID: clinicID, QuotedPrice: 100})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("AddQuote error: %v", err)
		}
	}

	stored := f.repo.stored(t, c.ID)
	if len(stored.ApprovedHospitals) != 2 {
		t.Fatalf("expected both quotes, got %d", len(stored.ApprovedHospitals))
	}
	matched := 0
	for _, ev := range stored.StatusHistory {
		if ev.Status == StatusHospitalMatched {
			matched++
		}
	}
	if matched != 1 {
		t.Fatalf("expected exactly one hospital_matched event, got %d", matched)
	}
}

func TestService_NotificationFailureDoesNotFailCommand(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("smtp down")

	before := testutil.ToFloat64(metrics.Notifications().WithLabelValues("failed"))

	c := f.create(t)
	c = f.advance(t, c.ID, StatusReviewing, "review")
	if c.Status != StatusReviewing {
		t.Fatalf("expected reviewing, got %s", c.Status)
	}

	f.svc.Wait()
	after := testutil.ToFloat64(metrics.Notifications().WithLabelValues("failed"))
	if after-before != 2 {
		t.Fatalf("expected 2 failed notifications counted, got %v", after-before)
	}
	if f.repo.stored(t, c.ID).Status != StatusReviewing {
		t.Fatalf("state must survive notification failure")
	}
}

func TestService_UpdateDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	cond := "Hip replacement"
	hi := int64(20000)
	if _, err := f.svc.UpdateDetails(ctx, c.ID, "patient-2", DetailsInput{Condition: &cond}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	c, err := f.svc.UpdateDetails(ctx, c.ID, "patient-1", DetailsInput{Condition: &cond, BudgetMax: &hi})
	if err != nil {
		t.Fatalf("UpdateDetails error: %v", err)
	}
	if c.Condition != cond || c.BudgetMax == nil || *c.BudgetMax != hi {
		t.Fatalf("details not applied: %#v", c)
	}
	if len(c.StatusHistory) != 1 {
		t.Fatalf("details must not append events")
	}

	f.advance(t, c.ID, StatusReviewing, "review")
	if _, err := f.svc.UpdateDetails(ctx, c.ID, "patient-1", DetailsInput{Condition: &cond}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after review starts, got %v", err)
	}
}

func TestService_UpdateAdminNotes(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)

	c, err := f.svc.UpdateAdminNotes(context.Background(), c.ID, "  VIP  ")
	if err != nil {
		t.Fatalf("UpdateAdminNotes error: %v", err)
	}
	if c.AdminNotes != "VIP" || c.Version != 1 {
		t.Fatalf("unexpected notes/version: %q v%d", c.AdminNotes, c.Version)
	}
}
