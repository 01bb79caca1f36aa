package journey

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opticlinic/clinic-flow/internal/audit"
	"github.com/opticlinic/clinic-flow/internal/notification"
)

type memStore struct {
	mu       sync.Mutex
	journeys map[string]*Journey // keyed by journey ID
	saves    int
	saveErr  error
}

func newMemStore() *memStore {
	return &memStore{journeys: make(map[string]*Journey)}
}

func (m *memStore) FindForPatientToday(ctx context.Context, patientID string) (*Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *Journey
	today := startOfDay(time.Now())
	for _, j := range m.journeys {
		if j.PatientID != patientID || j.CheckInTime.Before(today) {
			continue
		}
		if best == nil || j.CheckInTime.After(best.CheckInTime) {
			best = j
		}
	}
	if best == nil {
		return nil, ErrJourneyNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memStore) FindAllActiveToday(ctx context.Context) ([]*Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	today := startOfDay(time.Now())
	var out []*Journey
	for _, j := range m.journeys {
		if j.CheckInTime.Before(today) || j.OverallStatus == StatusCompleted {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for k := i + 1; k < len(out); k++ {
			if out[k].CheckInTime.After(out[i].CheckInTime) {
				out[i], out[k] = out[k], out[i]
			}
		}
	}
	return out, nil
}

func (m *memStore) Save(ctx context.Context, j *Journey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	cp := *j
	m.journeys[j.ID] = &cp
	return nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memStore) journeyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.journeys)
}

type memNotifier struct {
	mu      sync.Mutex
	created []*notification.Notification
	err     error
}

func (m *memNotifier) Create(ctx context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, n)
	return nil
}

func (m *memNotifier) ListByUser(ctx context.Context, userID string, limit int) ([]*notification.Notification, error) {
	return m.created, nil
}

func (m *memNotifier) MarkRead(ctx context.Context, id string) error { return nil }

type memAudit struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (m *memAudit) LogEvent(ctx context.Context, e *audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, e)
	return nil
}

func (m *memAudit) QueryEvents(ctx context.Context, filters map[string]interface{}, from, size int) ([]audit.Event, error) {
	return nil, nil
}

func newTestService() (Service, *memStore, *memNotifier) {
	store := newMemStore()
	notifier := &memNotifier{}
	svc := NewService(store, notifier, &memAudit{}, zap.NewNop())
	return svc, store, notifier
}

func testProfile() PatientProfile {
	return PatientProfile{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     "ama@example.com",
		Phone:     "+233200000000",
	}
}

func TestCheckInCreatesJourney(t *testing.T) {
	svc, _, notifier := newTestService()

	j, err := svc.CheckIn(context.Background(), "p1", testProfile())
	require.NoError(t, err)

	assert.Equal(t, "p1", j.PatientID)
	assert.Equal(t, "Ama Mensah", j.PatientName)
	assert.Equal(t, StatusInProgress, j.OverallStatus)
	assert.Equal(t, StepPayment, j.CurrentStep)
	assert.False(t, j.ReceiptGenerated)
	assert.Nil(t, j.CheckOutTime)
	assert.Equal(t, 375, j.Costs.Total)

	require.Len(t, j.Steps, 5)
	assert.Equal(t, StepRegistration, j.Steps[0].Step)
	assert.Equal(t, StatusCompleted, j.Steps[0].Status)
	require.NotNil(t, j.Steps[0].CompletedAt)
	for _, rec := range j.Steps[1:] {
		assert.Equal(t, StatusPending, rec.Status)
		assert.Nil(t, rec.CompletedAt)
	}

	require.Len(t, notifier.created, 1)
	assert.Equal(t, "p1", notifier.created[0].UserID)
	assert.Equal(t, notification.TypeJourney, notifier.created[0].Type)
	assert.Contains(t, notifier.created[0].Message, "proceed to payment")
}

func TestCheckInIsIdempotent(t *testing.T) {
	svc, _, notifier := newTestService()

	first, err := svc.CheckIn(context.Background(), "p1", testProfile())
	require.NoError(t, err)
	second, err := svc.CheckIn(context.Background(), "p1", testProfile())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, notifier.created, 1, "re-check-in must not notify again")
}

func TestUpdateStepAdvancesCurrentStep(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)

	j, err := svc.UpdateStep(ctx, "p1", StepPayment, StatusCompleted, "staff-1", "")
	require.NoError(t, err)

	assert.Equal(t, StepAnalyst, j.CurrentStep)
	assert.Equal(t, StatusInProgress, j.OverallStatus)

	idx := j.findStep(StepPayment)
	require.NotEqual(t, -1, idx)
	assert.Equal(t, StatusCompleted, j.Steps[idx].Status)
	assert.Equal(t, "staff-1", j.Steps[idx].StaffID)
	require.NotNil(t, j.Steps[idx].CompletedAt)
}

func TestOutOfOrderCompletionKeepsEarliestGap(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)

	_, err = svc.MarkPaymentComplete(ctx, "p1", "cashier")
	require.NoError(t, err)

	// Doctor finishes before the analyst: the pointer must not jump past
	// the outstanding analyst step.
	j, err := svc.MarkDoctorComplete(ctx, "p1", "dr-1", "appt-9")
	require.NoError(t, err)
	assert.Equal(t, StepAnalyst, j.CurrentStep)
	assert.Equal(t, StatusInProgress, j.OverallStatus)
	assert.Equal(t, "appt-9", j.AppointmentID)

	j, err = svc.MarkAnalystComplete(ctx, "p1", "an-1")
	require.NoError(t, err)
	assert.Equal(t, StepPharmacy, j.CurrentStep)
}

func TestCompletionIsTerminal(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)

	_, err = svc.MarkPaymentComplete(ctx, "p1", "cashier")
	require.NoError(t, err)
	_, err = svc.MarkAnalystComplete(ctx, "p1", "an-1")
	require.NoError(t, err)
	_, err = svc.MarkDoctorComplete(ctx, "p1", "dr-1", "")
	require.NoError(t, err)
	j, err := svc.MarkPharmacyComplete(ctx, "p1", "ph-1", "rx-7")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, j.OverallStatus)
	assert.Equal(t, StepCompleted, j.CurrentStep)
	assert.True(t, j.ReceiptGenerated)
	require.NotNil(t, j.CheckOutTime)
	assert.Equal(t, "rx-7", j.PrescriptionID)

	checkOut := *j.CheckOutTime
	completionCount := countCompletionNotices(notifier)
	assert.Equal(t, 1, completionCount)

	// Re-completing a step on a finished journey must not move the
	// check-out time or emit a second completion notification.
	j, err = svc.MarkDoctorComplete(ctx, "p1", "dr-2", "")
	require.NoError(t, err)
	require.NotNil(t, j.CheckOutTime)
	assert.True(t, j.CheckOutTime.Equal(checkOut))
	assert.True(t, j.ReceiptGenerated)
	assert.Equal(t, 1, countCompletionNotices(notifier))
}

func countCompletionNotices(n *memNotifier) int {
	count := 0
	for _, msg := range n.created {
		if strings.Contains(msg.Message, "Your visit is complete") {
			count++
		}
	}
	return count
}

func TestCompletionNotificationIncludesTotal(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)
	_, err = svc.MarkPaymentComplete(ctx, "p1", "")
	require.NoError(t, err)
	_, err = svc.MarkAnalystComplete(ctx, "p1", "")
	require.NoError(t, err)
	_, err = svc.MarkDoctorComplete(ctx, "p1", "", "")
	require.NoError(t, err)
	_, err = svc.MarkPharmacyComplete(ctx, "p1", "", "")
	require.NoError(t, err)

	last := notifier.created[len(notifier.created)-1]
	assert.Contains(t, last.Message, "$375")
}

func TestReAnnotationDoesNotReNotify(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)
	_, err = svc.MarkPaymentComplete(ctx, "p1", "cashier")
	require.NoError(t, err)

	before := len(notifier.created)

	j, err := svc.UpdateStep(ctx, "p1", StepPayment, StatusCompleted, "supervisor", "card declined twice, paid cash")
	require.NoError(t, err)

	idx := j.findStep(StepPayment)
	assert.Equal(t, "supervisor", j.Steps[idx].StaffID)
	assert.Equal(t, "card declined twice, paid cash", j.Steps[idx].Notes)
	assert.Len(t, notifier.created, before, "already-completed step must not re-notify")
}

func TestUpdateStepErrors(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateStep(ctx, "ghost", StepPayment, StatusCompleted, "", "")
	assert.ErrorIs(t, err, ErrJourneyNotFound)

	_, err = svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)

	_, err = svc.UpdateStep(ctx, "p1", Step("x-ray"), StatusCompleted, "", "")
	assert.ErrorIs(t, err, ErrStepNotFound)
}

func TestGenerateReceiptRequiresCompletion(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GenerateReceipt(ctx, "p1")
	assert.ErrorIs(t, err, ErrJourneyNotFound)

	_, err = svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)

	// Every partial state must refuse a receipt.
	steps := []func() (*Journey, error){
		func() (*Journey, error) { return svc.MarkPaymentComplete(ctx, "p1", "") },
		func() (*Journey, error) { return svc.MarkAnalystComplete(ctx, "p1", "") },
		func() (*Journey, error) { return svc.MarkDoctorComplete(ctx, "p1", "", "") },
	}
	for _, complete := range steps {
		_, err := svc.GenerateReceipt(ctx, "p1")
		assert.ErrorIs(t, err, ErrJourneyNotCompleted)
		_, err = complete()
		require.NoError(t, err)
	}
	_, err = svc.GenerateReceipt(ctx, "p1")
	assert.ErrorIs(t, err, ErrJourneyNotCompleted)

	_, err = svc.MarkPharmacyComplete(ctx, "p1", "", "")
	require.NoError(t, err)

	receipt, err := svc.GenerateReceipt(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", receipt.PatientID)
	assert.Equal(t, "Ama Mensah", receipt.PatientName)
	assert.Equal(t, 375, receipt.TotalCost)
	assert.Len(t, receipt.Steps, 5)
	require.NotNil(t, receipt.CheckOutTime)
	assert.False(t, receipt.ReceiptDate.IsZero())
	for _, rs := range receipt.Steps {
		assert.NotNil(t, rs.CompletedAt, "step %s should carry its completion time", rs.Step)
	}

	// Pure projection, callable repeatedly.
	again, err := svc.GenerateReceipt(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, receipt.TotalCost, again.TotalCost)
}

func TestGetAllActiveJourneys(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, "p2", PatientProfile{FirstName: "Kofi", LastName: "Owusu"})
	require.NoError(t, err)

	// Walk p1 all the way through.
	_, err = svc.MarkPaymentComplete(ctx, "p1", "")
	require.NoError(t, err)
	_, err = svc.MarkAnalystComplete(ctx, "p1", "")
	require.NoError(t, err)
	_, err = svc.MarkDoctorComplete(ctx, "p1", "", "")
	require.NoError(t, err)
	_, err = svc.MarkPharmacyComplete(ctx, "p1", "", "")
	require.NoError(t, err)

	active, err := svc.GetAllActiveJourneys(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "p2", active[0].PatientID)
}

func TestNotifierFailureDoesNotBlockJourney(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{err: errors.New("smtp down")}
	svc := NewService(store, notifier, &memAudit{}, zap.NewNop())
	ctx := context.Background()

	j, err := svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)
	assert.Equal(t, StepPayment, j.CurrentStep)

	j, err = svc.MarkPaymentComplete(ctx, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, StepAnalyst, j.CurrentStep)
}

func TestNilNotifierIsAccepted(t *testing.T) {
	svc := NewService(newMemStore(), nil, &memAudit{}, zap.NewNop())

	j, err := svc.CheckIn(context.Background(), "p1", testProfile())
	require.NoError(t, err)
	assert.Equal(t, StepPayment, j.CurrentStep)
}

func TestScenarioFullVisit(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	j, err := svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)
	assert.Equal(t, StepPayment, j.CurrentStep)

	j, err = svc.MarkPaymentComplete(ctx, "p1", "cashier")
	require.NoError(t, err)
	assert.Equal(t, StepAnalyst, j.CurrentStep)

	j, err = svc.MarkDoctorComplete(ctx, "p1", "dr-1", "")
	require.NoError(t, err)
	assert.Equal(t, StepAnalyst, j.CurrentStep, "doctor done, analyst still blocks the pointer")

	j, err = svc.MarkAnalystComplete(ctx, "p1", "an-1")
	require.NoError(t, err)
	assert.Equal(t, StepPharmacy, j.CurrentStep)

	j, err = svc.MarkPharmacyComplete(ctx, "p1", "ph-1", "")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, j.OverallStatus)
	require.NotNil(t, j.CheckOutTime)

	receipt, err := svc.GenerateReceipt(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 375, receipt.TotalCost)
}

func TestBackReferenceLandsInSameSaveAsStep(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)

	before := store.saveCount()
	_, err = svc.MarkDoctorComplete(ctx, "p1", "dr-1", "appt-5")
	require.NoError(t, err)
	assert.Equal(t, before+1, store.saveCount(),
		"appointment back-reference must persist with the step, not in a second save")

	j, err := svc.GetJourney(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "appt-5", j.AppointmentID)
	idx := j.findStep(StepDoctor)
	assert.Equal(t, StatusCompleted, j.Steps[idx].Status)

	before = store.saveCount()
	_, err = svc.MarkPharmacyComplete(ctx, "p1", "ph-1", "rx-5")
	require.NoError(t, err)
	assert.Equal(t, before+1, store.saveCount())

	j, err = svc.GetJourney(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "rx-5", j.PrescriptionID)
}

// Every station reporting at once for the same patient: the per-patient lock
// must serialize the read-modify-writes so no completed step is reverted by a
// stale copy saved later.
func TestConcurrentStationUpdatesLoseNoSteps(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "p1", testProfile())
	require.NoError(t, err)

	start := make(chan struct{})
	var wg sync.WaitGroup
	run := func(f func() (*Journey, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f()
			assert.NoError(t, err)
		}()
	}

	run(func() (*Journey, error) { return svc.CheckIn(ctx, "p1", testProfile()) })
	run(func() (*Journey, error) { return svc.MarkPaymentComplete(ctx, "p1", "cashier") })
	run(func() (*Journey, error) { return svc.MarkAnalystComplete(ctx, "p1", "an-1") })
	run(func() (*Journey, error) { return svc.MarkDoctorComplete(ctx, "p1", "dr-1", "appt-3") })
	run(func() (*Journey, error) { return svc.MarkPharmacyComplete(ctx, "p1", "ph-1", "rx-3") })

	close(start)
	wg.Wait()

	assert.Equal(t, 1, store.journeyCount(), "concurrent check-in must not create a second journey")

	j, err := svc.GetJourney(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, j.OverallStatus)
	assert.Equal(t, StepCompleted, j.CurrentStep)
	for _, rec := range j.Steps {
		assert.Equal(t, StatusCompleted, rec.Status, "step %s was lost", rec.Step)
	}
	assert.Equal(t, "appt-3", j.AppointmentID)
	assert.Equal(t, "rx-3", j.PrescriptionID)
	assert.True(t, j.ReceiptGenerated)
	require.NotNil(t, j.CheckOutTime)
	assert.Equal(t, 1, countCompletionNotices(notifier))
}
