package journey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opticlinic/clinic-flow/internal/audit"
	"github.com/opticlinic/clinic-flow/internal/notification"
)

var (
	ErrJourneyNotFound     = errors.New("no active journey found for today")
	ErrStepNotFound        = errors.New("step not found in journey")
	ErrJourneyNotCompleted = errors.New("journey is not yet completed")
)

type Service interface {
	CheckIn(ctx context.Context, patientID string, profile PatientProfile) (*Journey, error)
	GetJourney(ctx context.Context, patientID string) (*Journey, error)
	UpdateStep(ctx context.Context, patientID string, step Step, status Status, staffID, notes string) (*Journey, error)
	MarkPaymentComplete(ctx context.Context, patientID, staffID string) (*Journey, error)
	MarkAnalystComplete(ctx context.Context, patientID, staffID string) (*Journey, error)
	MarkDoctorComplete(ctx context.Context, patientID, staffID, appointmentID string) (*Journey, error)
	MarkPharmacyComplete(ctx context.Context, patientID, staffID, prescriptionID string) (*Journey, error)
	GenerateReceipt(ctx context.Context, patientID string) (*Receipt, error)
	GetAllActiveJourneys(ctx context.Context) ([]*Journey, error)
}

type service struct {
	store    Store
	notifier notification.Service
	audit    audit.Service
	logger   *zap.Logger
	locks    *keyedMutex
}

// NewService builds the journey engine. notifier may be nil; a no-op sink is
// substituted so every deployment gets identical journey behavior.
func NewService(store Store, notifier notification.Service, auditSvc audit.Service, logger *zap.Logger) Service {
	if notifier == nil {
		notifier = notification.NewNoopService()
	}
	return &service{
		store:    store,
		notifier: notifier,
		audit:    auditSvc,
		logger:   logger,
		locks:    newKeyedMutex(),
	}
}

func (s *service) CheckIn(ctx context.Context, patientID string, profile PatientProfile) (*Journey, error) {
	unlock := s.locks.Lock(patientID)
	defer unlock()

	journey, err := s.store.FindForPatientToday(ctx, patientID)
	if err == nil {
		// Already checked in today; check-in is idempotent.
		return journey, nil
	}
	if !errors.Is(err, ErrJourneyNotFound) {
		return nil, err
	}

	now := time.Now()
	journey = &Journey{
		ID:            uuid.New().String(),
		PatientID:     patientID,
		PatientName:   profile.FirstName + " " + profile.LastName,
		PatientEmail:  profile.Email,
		PatientPhone:  profile.Phone,
		CheckInTime:   now,
		Steps:         newSteps(now),
		CurrentStep:   StepPayment,
		OverallStatus: StatusInProgress,
		Costs:         DefaultCosts(),
	}

	if err := s.store.Save(ctx, journey); err != nil {
		return nil, fmt.Errorf("failed to save journey: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventCheckIn,
		UserID:     patientID,
		Action:     "CHECK_IN",
		Resource:   "journey",
		ResourceID: journey.ID,
		Status:     "success",
	})

	s.sendStepNotification(ctx, patientID, StepRegistration,
		"Registration completed! Please proceed to payment.")

	return journey, nil
}

func (s *service) GetJourney(ctx context.Context, patientID string) (*Journey, error) {
	return s.store.FindForPatientToday(ctx, patientID)
}

func (s *service) UpdateStep(ctx context.Context, patientID string, step Step, status Status, staffID, notes string) (*Journey, error) {
	return s.updateStep(ctx, patientID, step, status, staffID, notes, nil)
}

// updateStep holds the patient's keyed mutex for the entire read-modify-write,
// including the optional annotate hook, so the hook's changes land in the same
// save as the step mutation instead of racing a concurrent update.
func (s *service) updateStep(ctx context.Context, patientID string, step Step, status Status, staffID, notes string, annotate func(*Journey)) (*Journey, error) {
	unlock := s.locks.Lock(patientID)
	defer unlock()

	journey, err := s.store.FindForPatientToday(ctx, patientID)
	if err != nil {
		return nil, err
	}

	idx := journey.findStep(step)
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, step)
	}

	// A re-completion of an already completed step must not re-notify.
	wasPending := journey.Steps[idx].Status == StatusPending

	journey.Steps[idx].Status = status
	if status == StatusCompleted {
		now := time.Now()
		journey.Steps[idx].CompletedAt = &now

		if wasPending {
			s.sendStepNotification(ctx, patientID, step,
				fmt.Sprintf("%s completed successfully! %s", step.DisplayName(), nextStepMessages[step]))
		}
	}
	if staffID != "" {
		journey.Steps[idx].StaffID = staffID
	}
	if notes != "" {
		journey.Steps[idx].Notes = notes
	}

	s.advance(ctx, journey)

	if annotate != nil {
		annotate(journey)
	}

	if err := s.store.Save(ctx, journey); err != nil {
		return nil, fmt.Errorf("failed to save journey: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventStep,
		UserID:     staffID,
		Action:     string(step) + ":" + string(status),
		Resource:   "journey",
		ResourceID: journey.ID,
		Status:     "success",
	})

	return journey, nil
}

// advance recomputes the denormalized CurrentStep/OverallStatus pointers and
// handles the terminal transition. Check-out time and the receipt flag are
// set exactly once: re-completing a step on a finished journey leaves them
// untouched and emits no second completion notification.
func (s *service) advance(ctx context.Context, journey *Journey) {
	next := nextPendingStep(journey.Steps)
	journey.CurrentStep = next
	if next != StepCompleted {
		return
	}

	journey.OverallStatus = StatusCompleted
	if journey.CheckOutTime == nil {
		now := time.Now()
		journey.CheckOutTime = &now
	}

	if !journey.ReceiptGenerated {
		journey.ReceiptGenerated = true
		s.sendStepNotification(ctx, journey.PatientID, StepCompleted,
			fmt.Sprintf("Your visit is complete! Total cost: $%d. Receipt has been generated.", journey.Costs.Total))

		s.audit.LogEvent(ctx, &audit.Event{
			EventType:  audit.EventCheckOut,
			UserID:     journey.PatientID,
			Action:     "CHECK_OUT",
			Resource:   "journey",
			ResourceID: journey.ID,
			Status:     "success",
		})
	}
}

func (s *service) MarkPaymentComplete(ctx context.Context, patientID, staffID string) (*Journey, error) {
	return s.UpdateStep(ctx, patientID, StepPayment, StatusCompleted, staffID, "")
}

func (s *service) MarkAnalystComplete(ctx context.Context, patientID, staffID string) (*Journey, error) {
	return s.UpdateStep(ctx, patientID, StepAnalyst, StatusCompleted, staffID, "")
}

func (s *service) MarkDoctorComplete(ctx context.Context, patientID, staffID, appointmentID string) (*Journey, error) {
	return s.updateStep(ctx, patientID, StepDoctor, StatusCompleted, staffID, "", func(j *Journey) {
		if appointmentID != "" {
			j.AppointmentID = appointmentID
		}
	})
}

func (s *service) MarkPharmacyComplete(ctx context.Context, patientID, staffID, prescriptionID string) (*Journey, error) {
	return s.updateStep(ctx, patientID, StepPharmacy, StatusCompleted, staffID, "", func(j *Journey) {
		if prescriptionID != "" {
			j.PrescriptionID = prescriptionID
		}
	})
}

func (s *service) GenerateReceipt(ctx context.Context, patientID string) (*Receipt, error) {
	journey, err := s.store.FindForPatientToday(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if journey.OverallStatus != StatusCompleted {
		return nil, ErrJourneyNotCompleted
	}

	steps := make([]ReceiptStep, 0, len(journey.Steps))
	for _, rec := range journey.Steps {
		steps = append(steps, ReceiptStep{
			Step:        rec.Step,
			CompletedAt: rec.CompletedAt,
		})
	}

	return &Receipt{
		PatientID:    journey.PatientID,
		PatientName:  journey.PatientName,
		CheckInTime:  journey.CheckInTime,
		CheckOutTime: journey.CheckOutTime,
		Costs:        journey.Costs,
		Steps:        steps,
		TotalCost:    journey.Costs.Total,
		ReceiptDate:  time.Now(),
	}, nil
}

func (s *service) GetAllActiveJourneys(ctx context.Context) ([]*Journey, error) {
	return s.store.FindAllActiveToday(ctx)
}

// sendStepNotification is fire-and-forget: journey progression must never be
// blocked by a failing notification subsystem.
func (s *service) sendStepNotification(ctx context.Context, patientID string, step Step, message string) {
	err := s.notifier.Create(ctx, &notification.Notification{
		UserID:   patientID,
		Title:    "Step Completed: " + step.DisplayName(),
		Message:  message,
		Type:     notification.TypeJourney,
		Priority: notification.PriorityMedium,
	})
	if err != nil {
		s.logger.Warn("notification creation skipped",
			zap.String("patient_id", patientID),
			zap.String("step", string(step)),
			zap.Error(err),
		)
	}
}
