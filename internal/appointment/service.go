package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opticlinic/clinic-flow/internal/audit"
	"github.com/opticlinic/clinic-flow/internal/journey"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAlreadyCompleted    = errors.New("appointment already completed")
)

const collectionName = "appointments"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Appointment is a doctor consultation.
type Appointment struct {
	ID        string `json:"id" bson:"_id"`
	PatientID string `json:"patient_id" bson:"patient_id"`
	DoctorID  string `json:"doctor_id" bson:"doctor_id"`

	Status    Status `json:"status" bson:"status"`
	Reason    string `json:"reason,omitempty" bson:"reason,omitempty"`
	Diagnosis string `json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Notes     string `json:"notes,omitempty" bson:"notes,omitempty"`

	ScheduledAt time.Time  `json:"scheduled_at" bson:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
}

type Service interface {
	Schedule(ctx context.Context, appt *Appointment) (*Appointment, error)
	Get(ctx context.Context, id string) (*Appointment, error)
	Complete(ctx context.Context, id, diagnosis, notes string) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error)
}

type service struct {
	coll     *mongo.Collection
	journeys journey.Service
	audit    audit.Service
}

func NewService(db *mongo.Database, journeys journey.Service, auditSvc audit.Service) Service {
	return &service{
		coll:     db.Collection(collectionName),
		journeys: journeys,
		audit:    auditSvc,
	}
}

func (s *service) Schedule(ctx context.Context, appt *Appointment) (*Appointment, error) {
	if appt.PatientID == "" || appt.DoctorID == "" {
		return nil, fmt.Errorf("patient_id and doctor_id are required")
	}

	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	if appt.ScheduledAt.IsZero() {
		appt.ScheduledAt = time.Now()
	}
	appt.Status = StatusScheduled
	appt.CreatedAt = time.Now()

	if _, err := s.coll.InsertOne(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to insert appointment: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		UserID:     appt.DoctorID,
		Action:     "SCHEDULE",
		Resource:   "appointment",
		ResourceID: appt.ID,
		Status:     "success",
	})

	return appt, nil
}

func (s *service) Get(ctx context.Context, id string) (*Appointment, error) {
	var appt Appointment
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&appt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &appt, nil
}

// Complete finishes the consultation and marks the journey's doctor step,
// attaching this appointment as the journey's back-reference.
func (s *service) Complete(ctx context.Context, id, diagnosis, notes string) (*Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	now := time.Now()
	appt.Status = StatusCompleted
	appt.CompletedAt = &now
	if diagnosis != "" {
		appt.Diagnosis = diagnosis
	}
	if notes != "" {
		appt.Notes = notes
	}

	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": appt.ID}, appt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		UserID:     appt.DoctorID,
		Action:     "COMPLETE",
		Resource:   "appointment",
		ResourceID: appt.ID,
		Status:     "success",
	})

	if _, err := s.journeys.MarkDoctorComplete(ctx, appt.PatientID, appt.DoctorID, appt.ID); err != nil {
		if !errors.Is(err, journey.ErrJourneyNotFound) {
			return nil, err
		}
	}

	return appt, nil
}

func (s *service) ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"patient_id": patientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var appts []*Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, err
	}

	return appts, nil
}
