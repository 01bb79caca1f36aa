package prescription

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
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrAlreadyDispensed     = errors.New("prescription already dispensed")
)

const collectionName = "prescriptions"

type Status string

const (
	StatusIssued    Status = "issued"
	StatusDispensed Status = "dispensed"
	StatusCancelled Status = "cancelled"
)

// Item is one prescribed medication or lens.
type Item struct {
	Name     string `json:"name" bson:"name"`
	Dosage   string `json:"dosage,omitempty" bson:"dosage,omitempty"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

type Prescription struct {
	ID        string `json:"id" bson:"_id"`
	PatientID string `json:"patient_id" bson:"patient_id"`
	DoctorID  string `json:"doctor_id" bson:"doctor_id"`

	Items  []Item `json:"items" bson:"items"`
	Status Status `json:"status" bson:"status"`
	Notes  string `json:"notes,omitempty" bson:"notes,omitempty"`

	DispensedBy string     `json:"dispensed_by,omitempty" bson:"dispensed_by,omitempty"`
	DispensedAt *time.Time `json:"dispensed_at,omitempty" bson:"dispensed_at,omitempty"`
	IssuedAt    time.Time  `json:"issued_at" bson:"issued_at"`
}

type Service interface {
	Issue(ctx context.Context, p *Prescription) (*Prescription, error)
	Get(ctx context.Context, id string) (*Prescription, error)
	Dispense(ctx context.Context, id, pharmacistID string) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Prescription, error)
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

func (s *service) Issue(ctx context.Context, p *Prescription) (*Prescription, error) {
	if p.PatientID == "" || p.DoctorID == "" {
		return nil, fmt.Errorf("patient_id and doctor_id are required")
	}
	if len(p.Items) == 0 {
		return nil, fmt.Errorf("at least one item is required")
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Status = StatusIssued
	p.IssuedAt = time.Now()

	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to insert prescription: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		UserID:     p.DoctorID,
		Action:     "ISSUE",
		Resource:   "prescription",
		ResourceID: p.ID,
		Status:     "success",
	})

	return p, nil
}

func (s *service) Get(ctx context.Context, id string) (*Prescription, error) {
	var p Prescription
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPrescriptionNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Dispense hands the medication over and marks the journey's pharmacy step,
// attaching this prescription as the journey's back-reference.
func (s *service) Dispense(ctx context.Context, id, pharmacistID string) (*Prescription, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusDispensed {
		return nil, ErrAlreadyDispensed
	}

	now := time.Now()
	p.Status = StatusDispensed
	p.DispensedBy = pharmacistID
	p.DispensedAt = &now

	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p); err != nil {
		return nil, fmt.Errorf("failed to update prescription: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		UserID:     pharmacistID,
		Action:     "DISPENSE",
		Resource:   "prescription",
		ResourceID: p.ID,
		Status:     "success",
	})

	if _, err := s.journeys.MarkPharmacyComplete(ctx, p.PatientID, pharmacistID, p.ID); err != nil {
		if !errors.Is(err, journey.ErrJourneyNotFound) {
			return nil, err
		}
	}

	return p, nil
}

func (s *service) ListByPatient(ctx context.Context, patientID string) ([]*Prescription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "issued_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"patient_id": patientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prescriptions []*Prescription
	if err := cursor.All(ctx, &prescriptions); err != nil {
		return nil, err
	}

	return prescriptions, nil
}
