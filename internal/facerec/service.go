package facerec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/opticlinic/clinic-flow/internal/audit"
)

var (
	ErrNoMatch         = errors.New("no matching face found")
	ErrEmptyImage      = errors.New("image data is empty")
	ErrAlreadyEnrolled = errors.New("patient already has an enrolled face")
	ErrFaceRecNotFound = errors.New("face record not found")
)

const collectionName = "face_descriptors"

// DefaultThreshold is the maximum descriptor distance treated as the same
// person.
const DefaultThreshold = 0.6

// Record stores one patient's enrolled descriptor.
type Record struct {
	ID         string    `json:"id" bson:"_id"`
	PatientID  string    `json:"patient_id" bson:"patient_id"`
	Descriptor []float64 `json:"-" bson:"descriptor"`
	EnrolledAt time.Time `json:"enrolled_at" bson:"enrolled_at"`
}

// Match is a recognition hit.
type Match struct {
	PatientID string  `json:"patient_id"`
	Distance  float64 `json:"distance"`
}

type Service interface {
	Enroll(ctx context.Context, patientID string, image []byte) (*Record, error)
	Recognize(ctx context.Context, image []byte) (*Match, error)
	Unenroll(ctx context.Context, patientID string) error
}

type service struct {
	coll      *mongo.Collection
	extractor Extractor
	threshold float64
	audit     audit.Service
	logger    *zap.Logger
}

func NewService(db *mongo.Database, extractor Extractor, threshold float64, auditSvc audit.Service, logger *zap.Logger) Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &service{
		coll:      db.Collection(collectionName),
		extractor: extractor,
		threshold: threshold,
		audit:     auditSvc,
		logger:    logger,
	}
}

func (s *service) Enroll(ctx context.Context, patientID string, image []byte) (*Record, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	count, err := s.coll.CountDocuments(ctx, bson.M{"patient_id": patientID})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyEnrolled
	}

	descriptor, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to extract descriptor: %w", err)
	}

	record := &Record{
		ID:         uuid.New().String(),
		PatientID:  patientID,
		Descriptor: descriptor,
		EnrolledAt: time.Now(),
	}

	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to insert face record: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		Action:     "ENROLL",
		Resource:   "face_descriptor",
		ResourceID: record.ID,
		Status:     "success",
	})

	return record, nil
}

// Recognize compares the probe image against every enrolled descriptor and
// returns the nearest patient within the distance threshold.
func (s *service) Recognize(ctx context.Context, image []byte) (*Match, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	probe, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to extract descriptor: %w", err)
	}

	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	best := &Match{Distance: s.threshold}
	for cursor.Next(ctx) {
		var record Record
		if err := cursor.Decode(&record); err != nil {
			return nil, err
		}
		d := euclideanDistance(probe, record.Descriptor)
		if d <= best.Distance {
			best.PatientID = record.PatientID
			best.Distance = d
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	if best.PatientID == "" {
		return nil, ErrNoMatch
	}

	s.logger.Info("face recognized",
		zap.String("patient_id", best.PatientID),
		zap.Float64("distance", best.Distance),
	)

	return best, nil
}

func (s *service) Unenroll(ctx context.Context, patientID string) error {
	res, err := s.coll.DeleteMany(ctx, bson.M{"patient_id": patientID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrFaceRecNotFound
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		Action:     "UNENROLL",
		Resource:   "face_descriptor",
		ResourceID: patientID,
		Status:     "success",
	})

	return nil
}
