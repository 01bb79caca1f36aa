package eyetest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/opticlinic/clinic-flow/internal/audit"
	"github.com/opticlinic/clinic-flow/internal/journey"
)

var ErrEyeTestNotFound = errors.New("eye test not found")

const collectionName = "eye_tests"

// EyeTest is the analyst station's measurement record.
type EyeTest struct {
	ID        string `json:"id" bson:"_id"`
	PatientID string `json:"patient_id" bson:"patient_id"`
	AnalystID string `json:"analyst_id" bson:"analyst_id"`

	VisualAcuityLeft  string `json:"visual_acuity_left" bson:"visual_acuity_left"`
	VisualAcuityRight string `json:"visual_acuity_right" bson:"visual_acuity_right"`
	SphereLeft        string `json:"sphere_left,omitempty" bson:"sphere_left,omitempty"`
	SphereRight       string `json:"sphere_right,omitempty" bson:"sphere_right,omitempty"`
	CylinderLeft      string `json:"cylinder_left,omitempty" bson:"cylinder_left,omitempty"`
	CylinderRight     string `json:"cylinder_right,omitempty" bson:"cylinder_right,omitempty"`
	Notes             string `json:"notes,omitempty" bson:"notes,omitempty"`

	TestedAt  time.Time `json:"tested_at" bson:"tested_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type Service interface {
	Record(ctx context.Context, test *EyeTest) (*EyeTest, error)
	Get(ctx context.Context, id string) (*EyeTest, error)
	ListByPatient(ctx context.Context, patientID string) ([]*EyeTest, error)
}

type service struct {
	coll     *mongo.Collection
	journeys journey.Service
	audit    audit.Service
	logger   *zap.Logger
}

func NewService(db *mongo.Database, journeys journey.Service, auditSvc audit.Service, logger *zap.Logger) Service {
	return &service{
		coll:     db.Collection(collectionName),
		journeys: journeys,
		audit:    auditSvc,
		logger:   logger,
	}
}

// Record stores the measurements and completes the journey's analyst step.
// Walk-in eye tests without a check-in are allowed, so a missing journey is
// tolerated as a no-op.
func (s *service) Record(ctx context.Context, test *EyeTest) (*EyeTest, error) {
	if test.PatientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	if test.ID == "" {
		test.ID = uuid.New().String()
	}
	now := time.Now()
	if test.TestedAt.IsZero() {
		test.TestedAt = now
	}
	test.CreatedAt = now

	if _, err := s.coll.InsertOne(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to insert eye test: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		UserID:     test.AnalystID,
		Action:     "CREATE",
		Resource:   "eye_test",
		ResourceID: test.ID,
		Status:     "success",
	})

	if _, err := s.journeys.MarkAnalystComplete(ctx, test.PatientID, test.AnalystID); err != nil {
		if !errors.Is(err, journey.ErrJourneyNotFound) {
			return nil, err
		}
		s.logger.Info("journey update skipped, no active journey",
			zap.String("patient_id", test.PatientID),
		)
	}

	return test, nil
}

func (s *service) Get(ctx context.Context, id string) (*EyeTest, error) {
	var test EyeTest
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&test)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrEyeTestNotFound
		}
		return nil, err
	}
	return &test, nil
}

func (s *service) ListByPatient(ctx context.Context, patientID string) ([]*EyeTest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "tested_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"patient_id": patientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tests []*EyeTest
	if err := cursor.All(ctx, &tests); err != nil {
		return nil, err
	}

	return tests, nil
}
