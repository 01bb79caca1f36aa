package patient

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
	"github.com/opticlinic/clinic-flow/internal/encryption"
)

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrInvalidPatientData = errors.New("invalid patient data")
	ErrInvalidDateOfBirth = errors.New("invalid date of birth")
)

const collectionName = "patients"

type Service interface {
	Create(ctx context.Context, patient *Patient) error
	Get(ctx context.Context, id string) (*Patient, error)
	Update(ctx context.Context, patient *Patient) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*Patient, error)
}

type service struct {
	coll    *mongo.Collection
	encrypt encryption.Service
	audit   audit.Service
}

func NewService(db *mongo.Database, encrypt encryption.Service, auditSvc audit.Service) Service {
	return &service{
		coll:    db.Collection(collectionName),
		encrypt: encrypt,
		audit:   auditSvc,
	}
}

func (s *service) Create(ctx context.Context, patient *Patient) error {
	if err := patient.Validate(); err != nil {
		return err
	}

	if patient.ID == "" {
		patient.ID = uuid.New().String()
	}

	if err := s.encryptContactData(patient); err != nil {
		return err
	}

	now := time.Now()
	patient.CreatedAt = now
	patient.UpdatedAt = now
	patient.Status = "ACTIVE"

	if userID, ok := ctx.Value("user_id").(string); ok {
		patient.CreatedBy = userID
		patient.LastModifiedBy = userID
	}

	if _, err := s.coll.InsertOne(ctx, patient); err != nil {
		return fmt.Errorf("failed to insert patient: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		UserID:     patient.CreatedBy,
		Action:     "CREATE",
		Resource:   "patient",
		ResourceID: patient.ID,
		Status:     "success",
	})

	// Hand decrypted values back to the caller.
	return s.decryptContactData(patient)
}

func (s *service) Get(ctx context.Context, id string) (*Patient, error) {
	var patient Patient
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "deleted_at": nil}).Decode(&patient)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	if err := s.decryptContactData(&patient); err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventAccess,
		Action:     "READ",
		Resource:   "patient",
		ResourceID: patient.ID,
		Status:     "success",
	})

	return &patient, nil
}

func (s *service) Update(ctx context.Context, patient *Patient) error {
	if err := patient.Validate(); err != nil {
		return err
	}

	if err := s.encryptContactData(patient); err != nil {
		return err
	}

	patient.UpdatedAt = time.Now()
	if userID, ok := ctx.Value("user_id").(string); ok {
		patient.LastModifiedBy = userID
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": patient.ID, "deleted_at": nil}, patient)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPatientNotFound
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		UserID:     patient.LastModifiedBy,
		Action:     "UPDATE",
		Resource:   "patient",
		ResourceID: patient.ID,
		Status:     "success",
	})

	return s.decryptContactData(patient)
}

func (s *service) Delete(ctx context.Context, id string) error {
	now := time.Now()
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": now, "status": "INACTIVE"}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPatientNotFound
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventDelete,
		Action:     "DELETE",
		Resource:   "patient",
		ResourceID: id,
		Status:     "success",
	})

	return nil
}

func (s *service) List(ctx context.Context, limit, offset int) ([]*Patient, error) {
	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := s.coll.Find(ctx, bson.M{"deleted_at": nil}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var patients []*Patient
	if err := cursor.All(ctx, &patients); err != nil {
		return nil, err
	}

	for _, p := range patients {
		if err := s.decryptContactData(p); err != nil {
			return nil, err
		}
	}

	return patients, nil
}

func (s *service) encryptContactData(patient *Patient) error {
	if patient.Email != "" {
		encrypted, err := s.encrypt.Encrypt([]byte(patient.Email))
		if err != nil {
			return err
		}
		patient.Email = encrypted
	}

	if patient.Phone != "" {
		encrypted, err := s.encrypt.Encrypt([]byte(patient.Phone))
		if err != nil {
			return err
		}
		patient.Phone = encrypted
	}

	return nil
}

func (s *service) decryptContactData(patient *Patient) error {
	if patient.Email != "" {
		decrypted, err := s.encrypt.Decrypt(patient.Email)
		if err != nil {
			return err
		}
		patient.Email = string(decrypted)
	}

	if patient.Phone != "" {
		decrypted, err := s.encrypt.Decrypt(patient.Phone)
		if err != nil {
			return err
		}
		patient.Phone = string(decrypted)
	}

	return nil
}
