package staff

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
)

var (
	ErrStaffNotFound    = errors.New("staff member not found")
	ErrInvalidStaffData = errors.New("invalid staff data")
	ErrInvalidRole      = errors.New("invalid staff role")
	ErrMissingLicense   = errors.New("missing license number")
)

const collectionName = "staff"

type Service interface {
	Register(ctx context.Context, member *Member) error
	Get(ctx context.Context, id string) (*Member, error)
	Update(ctx context.Context, member *Member) error
	Deactivate(ctx context.Context, id string) error
	ListByRole(ctx context.Context, role Role) ([]*Member, error)
}

type service struct {
	coll  *mongo.Collection
	audit audit.Service
}

func NewService(db *mongo.Database, auditSvc audit.Service) Service {
	return &service{
		coll:  db.Collection(collectionName),
		audit: auditSvc,
	}
}

func (s *service) Register(ctx context.Context, member *Member) error {
	if err := member.Validate(); err != nil {
		return err
	}

	if member.ID == "" {
		member.ID = uuid.New().String()
	}

	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now
	member.Status = "ACTIVE"

	if _, err := s.coll.InsertOne(ctx, member); err != nil {
		return fmt.Errorf("failed to insert staff member: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		Action:     "CREATE",
		Resource:   "staff",
		ResourceID: member.ID,
		Status:     "success",
	})

	return nil
}

func (s *service) Get(ctx context.Context, id string) (*Member, error) {
	var member Member
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}

	return &member, nil
}

func (s *service) Update(ctx context.Context, member *Member) error {
	if err := member.Validate(); err != nil {
		return err
	}

	member.UpdatedAt = time.Now()

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": member.ID}, member)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStaffNotFound
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		Action:     "UPDATE",
		Resource:   "staff",
		ResourceID: member.ID,
		Status:     "success",
	})

	return nil
}

func (s *service) Deactivate(ctx context.Context, id string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": "INACTIVE", "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStaffNotFound
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		Action:     "DEACTIVATE",
		Resource:   "staff",
		ResourceID: id,
		Status:     "success",
	})

	return nil
}

func (s *service) ListByRole(ctx context.Context, role Role) ([]*Member, error) {
	filter := bson.M{"status": "ACTIVE"}
	if role != "" {
		if !validRoles[role] {
			return nil, ErrInvalidRole
		}
		filter["role"] = role
	}

	opts := options.Find().SetSort(bson.D{{Key: "last_name", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []*Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}

	return members, nil
}
