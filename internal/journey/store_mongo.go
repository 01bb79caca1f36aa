package journey

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "patient_journeys"

type mongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a Store backed by the patient_journeys collection.
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{
		coll: db.Collection(collectionName),
	}
}

// EnsureIndexes creates the compound index the day-scoped lookups rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "patient_id", Value: 1},
			{Key: "check_in_time", Value: -1},
		},
	})
	return err
}

func (s *mongoStore) FindForPatientToday(ctx context.Context, patientID string) (*Journey, error) {
	filter := bson.M{
		"patient_id":    patientID,
		"check_in_time": bson.M{"$gte": startOfDay(time.Now())},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "check_in_time", Value: -1}})

	var j Journey
	err := s.coll.FindOne(ctx, filter, opts).Decode(&j)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrJourneyNotFound
		}
		return nil, err
	}

	return &j, nil
}

func (s *mongoStore) FindAllActiveToday(ctx context.Context) ([]*Journey, error) {
	filter := bson.M{
		"check_in_time":  bson.M{"$gte": startOfDay(time.Now())},
		"overall_status": bson.M{"$ne": StatusCompleted},
	}
	opts := options.Find().SetSort(bson.D{{Key: "check_in_time", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var journeys []*Journey
	if err := cursor.All(ctx, &journeys); err != nil {
		return nil, err
	}

	return journeys, nil
}

func (s *mongoStore) Save(ctx context.Context, j *Journey) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": j.ID}, j, opts)
	return err
}
