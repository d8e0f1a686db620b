package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aidigest/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const DigestCollection = "digests"

type digestDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Date      string             `bson:"date"`
	Day       time.Time          `bson:"day"`
	Stories   []model.Story      `bson:"stories"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d digestDocument) toModel() *model.Digest {
	return &model.Digest{
		ID:        d.ID.Hex(),
		Date:      d.Date,
		Day:       d.Day,
		Stories:   d.Stories,
		CreatedAt: d.CreatedAt,
	}
}

type MongoDigestRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoDigestRepository(client *mongo.Client, database string) *MongoDigestRepository {
	return &MongoDigestRepository{
		client:     client,
		collection: client.Database(database).Collection(DigestCollection),
	}
}

// EnsureSchema creates the unique index on date that makes concurrent
// first writes for one day collapse into a single record.
func (r *MongoDigestRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoDigestRepository) GetByDate(ctx context.Context, date string) (*model.Digest, error) {
	var doc digestDocument
	err := r.collection.FindOne(ctx, bson.M{"date": date}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoDigestRepository) InsertIfAbsent(ctx context.Context, d *model.Digest) (*model.Digest, bool, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"day":       d.Day,
		"stories":   d.Stories,
		"createdAt": d.CreatedAt,
	}}

	res, err := r.collection.UpdateOne(ctx, bson.M{"date": d.Date}, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, false, err
	}

	if err == nil && res.UpsertedCount == 1 {
		stored := *d
		if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
			stored.ID = id.Hex()
		}
		return &stored, true, nil
	}

	existing, err := r.GetByDate(ctx, d.Date)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("digest %q conflicted but is missing", d.Date)
	}
	return existing, false, nil
}

func (r *MongoDigestRepository) ListDates(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "day", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"date": 1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	dates := []string{}
	for cursor.Next(ctx) {
		var doc struct {
			Date string `bson:"date"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		dates = append(dates, doc.Date)
	}

	return dates, cursor.Err()
}

func (r *MongoDigestRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}
