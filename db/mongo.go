package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	MongoDatabase = "ai-digest"
	mongoTimeout  = 10 * time.Second
)

var Mongo *mongo.Client

func ConnectMongo(ctx context.Context, uri string) error {
	if uri == "" {
		return fmt.Errorf("MONGODB_URI is not set")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(mongoTimeout).
		SetConnectTimeout(mongoTimeout)

	var err error
	Mongo, err = mongo.Connect(ctx, opts)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	return Mongo.Ping(pingCtx, readpref.Primary())
}

func CloseMongo() {
	if Mongo != nil {
		Mongo.Disconnect(context.Background())
	}
}
