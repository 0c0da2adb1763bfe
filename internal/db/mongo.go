package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps each collection in a MongoDB collection of the same name
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri with the same retry policy as the Postgres pool
func NewMongoStore(ctx context.Context, uri, database string, maxRetries int, initialDelay time.Duration) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(30).
		SetMaxConnIdleTime(5 * time.Minute)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("[DB] Mongo connection attempt %d/%d", attempt, maxRetries)
		client, err := mongo.Connect(ctx, opts)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = client.Ping(pingCtx, nil)
			cancel()
			if err == nil {
				log.Printf("[DB] Connected to MongoDB database %s on attempt %d", database, attempt)
				return &MongoStore{client: client, db: client.Database(database)}, nil
			}
			_ = client.Disconnect(ctx)
		}
		lastErr = err
		log.Printf("[DB] Mongo connection failed (attempt %d): %v", attempt, err)
		if attempt < maxRetries {
			time.Sleep(initialDelay * time.Duration(1<<(attempt-1)))
		}
	}
	return nil, fmt.Errorf("failed to connect to mongo after %d attempts: %w", maxRetries, lastErr)
}

func mongoKey(k string) string {
	if k == "id" {
		return "_id"
	}
	return k
}

func mongoFilter(filter Filter, opts *FindOptions) bson.M {
	out := bson.M{}
	for k, v := range filter {
		if r, ok := v.(Between); ok {
			out[mongoKey(k)] = bson.M{"$gt": r.Min, "$lt": r.Max}
			continue
		}
		out[mongoKey(k)] = v
	}
	if opts != nil {
		for k, needle := range opts.Match {
			out[mongoKey(k)] = primitive.Regex{Pattern: regexp.QuoteMeta(needle), Options: "i"}
		}
	}
	return out
}

func mongoErr(coll string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", coll, ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", coll, ErrConflict)
	}
	return fmt.Errorf("%s: %w", coll, err)
}

func (s *MongoStore) Insert(ctx context.Context, coll, id string, doc any) error {
	_, err := s.db.Collection(coll).InsertOne(ctx, doc)
	return mongoErr(coll, err)
}

func (s *MongoStore) FindByID(ctx context.Context, coll, id string, out any) error {
	return mongoErr(coll, s.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out))
}

func (s *MongoStore) FindOne(ctx context.Context, coll string, filter Filter, out any) error {
	if err := checkFilter(filter, nil); err != nil {
		return err
	}
	return mongoErr(coll, s.db.Collection(coll).FindOne(ctx, mongoFilter(filter, nil)).Decode(out))
}

func (s *MongoStore) Find(ctx context.Context, coll string, filter Filter, opts *FindOptions, out any) error {
	if err := checkFilter(filter, opts); err != nil {
		return err
	}
	findOpts := options.Find()
	if opts != nil {
		if opts.Sort != "" {
			dir := 1
			if opts.Desc {
				dir = -1
			}
			findOpts.SetSort(bson.D{{Key: mongoKey(opts.Sort), Value: dir}})
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
		if opts.Skip > 0 {
			findOpts.SetSkip(opts.Skip)
		}
	}
	cur, err := s.db.Collection(coll).Find(ctx, mongoFilter(filter, opts), findOpts)
	if err != nil {
		return mongoErr(coll, err)
	}
	return mongoErr(coll, cur.All(ctx, out))
}

func (s *MongoStore) Count(ctx context.Context, coll string, filter Filter) (int64, error) {
	if err := checkFilter(filter, nil); err != nil {
		return 0, err
	}
	n, err := s.db.Collection(coll).CountDocuments(ctx, mongoFilter(filter, nil))
	return n, mongoErr(coll, err)
}

func (s *MongoStore) Replace(ctx context.Context, coll, id string, doc any) error {
	res, err := s.db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return mongoErr(coll, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	res, err := s.db.Collection(coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return mongoErr(coll, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) UpdateMany(ctx context.Context, coll string, filter Filter, fields map[string]any) (int64, error) {
	if err := checkFilter(filter, nil); err != nil {
		return 0, err
	}
	res, err := s.db.Collection(coll).UpdateMany(ctx, mongoFilter(filter, nil), bson.M{"$set": fields})
	if err != nil {
		return 0, mongoErr(coll, err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) Delete(ctx context.Context, coll, id string) error {
	res, err := s.db.Collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoErr(coll, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) EnsureUnique(ctx context.Context, coll string, fields ...string) error {
	keys := bson.D{}
	for _, f := range fields {
		if err := checkField(f); err != nil {
			return err
		}
		keys = append(keys, bson.E{Key: mongoKey(f), Value: 1})
	}
	name := coll + "_" + strings.Join(fields, "_") + "_uniq"
	_, err := s.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(true).SetName(name),
	})
	if err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	log.Println("[DB] Closing MongoDB client")
	return s.client.Disconnect(ctx)
}
