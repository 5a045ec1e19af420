package persistent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jghoshh/getfit/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is a DocumentStore backed by a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	dbName string
	uri    string
}

// NewMongoStore creates a new instance of MongoStore.
// This function doesn't establish a connection to the MongoDB server.
// To connect to the server, use the Connect method of the returned MongoStore instance.
func NewMongoStore(dbName, uri string) *MongoStore {
	return &MongoStore{dbName: dbName, uri: uri}
}

// Connect establishes a connection to the MongoDB server and sets up the
// indexes the repository queries rely on.
func (m *MongoStore) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.uri))
	if err != nil {
		return fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	m.client = client
	m.db = client.Database(m.dbName)

	// Every email maps to exactly one account.
	for _, coll := range []string{models.UsersCollection, models.CredentialsCollection} {
		_, err = m.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("error creating email index on %s: %w", coll, err)
		}
	}

	_, err = m.db.Collection(models.UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "stats.totalWorkouts", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("error creating leaderboard index: %w", err)
	}

	ownerIndexes := map[string]string{
		models.ActivitiesCollection:    "createdAt",
		models.WorkoutsCollection:      "completedAt",
		models.MealsCollection:         "createdAt",
		models.HealthMetricsCollection: "createdAt",
		models.GoalsCollection:         "createdAt",
	}
	for coll, sortField := range ownerIndexes {
		_, err = m.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: sortField, Value: -1}},
		})
		if err != nil {
			return fmt.Errorf("error creating userId index on %s: %w", coll, err)
		}
	}

	return nil
}

// Disconnect closes the connection to the MongoDB server.
func (m *MongoStore) Disconnect(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

func (m *MongoStore) NewID(collection string) string {
	return primitive.NewObjectID().Hex()
}

func (m *MongoStore) Get(ctx context.Context, collection, id string, dst interface{}) (bool, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}
	if err := decodeDocument(fromMongo(raw), dst); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MongoStore) Set(ctx context.Context, collection, id string, doc interface{}) error {
	_, err := m.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return m.updateOne(ctx, collection, id, bson.M{"$set": bson.M(fields)})
}

func (m *MongoStore) Increment(ctx context.Context, collection, id string, deltas map[string]interface{}) error {
	return m.updateOne(ctx, collection, id, bson.M{"$inc": bson.M(deltas)})
}

func (m *MongoStore) AddToSet(ctx context.Context, collection, id, field string, value interface{}) error {
	return m.updateOne(ctx, collection, id, bson.M{"$addToSet": bson.M{field: value}})
}

func (m *MongoStore) updateOne(ctx context.Context, collection, id string, update bson.M) error {
	result, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *MongoStore) Query(ctx context.Context, q Query, dst interface{}) error {
	if err := q.validate(); err != nil {
		return err
	}

	filter := bson.M{}
	for _, f := range q.Filters {
		field := mongoField(f.Field)
		switch f.Op {
		case OpEqual:
			filter[field] = f.Value
		case OpIn:
			filter[field] = bson.M{"$in": f.Value}
		case OpGreaterOrEqual, OpLessOrEqual:
			op := "$gte"
			if f.Op == OpLessOrEqual {
				op = "$lte"
			}
			// Range bounds on one field share a single operator document.
			if existing, ok := filter[field].(bson.M); ok {
				existing[op] = f.Value
			} else {
				filter[field] = bson.M{op: f.Value}
			}
		}
	}

	opts := options.Find()
	if q.OrderBy != "" {
		direction := 1
		if q.Descending {
			direction = -1
		}
		order := bson.D{{Key: mongoField(q.OrderBy), Value: direction}}
		if q.ThenBy != "" {
			order = append(order, bson.E{Key: mongoField(q.ThenBy), Value: direction})
		}
		opts.SetSort(order)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := m.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	defer cursor.Close(ctx)

	var docs []map[string]interface{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode %s document: %w", q.Collection, err)
		}
		docs = append(docs, fromMongo(raw))
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	return decodeAll(docs, dst)
}

// changeEvent is the subset of a change stream event Watch reads.
type changeEvent struct {
	OperationType string `bson:"operationType"`
	FullDocument  bson.M `bson:"fullDocument"`
}

// Watch delivers the current document and then follows it through a change
// stream. Change streams require the server to run as a replica set.
func (m *MongoStore) Watch(ctx context.Context, collection, id string, onChange func(Snapshot), onError func(error)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}}}
	stream, err := m.db.Collection(collection).Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to watch %s/%s: %w", collection, id, err)
	}

	var raw bson.M
	err = m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		onChange(Snapshot{})
	case err != nil:
		onError(fmt.Errorf("failed to read %s/%s: %w", collection, id, err))
	default:
		onChange(Snapshot{Exists: true, data: fromMongo(raw)})
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var event changeEvent
			if err := stream.Decode(&event); err != nil {
				onError(fmt.Errorf("failed to decode change event: %w", err))
				continue
			}
			if event.OperationType == "delete" || event.FullDocument == nil {
				onChange(Snapshot{})
				continue
			}
			onChange(Snapshot{Exists: true, data: fromMongo(event.FullDocument)})
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.Printf("change stream on %s/%s ended: %v", collection, id, err)
			onError(err)
		}
	}()

	return cancel, nil
}

// fromMongo normalizes a raw MongoDB document and exposes _id as id.
func fromMongo(raw bson.M) map[string]interface{} {
	doc := normalizeMap(raw)
	if id, ok := doc["_id"]; ok {
		doc[FieldID] = id
		delete(doc, "_id")
	}
	return doc
}

func mongoField(field string) string {
	if field == FieldID {
		return "_id"
	}
	return field
}
