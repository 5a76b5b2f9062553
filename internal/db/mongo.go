package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoStore stores documents in one MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri and verifies the connection with a ping.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (m *MongoStore) Insert(ctx context.Context, collection string, doc map[string]any) (string, error) {
	res, err := m.db.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		return "", err
	}
	return idString(res.InsertedID), nil
}

func (m *MongoStore) Find(ctx context.Context, collection string, query map[string]any, opts FindOptions) ([]map[string]any, error) {
	fo := options.Find()
	if opts.Sort != "" {
		dir := 1
		if opts.Desc {
			dir = -1
		}
		fo.SetSort(bson.D{{Key: opts.Sort, Value: dir}})
	}
	if opts.Skip > 0 {
		fo.SetSkip(int64(opts.Skip))
	}
	if opts.Limit > 0 {
		fo.SetLimit(int64(opts.Limit))
	}

	cur, err := m.db.Collection(collection).Find(ctx, mongoFilter(query), fo)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, normalizeBSON(r))
	}
	return docs, nil
}

func (m *MongoStore) FindOne(ctx context.Context, collection string, query map[string]any) (map[string]any, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, mongoFilter(query)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return normalizeBSON(raw), nil
}

func (m *MongoStore) Count(ctx context.Context, collection string, query map[string]any) (int, error) {
	n, err := m.db.Collection(collection).CountDocuments(ctx, mongoFilter(query))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (m *MongoStore) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	_, err := m.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(unique),
	})
	return err
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// mongoFilter turns a hex "_id" back into an ObjectID.
func mongoFilter(query map[string]any) bson.M {
	filter := bson.M{}
	for k, v := range query {
		filter[k] = v
	}
	if s, ok := filter["_id"].(string); ok {
		if oid, err := bson.ObjectIDFromHex(s); err == nil {
			filter["_id"] = oid
		}
	}
	return filter
}

func idString(id any) string {
	switch v := id.(type) {
	case bson.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// normalizeBSON converts driver types into plain Go values so documents
// look the same whichever backend produced them.
func normalizeBSON(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	if id, ok := out["_id"]; ok {
		out["_id"] = idString(id)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC()
	case bson.A:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = normalizeValue(t[i])
		}
		return arr
	case bson.M:
		return normalizeBSON(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	default:
		return v
	}
}
