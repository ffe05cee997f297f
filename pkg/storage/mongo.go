package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultMongoDatabase is used when no database name is configured.
	DefaultMongoDatabase = "typegraph"

	documentsCollection = "documents"
)

// MongoStore keeps documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// OpenMongo connects to uri and uses the documents collection of database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("mongo uri must not be empty")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storageErr("connect mongo", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storageErr("ping mongo", err)
	}
	return newMongoStore(client, client.Database(database).Collection(documentsCollection)), nil
}

func newMongoStore(client *mongo.Client, coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, coll: coll, now: time.Now}
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// mongoDoc is the stored form of a Document. Counts are kept alongside
// the graph so List can project them without loading it.
type mongoDoc struct {
	Document  `bson:",inline"`
	NodeCount int `bson:"node_count"`
	EdgeCount int `bson:"edge_count"`
}

func (s *MongoStore) Save(ctx context.Context, d *Document) error {
	// Millisecond precision is all BSON dates keep.
	if err := prepare(d, s.now().UTC().Truncate(time.Millisecond)); err != nil {
		return err
	}
	filter := bson.M{"_id": d.ID}
	update := bson.M{
		"$set": bson.M{
			"name":       d.Name,
			"graph":      d.Graph,
			"node_count": len(d.Graph.Nodes),
			"edge_count": len(d.Graph.Edges),
			"updated_at": d.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": d.CreatedAt},
	}
	if _, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return storageErr("save document", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Document, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageErr("get document", err)
	}
	d := doc.Document
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"graph": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storageErr("list documents", err)
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var sum Summary
		if err := cur.Decode(&sum); err != nil {
			return nil, storageErr("decode document", err)
		}
		sum.UpdatedAt = sum.UpdatedAt.UTC()
		out = append(out, sum)
	}
	if err := cur.Err(); err != nil {
		return nil, storageErr("list documents", err)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storageErr("delete document", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}
