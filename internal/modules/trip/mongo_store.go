// README: Trip store backed by MongoDB. tripDetail is a string; legacy documents embed it.
package trip

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tripbuddy/internal/types"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("trips")}
}

// EnsureIndexes creates the owner listing index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "uid", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

type tripDocument struct {
	ID        string        `bson:"_id"`
	TripID    string        `bson:"tripId"`
	UID       string        `bson:"uid"`
	Detail    bson.RawValue `bson:"tripDetail"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (s *MongoStore) Create(ctx context.Context, r *Record) error {
	detail, err := detailString(r.Detail)
	if err != nil {
		return err
	}
	_, err = s.coll.InsertOne(ctx, bson.M{
		"_id":        string(r.ID),
		"tripId":     r.TripID,
		"uid":        r.UID,
		"tripDetail": detail,
		"createdAt":  r.CreatedAt,
		"updatedAt":  r.UpdatedAt,
	})
	return err
}

func (s *MongoStore) ListByOwner(ctx context.Context, uid string) ([]Record, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"uid": uid}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []Record
	for cursor.Next(ctx) {
		var doc tripDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		r, err := doc.record()
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, cursor.Err()
}

func (s *MongoStore) Get(ctx context.Context, id types.ID) (*Record, error) {
	var doc tripDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.record()
}

func (s *MongoStore) UpdateDetail(ctx context.Context, id types.ID, detail json.RawMessage, at time.Time) error {
	serialized, err := detailString(detail)
	if err != nil {
		return err
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": string(id)}, bson.M{"$set": bson.M{"tripDetail": serialized, "updatedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id types.ID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d tripDocument) record() (*Record, error) {
	var raw []byte
	switch d.Detail.Type {
	case bsontype.String:
		raw, _ = json.Marshal(d.Detail.StringValue())
	case bsontype.EmbeddedDocument:
		b, err := bson.MarshalExtJSON(d.Detail.Document(), false, false)
		if err != nil {
			return nil, err
		}
		raw = b
	default:
		return nil, ErrInvalidDetail
	}
	detail, err := NormalizeDetail(raw)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:        types.ID(d.ID),
		TripID:    d.TripID,
		UID:       d.UID,
		Detail:    detail,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func detailString(detail json.RawMessage) (string, error) {
	serialized, err := Serialize(detail)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(serialized, &s); err != nil {
		return "", err
	}
	return s, nil
}
