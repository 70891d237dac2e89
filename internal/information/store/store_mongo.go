package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"thingapi/internal/information/models"
	"thingapi/pkg/platform/sentinel"
)

// informationDocument is the BSON shape of a record. LocationGeo is stored
// as a [lng, lat] array.
type informationDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Group        string             `bson:"group"`
	Thing        string             `bson:"thing"`
	Name         string             `bson:"name,omitempty"`
	LocationName string             `bson:"locationName,omitempty"`
	LocationGeo  []float64          `bson:"locationGeo,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// MongoStore persists records as documents in one MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongo constructs a MongoDB-backed record store.
func NewMongo(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the group index used by FindByGroup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "group", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("ensure information indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, info *models.Information) error {
	doc := toDocument(info)
	doc.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert information: %w", err)
	}
	info.ID = doc.ID.Hex()
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.Information, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc informationDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find information by id: %w", err)
	}
	return fromDocument(doc), nil
}

func (s *MongoStore) FindByGroup(ctx context.Context, group string) ([]*models.Information, error) {
	return s.find(ctx, bson.M{"group": group})
}

func (s *MongoStore) FindAll(ctx context.Context) ([]*models.Information, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoStore) UpdateLocation(ctx context.Context, id string, update models.LocationUpdate) (*models.Information, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"$set": bson.M{
		"name":         update.Name,
		"locationName": update.LocationName,
		"locationGeo":  update.LocationGeo.Slice(),
		"updatedAt":    update.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc informationDocument
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, set, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update information location: %w", err)
	}
	return fromDocument(doc), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (*models.Information, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc informationDocument
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("delete information: %w", err)
	}
	return fromDocument(doc), nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]*models.Information, error) {
	// ObjectIDs start with a timestamp, so _id order is insertion order.
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find information: %w", err)
	}
	var docs []informationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode information: %w", err)
	}
	out := make([]*models.Information, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc))
	}
	return out, nil
}

// parseObjectID maps a malformed id to ErrNotFound wrapped with ErrInvalidID,
// so callers see "not found" for ids this store could never have issued.
func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %w", sentinel.ErrNotFound, sentinel.ErrInvalidID)
	}
	return oid, nil
}

func toDocument(info *models.Information) informationDocument {
	doc := informationDocument{
		Group:        info.Group,
		Thing:        info.Thing,
		Name:         info.Name,
		LocationName: info.LocationName,
		CreatedAt:    info.CreatedAt,
		UpdatedAt:    info.UpdatedAt,
	}
	if info.LocationGeo != nil {
		doc.LocationGeo = info.LocationGeo.Slice()
	}
	return doc
}

func fromDocument(doc informationDocument) *models.Information {
	info := &models.Information{
		ID:           doc.ID.Hex(),
		Group:        doc.Group,
		Thing:        doc.Thing,
		Name:         doc.Name,
		LocationName: doc.LocationName,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if len(doc.LocationGeo) == 2 {
		info.LocationGeo = &models.LngLat{Lng: doc.LocationGeo[0], Lat: doc.LocationGeo[1]}
	}
	return info
}
