package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medscan/internal/logger"
	"medscan/pkg/models"
)

// CollectionName is the MongoDB collection holding medical records.
const CollectionName = "medical_records"

// DefaultLimit is used by FindRecent when no positive limit is given.
const DefaultLimit = 10

// Repository persists medical records.
type Repository interface {
	Create(ctx context.Context, record *models.MedicalRecord) (string, error)
	FindByID(ctx context.Context, id string) (*models.MedicalRecord, error)
	FindRecent(ctx context.Context, limit int) ([]models.MedicalRecord, error)
}

// document is the stored form of a record: the record fields inline plus the
// Mongo object id.
type document struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	models.MedicalRecord `bson:",inline"`
}

func (d document) record() models.MedicalRecord {
	r := d.MedicalRecord
	r.ID = d.ID.Hex()
	return r
}

// MongoRepository stores records in MongoDB.
type MongoRepository struct {
	collection *mongo.Collection
	log        zerolog.Logger
}

// Connect opens a MongoDB client and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	const op = "records.Connect"

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to mongo database: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: failed to ping mongo database: %w", op, err)
	}
	return client, nil
}

// NewMongoRepository returns a repository over dbName.medical_records.
func NewMongoRepository(client *mongo.Client, dbName string) *MongoRepository {
	return &MongoRepository{
		collection: client.Database(dbName).Collection(CollectionName),
		log:        logger.WithComponent("records"),
	}
}

// Create validates and inserts record, returning the new id. The id is also
// set on record.
func (r *MongoRepository) Create(ctx context.Context, record *models.MedicalRecord) (string, error) {
	const op = "records.Create"

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if err := Validate(record); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.collection.InsertOne(ctx, document{MedicalRecord: *record})
	if err != nil {
		return "", fmt.Errorf("%s: failed to insert record: %w", op, err)
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%s: unexpected inserted id %v", op, result.InsertedID)
	}
	record.ID = id.Hex()

	r.log.Info().
		Str("record_id", record.ID).
		Str("record_type", string(record.RecordType)).
		Msg("Medical record saved")

	return record.ID, nil
}

// FindByID returns the record with the given hex id.
func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.MedicalRecord, error) {
	const op = "records.FindByID"

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidID, id)
	}

	var doc document
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrNotFound, id)
		}
		return nil, fmt.Errorf("%s: failed to find record: %w", op, err)
	}

	record := doc.record()
	return &record, nil
}

// FindRecent returns up to limit records, newest first.
func (r *MongoRepository) FindRecent(ctx context.Context, limit int) ([]models.MedicalRecord, error) {
	const op = "records.FindRecent"

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(normalizeLimit(limit)))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to find records: %w", op, err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: failed to iterate records: %w", op, err)
	}

	records := make([]models.MedicalRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.record())
	}
	return records, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
