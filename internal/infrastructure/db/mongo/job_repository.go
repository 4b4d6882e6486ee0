package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/ports"
)

const collectionJobs = "jobs"

var _ ports.JobRepository = (*JobRepository)(nil)

// JobRepository implements ports.JobRepository using MongoDB.
type JobRepository struct {
	h *Handle
}

func NewJobRepository(h *Handle) *JobRepository {
	return &JobRepository{h: h}
}

// jobDocument is the stored shape. Field names match the documents written
// by earlier versions of the service so existing collections keep working.
type jobDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Phone       string             `bson:"phone"`
	Email       string             `bson:"email"`
	City        string             `bson:"city"`
	Role        string             `bson:"role"`
	Description string             `bson:"description"`
	Company     string             `bson:"company,omitempty"`
	Urgent      bool               `bson:"urgent"`
	UrgentUntil *time.Time         `bson:"urgentUntil,omitempty"`
	Views       int64              `bson:"views"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toDocument(j *domain.Job) jobDocument {
	return jobDocument{
		Name:        j.FullName,
		Phone:       j.PhoneNumber,
		Email:       j.Email,
		City:        j.City,
		Role:        j.JobRole,
		Description: j.Description,
		Company:     j.Company,
		Urgent:      j.IsUrgent,
		UrgentUntil: j.UrgentUntil,
		Views:       j.Views,
		CreatedAt:   j.CreatedAt.UTC(),
		UpdatedAt:   j.CreatedAt.UTC(),
	}
}

func (d jobDocument) toDomain() domain.Job {
	var until *time.Time
	if d.UrgentUntil != nil {
		t := d.UrgentUntil.UTC()
		until = &t
	}
	return domain.Job{
		ID:          d.ID.Hex(),
		FullName:    d.Name,
		PhoneNumber: d.Phone,
		Email:       d.Email,
		City:        d.City,
		JobRole:     d.Role,
		Description: d.Description,
		Company:     d.Company,
		IsUrgent:    d.Urgent,
		UrgentUntil: until,
		Views:       d.Views,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// objectID parses a job id. Malformed ids cannot exist, so they map to
// ErrJobNotFound like any other unknown id.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrJobNotFound
	}
	return oid, nil
}

// List returns all stored jobs in natural order.
func (r *JobRepository) List(ctx context.Context) ([]domain.Job, error) {
	var out []domain.Job
	err := r.h.Do(ctx, "jobs.list", func(ctx context.Context, db *mongo.Database) error {
		cur, err := db.Collection(collectionJobs).Find(ctx, bson.M{})
		if err != nil {
			return err
		}
		var docs []jobDocument
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		out = make([]domain.Job, 0, len(docs))
		for _, d := range docs {
			out = append(out, d.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

// Create inserts a new job document and returns it with its assigned id.
func (r *JobRepository) Create(ctx context.Context, j *domain.Job) (*domain.Job, error) {
	doc := toDocument(j)
	doc.ID = primitive.NewObjectID()

	err := r.h.Do(ctx, "jobs.insert", func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collectionJobs).InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			// A retried insert that reached the server the first time.
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	created := doc.toDomain()
	return &created, nil
}

func (r *JobRepository) FindByID(ctx context.Context, id string) (*domain.Job, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc jobDocument
	err = r.h.Do(ctx, "jobs.find", func(ctx context.Context, db *mongo.Database) error {
		return db.Collection(collectionJobs).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("find job: %w", err)
	}

	j := doc.toDomain()
	return &j, nil
}

// Update sets only the patched fields and returns the document after the
// write.
func (r *JobRepository) Update(ctx context.Context, id string, p domain.JobPatch) (*domain.Job, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	unset := bson.M{}
	if p.FullName != nil {
		set["name"] = *p.FullName
	}
	if p.PhoneNumber != nil {
		set["phone"] = *p.PhoneNumber
	}
	if p.City != nil {
		set["city"] = *p.City
	}
	if p.JobRole != nil {
		set["role"] = *p.JobRole
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.IsUrgent != nil {
		set["urgent"] = *p.IsUrgent
	}
	if p.SetUrgentUntil {
		if p.UrgentUntil != nil {
			set["urgentUntil"] = p.UrgentUntil.UTC()
		} else {
			unset["urgentUntil"] = ""
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var doc jobDocument
	err = r.h.Do(ctx, "jobs.update", func(ctx context.Context, db *mongo.Database) error {
		return db.Collection(collectionJobs).
			FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
			Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("update job: %w", err)
	}

	j := doc.toDomain()
	return &j, nil
}

func (r *JobRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	var deleted int64
	err = r.h.Do(ctx, "jobs.delete", func(ctx context.Context, db *mongo.Database) error {
		res, err := db.Collection(collectionJobs).DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if deleted == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// IncrementViews applies a relative $inc so concurrent viewers never lose
// updates. It is not retried: a duplicate +1 is worse than a lost one.
func (r *JobRepository) IncrementViews(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	db, err := r.h.Database()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := db.Collection(collectionJobs).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		if transient(err) {
			return fmt.Errorf("%w: increment views: %v", domain.ErrStorageUnavailable, err)
		}
		return fmt.Errorf("increment views: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// DeleteCreatedBefore removes every job created strictly before cutoff.
func (r *JobRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.h.Do(ctx, "jobs.purge", func(ctx context.Context, db *mongo.Database) error {
		res, err := db.Collection(collectionJobs).DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff.UTC()}})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge jobs: %w", err)
	}
	return deleted, nil
}

// EnsureIndexes creates the indexes used by listing, ownership and purge
// queries.
func (r *JobRepository) EnsureIndexes(ctx context.Context) error {
	return r.h.Do(ctx, "jobs.indexes", func(ctx context.Context, db *mongo.Database) error {
		indexes := []mongo.IndexModel{
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "email", Value: 1}}},
		}
		_, err := db.Collection(collectionJobs).Indexes().CreateMany(ctx, indexes)
		return err
	})
}
