package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/ports"
)

const (
	collectionQuotas = "urgent_quotas"
	defaultQuotaTTL  = 72 * time.Hour
)

var _ ports.QuotaStore = (*QuotaRepository)(nil)

// QuotaRepository implements ports.QuotaStore with conditional updates, so
// check-and-consume is a single server-side operation.
type QuotaRepository struct {
	h   *Handle
	ttl time.Duration
}

// NewQuotaRepository returns a store whose records are reaped by a TTL index
// ttl after their last write. ttl <= 0 uses 72h.
func NewQuotaRepository(h *Handle, ttl time.Duration) *QuotaRepository {
	if ttl <= 0 {
		ttl = defaultQuotaTTL
	}
	return &QuotaRepository{h: h, ttl: ttl}
}

type quotaDocument struct {
	Email        string    `bson:"email"`
	Count        int       `bson:"count"`
	ExtraCredits int       `bson:"extra_credits"`
	LastReset    time.Time `bson:"last_reset"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d quotaDocument) toDomain() domain.UrgentQuota {
	return domain.UrgentQuota{
		Email:        d.Email,
		Count:        d.Count,
		ExtraCredits: d.ExtraCredits,
		LastReset:    d.LastReset,
	}
}

// rollover creates the record when missing and resets it when its last
// reset predates today. Both steps are idempotent.
func rollover(ctx context.Context, coll *mongo.Collection, email string, today time.Time) error {
	today = today.UTC()
	now := time.Now().UTC()

	_, err := coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$setOnInsert": bson.M{"count": 0, "extra_credits": 0, "last_reset": today},
			"$set":         bson.M{"updated_at": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}

	_, err = coll.UpdateOne(ctx,
		bson.M{"email": email, "last_reset": bson.M{"$lt": today}},
		bson.M{"$set": bson.M{"count": 0, "extra_credits": 0, "last_reset": today, "updated_at": now}},
	)
	return err
}

func (r *QuotaRepository) Get(ctx context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	var doc quotaDocument
	err := r.h.Do(ctx, "quota.get", func(ctx context.Context, db *mongo.Database) error {
		coll := db.Collection(collectionQuotas)
		if err := rollover(ctx, coll, email, today); err != nil {
			return err
		}
		return coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	})
	if err != nil {
		return domain.UrgentQuota{}, fmt.Errorf("get quota: %w", err)
	}
	return doc.toDomain(), nil
}

// TryConsume increments count only while count < base + extra_credits.
func (r *QuotaRepository) TryConsume(ctx context.Context, email string, today time.Time, base int) (domain.UrgentQuota, bool, error) {
	var (
		doc      quotaDocument
		consumed bool
	)
	err := r.h.Do(ctx, "quota.consume", func(ctx context.Context, db *mongo.Database) error {
		coll := db.Collection(collectionQuotas)
		if err := rollover(ctx, coll, email, today); err != nil {
			return err
		}

		// rollover has already moved a stale record to today, so only the
		// allowance decides.
		filter := bson.M{
			"email": email,
			"$expr": bson.M{"$lt": bson.A{"$count", bson.M{"$add": bson.A{base, "$extra_credits"}}}},
		}
		update := bson.M{
			"$inc": bson.M{"count": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		}
		err := coll.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
		switch {
		case err == nil:
			consumed = true
			return nil
		case errors.Is(err, mongo.ErrNoDocuments):
			consumed = false
			return coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
		default:
			return err
		}
	})
	if err != nil {
		return domain.UrgentQuota{}, false, fmt.Errorf("consume quota: %w", err)
	}
	return doc.toDomain(), consumed, nil
}

func (r *QuotaRepository) IncrementCount(ctx context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	return r.inc(ctx, "quota.record", email, today, "count")
}

func (r *QuotaRepository) AddExtraCredit(ctx context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	return r.inc(ctx, "quota.grant", email, today, "extra_credits")
}

// inc bumps a counter field. A retry after a lost acknowledgement may apply
// the increment twice.
func (r *QuotaRepository) inc(ctx context.Context, name, email string, today time.Time, field string) (domain.UrgentQuota, error) {
	var doc quotaDocument
	err := r.h.Do(ctx, name, func(ctx context.Context, db *mongo.Database) error {
		coll := db.Collection(collectionQuotas)
		if err := rollover(ctx, coll, email, today); err != nil {
			return err
		}
		return coll.FindOneAndUpdate(ctx,
			bson.M{"email": email},
			bson.M{"$inc": bson.M{field: 1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})
	if err != nil {
		return domain.UrgentQuota{}, fmt.Errorf("%s: %w", name, err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the unique identity index and the TTL index that
// bounds the collection to recently active identities.
func (r *QuotaRepository) EnsureIndexes(ctx context.Context) error {
	return r.h.Do(ctx, "quota.indexes", func(ctx context.Context, db *mongo.Database) error {
		indexes := []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "updated_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32(r.ttl.Seconds()))},
		}
		_, err := db.Collection(collectionQuotas).Indexes().CreateMany(ctx, indexes)
		return err
	})
}
