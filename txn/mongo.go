package txn

import (
	"context"
	"errors"
	"time"

	"kwickpay/db"
	"kwickpay/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements Store on the transactions collection.
type Mongo struct {
	col *mongo.Collection
}

func NewMongo() *Mongo {
	return &Mongo{col: db.TransactionCollection}
}

// isDuplicateKeyError detects unique-index violations on insert.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}

func (m *Mongo) Create(ctx context.Context, t *models.Transaction) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if _, err := m.col.InsertOne(ctx, t); err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (m *Mongo) ByReference(ctx context.Context, reference, provider string) (*models.Transaction, error) {
	return m.findOne(ctx, bson.M{"reference": reference, "meta.provider": provider})
}

func (m *Mongo) ByFundingKeys(ctx context.Context, reference, merchantRef, wiaxyRef string) (*models.Transaction, error) {
	return m.findOne(ctx, bson.M{
		"reference":               reference,
		"meta.merchant_reference": merchantRef,
		"meta.wiaxy_ref":          wiaxyRef,
	})
}

func (m *Mongo) ByUserReference(ctx context.Context, userID, reference string) (*models.Transaction, error) {
	return m.findOne(ctx, bson.M{"userid": userID, "reference": reference})
}

func (m *Mongo) findOne(ctx context.Context, filter bson.M) (*models.Transaction, error) {
	var t models.Transaction
	if err := m.col.FindOne(ctx, filter).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (m *Mongo) SetStatus(ctx context.Context, id, status string, metaPatch models.Meta) error {
	set := bson.M{"status": status, "updated_at": time.Now()}
	for k, v := range metaPatch {
		set["meta."+k] = v
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) MarkRefunded(ctx context.Context, id string, amount float64) error {
	now := time.Now()
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "refunded": false},
		bson.M{"$set": bson.M{
			"refunded":        true,
			"refunded_at":     now,
			"refunded_amount": amount,
			"updated_at":      now,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) ListByUser(ctx context.Context, userID string, limit, skip int64) ([]models.Transaction, error) {
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(limit).
		SetSkip(skip)

	cur, err := m.col.Find(ctx, bson.M{"userid": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var txns []models.Transaction
	if err := cur.All(ctx, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}
