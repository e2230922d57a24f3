package wallet

import (
	"context"
	"time"

	"kwickpay/db"
	"kwickpay/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo implements Store on the wallets collection.
type Mongo struct {
	col *mongo.Collection
}

func NewMongo() *Mongo {
	return &Mongo{col: db.WalletCollection}
}

func (m *Mongo) ByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	return m.findOne(ctx, bson.M{"userid": userID})
}

func (m *Mongo) CompanyWallet(ctx context.Context) (*models.Wallet, error) {
	return m.findOne(ctx, bson.M{"is_company_wallet": true})
}

func (m *Mongo) ByMerchantReference(ctx context.Context, merchantRef string) (*models.Wallet, error) {
	return m.findOne(ctx, bson.M{"reservedAccount.merchantReference": merchantRef})
}

func (m *Mongo) findOne(ctx context.Context, filter bson.M) (*models.Wallet, error) {
	var w models.Wallet
	if err := m.col.FindOne(ctx, filter).Decode(&w); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (m *Mongo) ReserveDebit(ctx context.Context, walletID string, amount float64, entry models.WalletEntry) error {
	entry.CreatedAt = time.Now()
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": walletID, "balance": bson.M{"$gte": amount}},
		bson.M{
			"$inc":  bson.M{"balance": -amount},
			"$push": bson.M{"transactions": entry},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing wallet from a failed balance precondition.
		if n, err := m.col.CountDocuments(ctx, bson.M{"_id": walletID}); err == nil && n == 0 {
			return ErrNotFound
		}
		return ErrInsufficientFunds
	}
	return nil
}

func (m *Mongo) Credit(ctx context.Context, walletID string, amount float64, entry models.WalletEntry) error {
	entry.CreatedAt = time.Now()
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": walletID},
		bson.M{
			"$inc":  bson.M{"balance": amount},
			"$push": bson.M{"transactions": entry},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Refund(ctx context.Context, walletID string, amount float64, reference string) (bool, error) {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": walletID},
		bson.M{
			"$inc": bson.M{"balance": amount},
			"$set": bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}
	_ = m.SetEntryStatus(ctx, walletID, reference, models.StatusFailed)
	return true, nil
}

func (m *Mongo) SetEntryStatus(ctx context.Context, walletID, reference, status string) error {
	_, err := m.col.UpdateOne(ctx,
		bson.M{"_id": walletID, "transactions.reference": reference},
		bson.M{"$set": bson.M{
			"transactions.$.status": status,
			"updated_at":            time.Now(),
		}})
	return err
}

func (m *Mongo) Create(ctx context.Context, w *models.Wallet) error {
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	if w.Currency == "" {
		w.Currency = "NGN"
	}
	_, err := m.col.InsertOne(ctx, w)
	return err
}

func (m *Mongo) BindReservedAccount(ctx context.Context, walletID string, acc models.ReservedAccount) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": walletID},
		bson.M{"$set": bson.M{"reservedAccount": acc, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Balance(ctx context.Context, walletID string) (float64, error) {
	var w struct {
		Balance float64 `bson:"balance"`
	}
	if err := m.col.FindOne(ctx, bson.M{"_id": walletID}).Decode(&w); err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return w.Balance, nil
}
