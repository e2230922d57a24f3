package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection        *mongo.Collection
	WalletCollection      *mongo.Collection
	TransactionCollection *mongo.Collection
	DataPlanCollection    *mongo.Collection
	CablePlanCollection   *mongo.Collection
	Client                *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := os.Getenv("MONGODB_DB")
	if database == "" {
		database = "kwickpay"
	}

	UserCollection = Client.Database(database).Collection("users")
	WalletCollection = Client.Database(database).Collection("wallets")
	TransactionCollection = Client.Database(database).Collection("transactions")
	DataPlanCollection = Client.Database(database).Collection("dataplans")
	CablePlanCollection = Client.Database(database).Collection("cableplans")
}

// EnsureIndexes creates the unique indexes the reconciliation protocol relies
// on. The (reference, provider) pair blocks double-processing of a purchase
// attempt; the (reference, merchant_reference, wiaxy_ref) triple blocks
// double-crediting a funding notification delivered more than once.
func EnsureIndexes(ctx context.Context) error {
	txnIdxs := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "reference", Value: 1}, {Key: "meta.provider", Value: 1}},
			Options: options.Index().
				SetUnique(true).SetSparse(true).SetName("unique_ref_provider"),
		},
		{
			Keys: bson.D{
				{Key: "reference", Value: 1},
				{Key: "meta.merchant_reference", Value: 1},
				{Key: "meta.wiaxy_ref", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).SetSparse(true).SetName("unique_tx_ref_merchant_wiaxy"),
		},
		{Keys: bson.D{{Key: "userid", Value: 1}}},
		{Keys: bson.D{{Key: "walletid", Value: 1}}},
		{Keys: bson.D{{Key: "meta.providerRef", Value: 1}}},
	}
	if _, err := TransactionCollection.Indexes().CreateMany(ctx, txnIdxs); err != nil {
		return err
	}

	walletIdxs := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userid", Value: 1}}},
		{Keys: bson.D{{Key: "reservedAccount.merchantReference", Value: 1}}},
		{Keys: bson.D{{Key: "userid", Value: 1}, {Key: "transactions.reference", Value: 1}}},
	}
	if _, err := WalletCollection.Indexes().CreateMany(ctx, walletIdxs); err != nil {
		return err
	}

	planIdxs := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "plan_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_plan_code"),
		},
	}
	if _, err := DataPlanCollection.Indexes().CreateMany(ctx, planIdxs); err != nil {
		return err
	}

	return nil
}
