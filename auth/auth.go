package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"kwickpay/aspfiy"
	"kwickpay/db"
	"kwickpay/globals"
	"kwickpay/middleware"
	"kwickpay/models"
	"kwickpay/utils"
	"kwickpay/wallet"
)

// Handler owns registration and login. Registration provisions the wallet
// and, best effort, its dedicated funding account.
type Handler struct {
	Wallets wallet.Store
	Bank    *aspfiy.Client
}

func NewHandler(wallets wallet.Store, bank *aspfiy.Client) *Handler {
	return &Handler{Wallets: wallets, Bank: bank}
}

type registerBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body registerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Username == "" || body.Email == "" || len(body.Password) < 6 {
		utils.RespondWithError(w, http.StatusBadRequest, "Username, email and a password of at least 6 characters are required")
		return
	}

	ctx := r.Context()
	err := db.UserCollection.FindOne(ctx, bson.M{"$or": []bson.M{
		{"email": body.Email},
		{"username": body.Username},
	}}).Err()
	if err == nil {
		utils.RespondWithError(w, http.StatusConflict, "Username or email already registered")
		return
	}
	if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not check existing users")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not hash password")
		return
	}

	user := models.User{
		UserID:    utils.GetUUID(),
		Username:  body.Username,
		Email:     body.Email,
		Phone:     body.Phone,
		Password:  string(hashed),
		Role:      []string{"user"},
		CreatedAt: time.Now(),
	}
	if _, err := db.UserCollection.InsertOne(ctx, user); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not create user")
		return
	}

	wlt := &models.Wallet{
		ID:     utils.GetUUID(),
		UserID: user.UserID,
	}
	if err := h.Wallets.Create(ctx, wlt); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not create wallet")
		return
	}

	// Funding account provisioning must not block signup; the wallet works
	// without one and binding can be retried later.
	merchantRef := utils.GenerateReference("KWP")
	go h.provisionFundingAccount(user, wlt.ID, merchantRef)

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success": true,
		"message": "Registration successful",
		"user":    user,
		"wallet":  wlt,
	})
}

func (h *Handler) provisionFundingAccount(user models.User, walletID, merchantRef string) {
	if h.Bank == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	acc, err := h.Bank.CreateReservedAccount(ctx, aspfiy.ReservedAccountRequest{
		AccountName:       user.Username,
		Email:             user.Email,
		MerchantReference: merchantRef,
	})
	if err != nil {
		log.Printf("[auth] reserved account for %s failed: %v", user.UserID, err)
		return
	}
	err = h.Wallets.BindReservedAccount(ctx, walletID, models.ReservedAccount{
		AccountNumber:     acc.AccountNumber,
		AccountName:       acc.AccountName,
		BankName:          acc.BankName,
		MerchantReference: merchantRef,
	})
	if err != nil {
		log.Printf("[auth] binding reserved account for %s failed: %v", user.UserID, err)
	}
}

type loginBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body loginBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	filter := bson.M{"username": body.Username}
	if body.Username == "" {
		filter = bson.M{"email": body.Email}
	}

	var user models.User
	if err := db.UserCollection.FindOne(r.Context(), filter).Decode(&user); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	claims := middleware.Claims{
		Username: user.Username,
		UserID:   user.UserID,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not sign token")
		return
	}

	_, _ = db.UserCollection.UpdateOne(r.Context(),
		bson.M{"userid": user.UserID},
		bson.M{"$set": bson.M{"last_login": time.Now()}})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"token":   token,
		"user":    user,
	})
}
