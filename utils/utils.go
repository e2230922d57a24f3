package utils

import (
	"crypto/rand"
	"encoding/hex"
	"kwickpay/globals"
	"kwickpay/middleware"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GetUUID returns a fresh random identifier for a stored document.
func GetUUID() string {
	return uuid.NewString()
}

// GenerateReference builds a provider-safe transaction reference: a short
// prefix, the last six digits of the unix-millisecond clock and four random
// hex characters. The aggregator caps references at 17 characters.
func GenerateReference(prefix string) string {
	b := make([]byte, 2)
	_, _ = rand.Read(b)

	shortTime := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(shortTime) > 6 {
		shortTime = shortTime[len(shortTime)-6:]
	}

	ref := prefix + shortTime + strings.ToUpper(hex.EncodeToString(b))
	if len(ref) > 17 {
		ref = ref[:17]
	}
	return ref
}

func GetUserIDFromRequest(r *http.Request) string {
	ctx := r.Context()
	requestingUserID, ok := ctx.Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

func GetUsernameFromRequest(r *http.Request) string {
	tokenString := r.Header.Get("Authorization")
	claims, err := middleware.ValidateJWT(tokenString)
	if err != nil {
		return ""
	}
	return claims.Username
}
