package models

import (
	"time"
)

// User is an account holder. Password stores the bcrypt hash.
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"userid" json:"userid"`
	Username  string    `bson:"username" json:"username"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Password  string    `bson:"password" json:"-"`
	Role      []string  `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	LastLogin time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
}
