package model

import (
	"encoding/json"
	"time"
)

// User represents a backend account.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Active       bool      `json:"is_active"`
	Created      time.Time `json:"created_at"`
	Updated      time.Time `json:"updated_at"`
}

// UserInfo contains the fields used to create, look up or update a user.
type UserInfo struct {
	ID           int
	Email        string
	Username     string
	Password     string
	PasswordHash []byte
	Active       bool
}

// UserFilter selects which UserInfo fields take part in a query or update.
type UserFilter struct {
	ID           bool
	Email        bool
	Username     bool
	PasswordHash bool
	Active       bool
}

// Mindmap is a persisted mind-map document. Data holds the serialized node tree.
type Mindmap struct {
	ID      int             `json:"id"`
	UserID  int             `json:"user_id"`
	Title   string          `json:"title"`
	Data    json.RawMessage `json:"data"`
	Created time.Time       `json:"created_at"`
	Updated time.Time       `json:"updated_at"`
}

// MindmapInfo contains the fields used to create or update a mindmap.
type MindmapInfo struct {
	ID     int
	UserID int
	Title  string
	Data   json.RawMessage
}

// Credit is the credit balance of a user.
type Credit struct {
	ID      int       `json:"id"`
	UserID  int       `json:"user_id"`
	Amount  int       `json:"amount"`
	Created time.Time `json:"created_at"`
	Updated time.Time `json:"updated_at"`
}

// CreditPackage is a purchasable bundle of credits.
type CreditPackage struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Amount      int    `json:"amount"`
	Price       int    `json:"price"`
	Description string `json:"description"`
}

// TransactionType distinguishes credit purchases, usage and refunds.
type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionUsage    TransactionType = "usage"
	TransactionRefund   TransactionType = "refund"
)

// Transaction records a change to a credit balance.
type Transaction struct {
	ID          int             `json:"id"`
	UserID      int             `json:"-"`
	Type        TransactionType `json:"type"`
	Amount      int             `json:"amount"`
	Description string          `json:"description"`
	Created     time.Time       `json:"created_at"`
}

// InitialCredits is the balance granted to a newly registered user.
const InitialCredits = 10

// CreditPackages is the catalogue offered by the credits endpoints.
var CreditPackages = []CreditPackage{
	{ID: 1, Name: "Starter pack", Amount: 10, Price: 500, Description: "10 credits for creating and expanding mind maps"},
	{ID: 2, Name: "Standard pack", Amount: 50, Price: 2000, Description: "50 credits at a discounted price for frequent use"},
	{ID: 3, Name: "Professional pack", Amount: 200, Price: 6000, Description: "High-volume pack with the best price per credit"},
}

// CreditPackageByID looks a package up in the catalogue.
func CreditPackageByID(id int) (CreditPackage, bool) {
	for _, pkg := range CreditPackages {
		if pkg.ID == id {
			return pkg, true
		}
	}
	return CreditPackage{}, false
}

// MindmapFilter selects which MindmapInfo fields take part in an update.
type MindmapFilter struct {
	Title bool
	Data  bool
}
