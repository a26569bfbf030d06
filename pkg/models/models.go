package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType enumerates the supported account products.
type AccountType string

const (
	AccountTypeChecking   AccountType = "CHECKING"
	AccountTypeSavings    AccountType = "SAVINGS"
	AccountTypeInvestment AccountType = "INVESTMENT"
)

// ValidAccountType reports whether t is one of the supported account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeInvestment:
		return true
	}
	return false
}

// TransactionType enumerates the supported money movements.
type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypePayment    TransactionType = "PAYMENT"
)

// TransactionStatus enumerates the transaction lifecycle states. Only the
// PENDING to terminal transitions are valid; a terminal record never changes.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// User represents a registered customer. Owned by the identities service;
// the ledger core only reads it.
type User struct {
	ID            uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  string    `json:"-" gorm:"column:password_hash;not null"`
	FirstName     string    `json:"firstName" gorm:"not null"`
	LastName      string    `json:"lastName" gorm:"not null"`
	PhoneNumber   *string   `json:"phoneNumber,omitempty" gorm:"uniqueIndex"`
	EmailVerified bool      `json:"emailVerified" gorm:"not null;default:false"`
	Active        bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Account represents a single-currency bank account. The balance is an exact
// decimal with two-digit scale and is never negative after a committed
// operation. Accounts are soft-deleted: Active flips to false and the row
// stays.
type Account struct {
	ID            uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	AccountNumber string          `json:"accountNumber" gorm:"uniqueIndex;size:12;not null"`
	Type          AccountType     `json:"type" gorm:"not null"`
	Balance       decimal.Decimal `json:"balance" gorm:"type:decimal(19,2);not null"`
	Currency      string          `json:"currency" gorm:"size:3;not null"`
	Active        bool            `json:"active" gorm:"not null;default:true"`
	UserID        uuid.UUID       `json:"userId" gorm:"type:uuid;index;not null"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Transaction is the immutable record of one ledger operation. Exactly one of
// FromAccountID and ToAccountID may be nil (DEPOSIT has no source, WITHDRAWAL
// has no destination), never both. The account numbers are denormalized onto
// the record so the wire format survives account renumbering or archival.
type Transaction struct {
	ID                uuid.UUID         `json:"id" gorm:"primaryKey;type:uuid"`
	TransactionID     string            `json:"transactionId" gorm:"uniqueIndex;not null"`
	Type              TransactionType   `json:"type" gorm:"not null"`
	Amount            decimal.Decimal   `json:"amount" gorm:"type:decimal(19,2);not null"`
	Currency          string            `json:"currency" gorm:"size:3;not null"`
	Status            TransactionStatus `json:"status" gorm:"not null"`
	Description       string            `json:"description,omitempty"`
	FromAccountID     *uuid.UUID        `json:"-" gorm:"type:uuid;index"`
	ToAccountID       *uuid.UUID        `json:"-" gorm:"type:uuid;index"`
	FromAccountNumber *string           `json:"fromAccountNumber"`
	ToAccountNumber   *string           `json:"toAccountNumber"`
	CreatedAt         time.Time         `json:"createdAt"`
	CompletedAt       *time.Time        `json:"completedAt"`
}
