package models

import "github.com/shopspring/decimal"

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	FirstName   string `json:"firstName" binding:"required,max=50"`
	LastName    string `json:"lastName" binding:"required,max=50"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,e164"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents a successful registration or login
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// AccountCreateRequest represents an account creation request
type AccountCreateRequest struct {
	Type     AccountType `json:"type" binding:"required,oneof=CHECKING SAVINGS INVESTMENT"`
	Currency string      `json:"currency" binding:"required,len=3,uppercase"`
}

// DepositRequest represents a deposit request
type DepositRequest struct {
	AccountNumber string          `json:"accountNumber" binding:"required,len=12,numeric"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Description   string          `json:"description" binding:"omitempty,max=500"`
}

// WithdrawalRequest represents a withdrawal request
type WithdrawalRequest struct {
	AccountNumber string          `json:"accountNumber" binding:"required,len=12,numeric"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Description   string          `json:"description" binding:"omitempty,max=500"`
}

// TransferRequest represents a transfer request between two accounts. Type
// distinguishes plain transfers from payments; both move money the same way.
type TransferRequest struct {
	Type              TransactionType `json:"type" binding:"required,oneof=TRANSFER PAYMENT"`
	FromAccountNumber string          `json:"fromAccountNumber" binding:"required,len=12,numeric"`
	ToAccountNumber   string          `json:"toAccountNumber" binding:"required,len=12,numeric"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Description       string          `json:"description" binding:"omitempty,max=500"`
}
