package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/neobank/neobank/pkg/errors"
	"github.com/neobank/neobank/pkg/metrics"
	"github.com/neobank/neobank/pkg/models"
)

// LedgerService defines the balance-affecting operations and transaction
// lookups. Every mutation is atomic: the balance change and the transaction
// record commit together or not at all.
type LedgerService interface {
	Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error)
	Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error)
	Transfer(ctx context.Context, txType models.TransactionType, fromAccountNumber, toAccountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	GetAccountTransactions(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error)
}

// Service implements LedgerService
type Service struct {
	logger *zap.Logger
	db     *gorm.DB
	locks  *lockTable
}

// NewService creates a new LedgerService
func NewService(logger *zap.Logger, db *gorm.DB) (LedgerService, error) {
	return &Service{
		logger: logger,
		db:     db,
		locks:  newLockTable(),
	}, nil
}

// Deposit credits an account and records a COMPLETED DEPOSIT transaction.
func (s *Service) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	start := time.Now()
	txn, err := s.deposit(ctx, accountNumber, amount, description)
	s.observe(models.TransactionTypeDeposit, start, err)
	return txn, err
}

func (s *Service) deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	s.logger.Info("Processing deposit", zap.String("account_number", accountNumber))

	if !amount.IsPositive() {
		return nil, apperrors.InvalidOperation("amount must be positive")
	}

	accountID, err := s.resolveAccountID(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	var txn *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockedAccount(tx, accountID)
		if err != nil {
			return err
		}
		if !account.Active {
			return apperrors.InvalidOperation("cannot deposit to inactive account")
		}

		now := time.Now()
		account.Balance = account.Balance.Add(amount)
		account.UpdatedAt = now
		if err := tx.Save(account).Error; err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}

		txn = &models.Transaction{
			ID:              uuid.New(),
			TransactionID:   uuid.New().String(),
			Type:            models.TransactionTypeDeposit,
			Amount:          amount,
			Currency:        account.Currency,
			Status:          models.TransactionStatusCompleted,
			Description:     description,
			ToAccountID:     &account.ID,
			ToAccountNumber: &account.AccountNumber,
			CreatedAt:       now,
			CompletedAt:     &now,
		}
		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Withdraw debits an account and records a COMPLETED WITHDRAWAL transaction.
// Fails with InsufficientFunds when the balance cannot cover the amount.
func (s *Service) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	start := time.Now()
	txn, err := s.withdraw(ctx, accountNumber, amount, description)
	s.observe(models.TransactionTypeWithdrawal, start, err)
	return txn, err
}

func (s *Service) withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	s.logger.Info("Processing withdrawal", zap.String("account_number", accountNumber))

	if !amount.IsPositive() {
		return nil, apperrors.InvalidOperation("amount must be positive")
	}

	accountID, err := s.resolveAccountID(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	var txn *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockedAccount(tx, accountID)
		if err != nil {
			return err
		}
		if !account.Active {
			return apperrors.InvalidOperation("cannot withdraw from inactive account")
		}
		if account.Balance.LessThan(amount) {
			return apperrors.InsufficientFunds("insufficient funds")
		}

		now := time.Now()
		account.Balance = account.Balance.Sub(amount)
		account.UpdatedAt = now
		if err := tx.Save(account).Error; err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}

		txn = &models.Transaction{
			ID:                uuid.New(),
			TransactionID:     uuid.New().String(),
			Type:              models.TransactionTypeWithdrawal,
			Amount:            amount,
			Currency:          account.Currency,
			Status:            models.TransactionStatusCompleted,
			Description:       description,
			FromAccountID:     &account.ID,
			FromAccountNumber: &account.AccountNumber,
			CreatedAt:         now,
			CompletedAt:       &now,
		}
		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Transfer moves funds between two accounts atomically and records a
// transaction of the given type, TRANSFER or PAYMENT. Preconditions are
// checked in order: existence, active status, matching currency, sufficient
// funds; the first failing one wins.
func (s *Service) Transfer(ctx context.Context, txType models.TransactionType, fromAccountNumber, toAccountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	start := time.Now()
	txn, err := s.transfer(ctx, txType, fromAccountNumber, toAccountNumber, amount, description)
	s.observe(txType, start, err)
	return txn, err
}

func (s *Service) transfer(ctx context.Context, txType models.TransactionType, fromAccountNumber, toAccountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	s.logger.Info("Processing transfer",
		zap.String("type", string(txType)),
		zap.String("from", fromAccountNumber),
		zap.String("to", toAccountNumber))

	if txType != models.TransactionTypeTransfer && txType != models.TransactionTypePayment {
		return nil, apperrors.InvalidOperation("invalid transfer type: %s", txType)
	}
	if !amount.IsPositive() {
		return nil, apperrors.InvalidOperation("amount must be positive")
	}

	fromID, err := s.resolveAccountID(ctx, fromAccountNumber)
	if err != nil {
		return nil, err
	}
	toID, err := s.resolveAccountID(ctx, toAccountNumber)
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, apperrors.InvalidOperation("cannot transfer to the same account")
	}

	unlock := s.locks.lock(fromID, toID)
	defer unlock()

	var txn *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fromAccount, err := lockedAccount(tx, fromID)
		if err != nil {
			return err
		}
		toAccount, err := lockedAccount(tx, toID)
		if err != nil {
			return err
		}

		if !fromAccount.Active || !toAccount.Active {
			return apperrors.InvalidOperation("cannot transact with inactive accounts")
		}
		if fromAccount.Currency != toAccount.Currency {
			return apperrors.InvalidOperation("currency mismatch between accounts")
		}
		if fromAccount.Balance.LessThan(amount) {
			return apperrors.InsufficientFunds("insufficient funds in account")
		}

		now := time.Now()
		fromAccount.Balance = fromAccount.Balance.Sub(amount)
		fromAccount.UpdatedAt = now
		if err := tx.Save(fromAccount).Error; err != nil {
			return fmt.Errorf("failed to save from account: %w", err)
		}

		toAccount.Balance = toAccount.Balance.Add(amount)
		toAccount.UpdatedAt = now
		if err := tx.Save(toAccount).Error; err != nil {
			return fmt.Errorf("failed to save to account: %w", err)
		}

		txn = &models.Transaction{
			ID:                uuid.New(),
			TransactionID:     uuid.New().String(),
			Type:              txType,
			Amount:            amount,
			Currency:          fromAccount.Currency,
			Status:            models.TransactionStatusCompleted,
			Description:       description,
			FromAccountID:     &fromAccount.ID,
			ToAccountID:       &toAccount.ID,
			FromAccountNumber: &fromAccount.AccountNumber,
			ToAccountNumber:   &toAccount.AccountNumber,
			CreatedAt:         now,
			CompletedAt:       &now,
		}
		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetTransaction gets a transaction by its external transaction id
func (s *Service) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("transaction not found: %s", transactionID)
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return &txn, nil
}

// GetAccountTransactions gets all transactions touching an account on either
// side, newest first.
func (s *Service) GetAccountTransactions(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	if err := s.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID).
		Order("created_at DESC").
		Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to find transactions: %w", err)
	}
	return txns, nil
}

// resolveAccountID maps an account number to its surrogate id without holding
// the account lock; the balance is re-read under the lock inside the storage
// transaction.
func (s *Service) resolveAccountID(ctx context.Context, accountNumber string) (uuid.UUID, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Select("id").Where("account_number = ?", accountNumber).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperrors.NotFound("account not found: %s", accountNumber)
		}
		return uuid.Nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account.ID, nil
}

// lockedAccount re-reads an account inside the storage transaction. The
// caller holds the account's lock, so the balance cannot move underneath.
func lockedAccount(tx *gorm.DB, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := tx.Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("account not found: %s", id)
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return &account, nil
}

func (s *Service) observe(txType models.TransactionType, start time.Time, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	metrics.TransactionsProcessed.WithLabelValues(string(txType), status).Inc()
	metrics.TransactionLatency.WithLabelValues(string(txType)).Observe(time.Since(start).Seconds())
}
