package accounts

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

// maxNumberAttempts bounds the generate-check-retry loop; with a 12-digit
// space collisions are rare, so hitting the bound means the source is broken.
const maxNumberAttempts = 10

// AccountService defines account lifecycle and lookup operations. Balance
// mutation is not here; only the ledger touches balances.
type AccountService interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, accountType models.AccountType, currency string) (*models.Account, error)
	GetAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]*models.Account, error)
	DeactivateAccount(ctx context.Context, id uuid.UUID) error
}

// Service implements AccountService
type Service struct {
	logger  *zap.Logger
	db      *gorm.DB
	numbers NumberSource
}

// NewService creates a new AccountService
func NewService(logger *zap.Logger, db *gorm.DB, numbers NumberSource) (AccountService, error) {
	if numbers == nil {
		numbers = NewRandomNumberSource()
	}
	return &Service{
		logger:  logger,
		db:      db,
		numbers: numbers,
	}, nil
}

// CreateAccount opens a new account for a user with a zero balance and a
// freshly allocated account number.
func (s *Service) CreateAccount(ctx context.Context, userID uuid.UUID, accountType models.AccountType, currency string) (*models.Account, error) {
	s.logger.Info("Creating new account",
		zap.String("user_id", userID.String()),
		zap.String("type", string(accountType)),
		zap.String("currency", currency))

	if !models.ValidAccountType(accountType) {
		return nil, apperrors.InvalidOperation("invalid account type: %s", accountType)
	}
	if len(currency) != 3 {
		return nil, apperrors.InvalidOperation("invalid currency code: %s", currency)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found: %s", userID)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.Active {
		return nil, apperrors.InvalidOperation("cannot open account for deactivated user")
	}

	account, err := s.createWithFreshNumber(ctx, userID, accountType, currency)
	if err != nil {
		return nil, err
	}

	metrics.AccountsCreated.WithLabelValues(string(accountType)).Inc()
	return account, nil
}

// createWithFreshNumber allocates an account number by generate-check-insert.
// The unique index on account_number is the backstop: a concurrent insert of
// the same candidate fails with a duplicate-key error and we draw again.
func (s *Service) createWithFreshNumber(ctx context.Context, userID uuid.UUID, accountType models.AccountType, currency string) (*models.Account, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := s.numbers.Next()

		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Account{}).Where("account_number = ?", number).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check account number: %w", err)
		}
		if count > 0 {
			continue
		}

		now := time.Now()
		account := &models.Account{
			ID:            uuid.New(),
			AccountNumber: number,
			Type:          accountType,
			Balance:       decimal.Zero,
			Currency:      currency,
			Active:        true,
			UserID:        userID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		err := s.db.WithContext(ctx).Create(account).Error
		if err == nil {
			return account, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Warn("Account number collision, retrying", zap.String("account_number", number))
			continue
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return nil, fmt.Errorf("failed to allocate a unique account number after %d attempts", maxNumberAttempts)
}

// GetAccountByNumber gets an account by its 12-digit account number
func (s *Service) GetAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("account_number = ?", accountNumber).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("account not found: %s", accountNumber)
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return &account, nil
}

// GetAccountByID gets an account by its surrogate id
func (s *Service) GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("account not found: %s", id)
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return &account, nil
}

// GetUserAccounts gets all accounts owned by a user, active or not
func (s *Service) GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]*models.Account, error) {
	var accounts []*models.Account
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to find accounts: %w", err)
	}
	return accounts, nil
}

// DeactivateAccount soft-deletes an account. Deactivating an already-inactive
// account succeeds silently. The write is scoped to the status columns: the
// ledger owns the balance, and a full-row write here could overwrite a deposit
// committed between our read and our save.
func (s *Service) DeactivateAccount(ctx context.Context, id uuid.UUID) error {
	account, err := s.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if !account.Active {
		return nil
	}

	err = s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).
		Updates(map[string]any{"active": false, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}

	s.logger.Info("Account deactivated", zap.String("account_number", account.AccountNumber))
	return nil
}
