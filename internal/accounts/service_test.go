package accounts

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/neobank/neobank/pkg/errors"
	"github.com/neobank/neobank/pkg/models"
)

// sequenceSource replays a fixed list of candidate numbers.
type sequenceSource struct {
	numbers []string
	pos     int
}

func (s *sequenceSource) Next() string {
	n := s.numbers[s.pos%len(s.numbers)]
	s.pos++
	return n
}

func setupTestService(t *testing.T, numbers NumberSource) (AccountService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Account{}, &models.Transaction{}))

	svc, err := NewService(zap.NewNop(), db, numbers)
	require.NoError(t, err)
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreateAccount(t *testing.T) {
	svc, db := setupTestService(t, nil)
	ctx := context.Background()
	user := seedUser(t, db)

	account, err := svc.CreateAccount(ctx, user.ID, models.AccountTypeChecking, "USD")
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^\d{12}$`), account.AccountNumber)
	require.Equal(t, models.AccountTypeChecking, account.Type)
	require.Equal(t, "USD", account.Currency)
	require.True(t, account.Active)
	require.True(t, account.Balance.IsZero())
	require.Equal(t, user.ID, account.UserID)
}

func TestCreateAccountUserNotFound(t *testing.T) {
	svc, _ := setupTestService(t, nil)

	_, err := svc.CreateAccount(context.Background(), uuid.New(), models.AccountTypeSavings, "USD")
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCreateAccountInvalidType(t *testing.T) {
	svc, db := setupTestService(t, nil)
	user := seedUser(t, db)

	_, err := svc.CreateAccount(context.Background(), user.ID, models.AccountType("CRYPTO"), "USD")
	require.Equal(t, apperrors.KindInvalidOperation, apperrors.KindOf(err))

	_, err = svc.CreateAccount(context.Background(), user.ID, models.AccountTypeChecking, "DOLLARS")
	require.Equal(t, apperrors.KindInvalidOperation, apperrors.KindOf(err))
}

func TestCreateAccountDeactivatedUser(t *testing.T) {
	svc, db := setupTestService(t, nil)
	user := seedUser(t, db)
	require.NoError(t, db.Model(user).Update("active", false).Error)

	_, err := svc.CreateAccount(context.Background(), user.ID, models.AccountTypeChecking, "USD")
	require.Equal(t, apperrors.KindInvalidOperation, apperrors.KindOf(err))
}

func TestAccountNumberCollisionRetries(t *testing.T) {
	source := &sequenceSource{numbers: []string{"111111111111", "111111111111", "222222222222"}}
	svc, db := setupTestService(t, source)
	ctx := context.Background()
	user := seedUser(t, db)

	first, err := svc.CreateAccount(ctx, user.ID, models.AccountTypeChecking, "USD")
	require.NoError(t, err)
	require.Equal(t, "111111111111", first.AccountNumber)

	// the source re-deals the taken number; the collision is retried, never surfaced
	second, err := svc.CreateAccount(ctx, user.ID, models.AccountTypeSavings, "USD")
	require.NoError(t, err)
	require.Equal(t, "222222222222", second.AccountNumber)
}

func TestGetUserAccountsIncludesInactive(t *testing.T) {
	svc, db := setupTestService(t, nil)
	ctx := context.Background()
	user := seedUser(t, db)

	a, err := svc.CreateAccount(ctx, user.ID, models.AccountTypeChecking, "USD")
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, user.ID, models.AccountTypeSavings, "EUR")
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateAccount(ctx, a.ID))

	accts, err := svc.GetUserAccounts(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, accts, 2)
}

func TestDeactivateAccountIdempotent(t *testing.T) {
	svc, db := setupTestService(t, nil)
	ctx := context.Background()
	user := seedUser(t, db)

	account, err := svc.CreateAccount(ctx, user.ID, models.AccountTypeChecking, "USD")
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateAccount(ctx, account.ID))
	got, err := svc.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	// deactivating again succeeds silently
	require.NoError(t, svc.DeactivateAccount(ctx, account.ID))
}

func TestDeactivateAccountLeavesBalanceAlone(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true, SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Account{}, &models.Transaction{}))

	svc, err := NewService(zap.NewNop(), db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	user := seedUser(t, db)
	account, err := svc.CreateAccount(ctx, user.ID, models.AccountTypeChecking, "USD")
	require.NoError(t, err)

	// a deposit commits between the deactivation's read and its write; the
	// deactivation write must not drag the stale balance along with it
	deposited := false
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("race_deposit", func(tx *gorm.DB) {
		if deposited {
			return
		}
		deposited = true
		err := db.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE accounts SET balance = ? WHERE id = ?", "250.00", account.ID).Error
		require.NoError(t, err)
	}))

	require.NoError(t, svc.DeactivateAccount(ctx, account.ID))
	require.True(t, deposited)

	var got models.Account
	require.NoError(t, db.Where("id = ?", account.ID).First(&got).Error)
	require.False(t, got.Active)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("250.00")), "got %s", got.Balance)
}

func TestDeactivateAccountNotFound(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	err := svc.DeactivateAccount(context.Background(), uuid.New())
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestGetAccountByNumberNotFound(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	_, err := svc.GetAccountByNumber(context.Background(), "000000000000")
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
