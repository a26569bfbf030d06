package identities

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/neobank/neobank/pkg/errors"
	"github.com/neobank/neobank/pkg/models"
)

func setupTestService(t *testing.T) IdentityService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	svc, err := NewService(zap.NewNop(), db, "test-secret", time.Hour)
	require.NoError(t, err)
	return svc
}

func registerRequest() *models.RegisterRequest {
	return &models.RegisterRequest{
		Email:     "ada@example.com",
		Password:  "correct horse battery staple",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	require.NotEmpty(t, registered.Token)
	require.Equal(t, "ada@example.com", registered.User.Email)
	require.True(t, registered.User.Active)
	require.NotEqual(t, "correct horse battery staple", registered.User.PasswordHash)

	loggedIn, err := svc.Login(ctx, &models.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	require.NotEmpty(t, loggedIn.Token)
	require.Equal(t, registered.User.ID, loggedIn.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerRequest())
	require.Equal(t, apperrors.KindAlreadyExists, apperrors.KindOf(err))
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	first := registerRequest()
	first.PhoneNumber = "+15551234567"
	_, err := svc.Register(ctx, first)
	require.NoError(t, err)

	second := registerRequest()
	second.Email = "grace@example.com"
	second.PhoneNumber = "+15551234567"
	_, err = svc.Register(ctx, second)
	require.Equal(t, apperrors.KindAlreadyExists, apperrors.KindOf(err))
}

func TestRegisterWithoutPhoneNotUnique(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	// phoneless users never collide with each other
	_, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	second := registerRequest()
	second.Email = "grace@example.com"
	registered, err := svc.Register(ctx, second)
	require.NoError(t, err)
	require.Nil(t, registered.User.PhoneNumber)
}

func TestPhoneNumberUniqueIndex(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	phone := "+15551234567"
	first := &models.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "x",
		FirstName: "Ada", LastName: "Lovelace", PhoneNumber: &phone, Active: true}
	require.NoError(t, db.Create(first).Error)

	// the index rejects a duplicate phone even when no service-level check ran
	second := &models.User{ID: uuid.New(), Email: "grace@example.com", PasswordHash: "x",
		FirstName: "Grace", LastName: "Hopper", PhoneNumber: &phone, Active: true}
	require.ErrorIs(t, db.Create(second).Error, gorm.ErrDuplicatedKey)

	// NULL phones stay outside the index
	third := &models.User{ID: uuid.New(), Email: "edsger@example.com", PasswordHash: "x",
		FirstName: "Edsger", LastName: "Dijkstra", Active: true}
	require.NoError(t, db.Create(third).Error)
	fourth := &models.User{ID: uuid.New(), Email: "barbara@example.com", PasswordHash: "x",
		FirstName: "Barbara", LastName: "Liskov", Active: true}
	require.NoError(t, db.Create(fourth).Error)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "nope"})
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "nope"})
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestValidateToken(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	userID, err := svc.ValidateToken(registered.Token)
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, userID)

	_, err = svc.ValidateToken("not-a-token")
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestGetUser(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	user, err := svc.GetUser(ctx, registered.User.ID)
	require.NoError(t, err)
	require.Equal(t, registered.User.Email, user.Email)

	_, err = svc.GetUser(ctx, uuid.New())
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
