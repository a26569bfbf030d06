package server

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/neobank/neobank/internal/accounts"
	"github.com/neobank/neobank/internal/identities"
	"github.com/neobank/neobank/internal/ledger"
	apperrors "github.com/neobank/neobank/pkg/errors"
)

// Server represents the HTTP server
type Server struct {
	logger        *zap.Logger
	identitiesSvc identities.IdentityService
	accountsSvc   accounts.AccountService
	ledgerSvc     ledger.LedgerService
}

// NewServer creates a new HTTP server
func NewServer(
	logger *zap.Logger,
	identitiesSvc identities.IdentityService,
	accountsSvc accounts.AccountService,
	ledgerSvc ledger.LedgerService,
) *Server {
	return &Server{
		logger:        logger,
		identitiesSvc: identitiesSvc,
		accountsSvc:   accountsSvc,
		ledgerSvc:     ledgerSvc,
	}
}

// Router creates a new HTTP router
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	router.Use(ginzap.Ginzap(s.logger, "2006-01-02T15:04:05Z07:00", true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			auth := v1.Group("/auth")
			{
				auth.POST("/register", s.handleRegister)
				auth.POST("/login", s.handleLogin)
			}

			accountRoutes := v1.Group("/accounts", s.authMiddleware())
			{
				accountRoutes.POST("", s.handleCreateAccount)
				accountRoutes.GET("", s.handleGetAccounts)
				accountRoutes.GET("/:accountNumber", s.handleGetAccount)
				accountRoutes.DELETE("/:id", s.handleDeactivateAccount)
			}

			txRoutes := v1.Group("/transactions", s.authMiddleware())
			{
				txRoutes.POST("/transfer", s.handleTransfer)
				txRoutes.POST("/deposit", s.handleDeposit)
				txRoutes.POST("/withdraw", s.handleWithdraw)
				txRoutes.GET("/:transactionId", s.handleGetTransaction)
				txRoutes.GET("/account/:accountId", s.handleGetAccountTransactions)
			}
		}
	}

	return router
}

// writeError writes a JSON error response with the status the error kind maps to
func (s *Server) writeError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}

// authMiddleware creates a middleware for authentication
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			s.writeError(c, apperrors.Unauthorized("missing authorization header"))
			c.Abort()
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")

		userID, err := s.identitiesSvc.ValidateToken(token)
		if err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
