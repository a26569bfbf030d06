package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/neobank/neobank/pkg/errors"
	"github.com/neobank/neobank/pkg/models"
)

func callerID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet("userID").(uuid.UUID)
	return id
}

// handleRegister handles user registration
func (s *Server) handleRegister(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.identitiesSvc.Register(c.Request.Context(), &req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// handleLogin handles user login
func (s *Server) handleLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.identitiesSvc.Login(c.Request.Context(), &req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleCreateAccount opens a new account for the authenticated user
func (s *Server) handleCreateAccount(c *gin.Context) {
	var req models.AccountCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := s.accountsSvc.CreateAccount(c.Request.Context(), callerID(c), req.Type, req.Currency)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// handleGetAccounts lists all accounts of the authenticated user
func (s *Server) handleGetAccounts(c *gin.Context) {
	accts, err := s.accountsSvc.GetUserAccounts(c.Request.Context(), callerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, accts)
}

// handleGetAccount returns one account by number, owner only
func (s *Server) handleGetAccount(c *gin.Context) {
	account, err := s.accountsSvc.GetAccountByNumber(c.Request.Context(), c.Param("accountNumber"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if account.UserID != callerID(c) {
		s.writeError(c, apperrors.NotFound("account not found: %s", c.Param("accountNumber")))
		return
	}

	c.JSON(http.StatusOK, account)
}

// handleDeactivateAccount soft-deletes an account, owner only
func (s *Server) handleDeactivateAccount(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	account, err := s.accountsSvc.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if account.UserID != callerID(c) {
		s.writeError(c, apperrors.NotFound("account not found: %s", accountID))
		return
	}

	if err := s.accountsSvc.DeactivateAccount(c.Request.Context(), accountID); err != nil {
		s.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// handleTransfer moves funds between two accounts
func (s *Server) handleTransfer(c *gin.Context) {
	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := s.ledgerSvc.Transfer(c.Request.Context(), req.Type, req.FromAccountNumber, req.ToAccountNumber, req.Amount, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

// handleDeposit credits an account
func (s *Server) handleDeposit(c *gin.Context) {
	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := s.ledgerSvc.Deposit(c.Request.Context(), req.AccountNumber, req.Amount, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

// handleWithdraw debits an account
func (s *Server) handleWithdraw(c *gin.Context) {
	var req models.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := s.ledgerSvc.Withdraw(c.Request.Context(), req.AccountNumber, req.Amount, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

// handleGetTransaction returns one transaction by its external id
func (s *Server) handleGetTransaction(c *gin.Context) {
	txn, err := s.ledgerSvc.GetTransaction(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

// handleGetAccountTransactions lists an account's transactions, newest first
func (s *Server) handleGetAccountTransactions(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	txns, err := s.ledgerSvc.GetAccountTransactions(c.Request.Context(), accountID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, txns)
}
