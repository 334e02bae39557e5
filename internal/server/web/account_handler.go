package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lodeworks/quarry/internal/logging"
	"github.com/lodeworks/quarry/internal/server/auth"
)

type accountHandler struct {
	accounts      AccountDirectory
	verifier      PasswordVerifier
	secret        []byte
	tokenValidity time.Duration
	log           logging.Logger
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *accountHandler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":    account.ID,
		"name":  account.Name,
		"email": account.Email,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// login resolves the principal and compares the password. Every failure mode
// answers the same 401 so a caller cannot tell an unknown name from a wrong
// password.
func (h *accountHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unauthorized := func() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	}

	principal, err := h.accounts.FindPrincipalByUsername(c.Request.Context(), req.Username)
	if err != nil {
		unauthorized()
		return
	}
	if principal.Locked {
		unauthorized()
		return
	}

	ok, err := h.verifier.Verify(req.Password, principal.HashedPassword)
	if err != nil || !ok {
		unauthorized()
		return
	}

	token, err := auth.GenerateToken(principal.AccountID, h.secret, h.tokenValidity)
	if err != nil {
		h.log.Error(c.Request.Context(), "token generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

type resetRequestRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *accountHandler) requestReset(c *gin.Context) {
	var req resetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.accounts.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type verifyResetRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

func (h *accountHandler) verifyReset(c *gin.Context) {
	var req verifyResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok, err := h.accounts.VerifyPasswordReset(c.Request.Context(), req.Email, req.Code, false)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": ok})
}

type resetRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *accountHandler) reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok, err := h.accounts.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
		return
	}
	c.Status(http.StatusNoContent)
}

type renameRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

func (h *accountHandler) rename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.accounts.Rename(c.Request.Context(), accountID(c), req.NewName); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
