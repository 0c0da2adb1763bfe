package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// Signup handles POST /auth/signup
func (h *Handler) Signup(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.accounts.Signup(ctx, req)
	if err != nil {
		respondError(c, err, "sign up")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Login handles POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.accounts.Login(ctx, req)
	if err != nil {
		respondError(c, err, "log in")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me handles GET /auth/me
func (h *Handler) Me(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	user, err := h.accounts.Me(ctx, c.GetString(ctxUserID))
	if err != nil {
		respondError(c, err, "fetch user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// ForgotPassword handles POST /auth/forgot-password
func (h *Handler) ForgotPassword(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req models.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.ForgotPassword(ctx, req.Email); err != nil {
		respondError(c, err, "send reset code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reset code sent"})
}

// VerifyResetCode handles POST /auth/verify-reset-code
func (h *Handler) VerifyResetCode(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req models.VerifyResetCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.VerifyResetCode(ctx, req.Email, req.Code); err != nil {
		respondError(c, err, "verify reset code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Code is valid"})
}

// ResetPassword handles POST /auth/reset-password
func (h *Handler) ResetPassword(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.ResetPassword(ctx, req); err != nil {
		respondError(c, err, "reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
