package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stivoting/internal/models"
	"stivoting/internal/services"
)

// ProfileStore is the read path used after a session is established.
type ProfileStore interface {
	Get(ctx context.Context, userID int) (*models.Profile, error)
}

type AuthHandler struct {
	registration services.RegistrationService
	auth         services.AuthService
	reset        services.PasswordResetService
	profiles     ProfileStore
}

func NewAuthHandler(
	registration services.RegistrationService,
	auth services.AuthService,
	reset services.PasswordResetService,
	profiles ProfileStore,
) *AuthHandler {
	return &AuthHandler{
		registration: registration,
		auth:         auth,
		reset:        reset,
		profiles:     profiles,
	}
}

// @Summary      Log in
// @Description  Authenticates by username and password and returns an access/refresh token pair
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  models.TokenPair
// @Failure      401    {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.ValidateUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	pair, err := h.auth.Login(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// @Summary      Register a voter account
// @Description  Creates a pending registration and emails a 6-digit verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        registration  body      models.RegisterUserRequest  true  "Registration data"
// @Success      200           {object}  map[string]interface{}
// @Failure      400           {object}  map[string]string
// @Failure      409           {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	redirect, err := h.registration.SubmitUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "successfully created account",
		"next_action":  "redirect",
		"redirect_url": redirect,
	})
}

// @Summary      Register an administrator account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        registration  body      models.RegisterAdminRequest  true  "Registration data"
// @Success      200           {object}  map[string]interface{}
// @Failure      400           {object}  map[string]string
// @Failure      409           {object}  map[string]string
// @Router       /auth/registerAdmin [post]
func (h *AuthHandler) RegisterAdmin(c *gin.Context) {
	var req models.RegisterAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	redirect, err := h.registration.SubmitAdmin(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "successfully created account",
		"next_action":  "redirect",
		"redirect_url": redirect,
	})
}

// @Summary      Verify a registration code
// @Description  Promotes the pending registration into an account when the code matches
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        verification  body      object  true  "email and token"
// @Success      200           {object}  map[string]interface{}
// @Failure      400           {object}  map[string]string
// @Failure      404           {object}  map[string]string
// @Router       /auth/verifyEmail [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	redirect, err := h.registration.Verify(c.Request.Context(), req.Email, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "successfully verify email",
		"next_action":  "redirect",
		"redirect_url": redirect,
	})
}

// @Summary      Resend the verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        resend  body      object  true  "email"
// @Success      200     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /auth/resendEmail [post]
func (h *AuthHandler) ResendEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registration.Resend(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email has been resent"})
}

// @Summary      Rotate a refresh token
// @Description  Exchanges a live refresh token for a new access/refresh pair; the old token is burned
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        refresh  body      object  true  "refreshToken"
// @Success      200      {object}  models.TokenPair
// @Failure      410      {object}  map[string]string
// @Router       /auth/refreshToken [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// @Summary      Request a password reset link
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        forgot  body      object  true  "email"
// @Success      200     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reset.Forgot(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Please check your email for the reset link."})
}

// @Summary      Reset the password with a code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        reset  body      object  true  "email, token and newPassword"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reset.Reset(c.Request.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been updated"})
}

// @Summary      Current caller's profile
// @Description  Served from the read-through profile cache
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Profile
// @Failure      404  {object}  map[string]string
// @Router       /auth/check [get]
func (h *AuthHandler) CheckUser(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
