package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-portal/internal/auth"
	"attendance-portal/internal/identity"
	"attendance-portal/internal/model"
)

type registerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profilePicture"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	ProfilePicture *string `json:"profilePicture"`
}

type tokenResponse struct {
	auth.IssuedToken
	User model.User `json:"user"`
}

// Register creates a standard account and signs it in.
func (h *Handler) Register(c *gin.Context) {
	const op = "handler.Register"
	log := h.log.With(slog.String("op", op))

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, log, badBody(err))
		return
	}

	user, tok, err := h.identity.Register(c.Request.Context(), identity.Registration{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		h.fail(c, log, err)
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	c.JSON(http.StatusCreated, tokenResponse{IssuedToken: tok, User: user})
}

// Login exchanges credentials for a token.
func (h *Handler) Login(c *gin.Context) {
	const op = "handler.Login"
	log := h.log.With(slog.String("op", op))

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, log, badBody(err))
		return
	}

	user, tok, err := h.identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{IssuedToken: tok, User: user})
}

// AdminLogin is Login restricted to admin accounts.
func (h *Handler) AdminLogin(c *gin.Context) {
	const op = "handler.AdminLogin"
	log := h.log.With(slog.String("op", op))

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, log, badBody(err))
		return
	}

	user, tok, err := h.identity.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	log.Info("admin signed in", slog.String("user_id", user.ID))
	c.JSON(http.StatusOK, tokenResponse{IssuedToken: tok, User: user})
}

// Logout revokes the presented token.
func (h *Handler) Logout(c *gin.Context) {
	const op = "handler.Logout"
	log := h.log.With(slog.String("op", op))

	p, _ := auth.PrincipalFrom(c)
	if err := h.identity.Logout(c.Request.Context(), p); err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Profile returns the caller's account.
func (h *Handler) Profile(c *gin.Context) {
	log := h.log.With(slog.String("op", "handler.Profile"))

	_, user, err := h.caller(c)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile applies a partial update to the caller's account.
func (h *Handler) UpdateProfile(c *gin.Context) {
	const op = "handler.UpdateProfile"
	log := h.log.With(slog.String("op", op))

	p, _, err := h.caller(c)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, log, badBody(err))
		return
	}

	user, err := h.identity.UpdateProfile(c.Request.Context(), p.SubjectID, identity.ProfileUpdate{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated", "user": user})
}

// ListUsers returns every account.
func (h *Handler) ListUsers(c *gin.Context) {
	log := h.log.With(slog.String("op", "handler.ListUsers"))

	users, err := h.identity.List(c.Request.Context())
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CheckUser reports whether an account with the given email (and name, if
// supplied) exists.
func (h *Handler) CheckUser(c *gin.Context) {
	log := h.log.With(slog.String("op", "handler.CheckUser"))

	exists, err := h.identity.Exists(c.Request.Context(), c.Query("email"), c.Query("name"))
	if err != nil {
		h.fail(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}
