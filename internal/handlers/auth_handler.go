package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/middleware"
	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/response"
	"github.com/harentsoaR/medico-api/internal/store"
	"github.com/harentsoaR/medico-api/internal/utils"
)

// credentials carries the fields that never live on the stored actor.
type credentials struct {
	Email           string `json:"email" form:"email"`
	UserID          string `json:"userId" form:"userId"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// accounts serves the register, login, logout and profile routes of one
// actor kind.
type accounts[T models.Actor] struct {
	h    *Handler
	repo store.ActorRepository[T]
	gate middleware.Gate
	newT func() T
	// freeze snapshots fields a profile edit must not change and returns
	// the function restoring them.
	freeze func(T) func(T)
}

func newAccounts[T models.Actor](h *Handler, repo store.ActorRepository[T], gate middleware.Gate, newT func() T) *accounts[T] {
	return &accounts[T]{h: h, repo: repo, gate: gate, newT: newT}
}

func title(role models.Role) string {
	s := string(role)
	return strings.ToUpper(s[:1]) + s[1:]
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEMultipartPOSTForm
}

// bindBody decodes a JSON or multipart body into each target in turn.
func bindBody(c *gin.Context, targets ...any) error {
	for _, target := range targets {
		var err error
		if isMultipart(c) {
			err = c.ShouldBindWith(target, binding.FormMultipart)
		} else {
			err = c.ShouldBindBodyWith(target, binding.JSON)
		}
		if err != nil {
			return apperr.ValidationWrap("Invalid request body", err)
		}
	}
	return nil
}

// resetServerFields drops anything a client tried to set on fields the
// server owns.
func resetServerFields(b *models.Base) {
	b.ID = primitive.NilObjectID
	b.Password = ""
	b.Location = nil
	b.Image = ""
	b.CreatedAt, b.UpdatedAt = time.Time{}, time.Time{}
}

// attachImage uploads the multipart "image" file, if any, and stores its URL.
func (h *Handler) attachImage(c *gin.Context, b *models.Base, role models.Role) error {
	if !isMultipart(c) {
		return nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return apperr.ValidationWrap("Invalid image upload", err)
	}
	if h.uploader == nil {
		log.Warn().Str("role", string(role)).Msg("image ignored: no uploader configured")
		return nil
	}

	f, err := fh.Open()
	if err != nil {
		return apperr.ValidationWrap("Invalid image upload", err)
	}
	defer f.Close()

	url, err := h.uploader.Upload(c.Request.Context(), string(role)+"s", fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		return apperr.External("Failed to upload image", err)
	}
	b.Image = url
	return nil
}

func (h *Handler) setTokenCookie(c *gin.Context, role models.Role, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(role.CookieName(), token, maxAge, "/", "", h.cookieSecure, true)
}

// issueSession signs a token for actor and sets it as the role's cookie.
func (h *Handler) issueSession(c *gin.Context, actor models.Actor) (string, error) {
	ttl := utils.TokenTTL(actor.Role())
	token, err := h.tokens.Issue(actor.GetID().Hex(), actor.Role(), ttl)
	if err != nil {
		return "", apperr.Internal("Could not generate token", err)
	}
	h.setTokenCookie(c, actor.Role(), token, int(ttl.Seconds()))
	return token, nil
}

func (a *accounts[T]) Register(c *gin.Context) {
	actor := a.newT()
	var creds credentials
	if err := bindBody(c, actor, &creds); err != nil {
		response.Error(c, err)
		return
	}

	base := actor.Common()
	resetServerFields(base)
	if err := a.h.attachImage(c, base, a.repo.Role()); err != nil {
		response.Error(c, err)
		return
	}

	if err := a.repo.Create(c.Request.Context(), actor, creds.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, title(a.repo.Role())+" registered successfully", actor)
}

func (a *accounts[T]) Login(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		response.Error(c, apperr.ValidationWrap("Invalid request body", err))
		return
	}

	role := a.repo.Role()
	key, label := models.NormalizeEmail(creds.Email), "email"
	if role == models.RoleDoctor {
		key, label = strings.TrimSpace(creds.UserID), "user ID"
	}
	if key == "" || creds.Password == "" {
		response.Error(c, apperr.Validation("Please provide "+label+" and password"))
		return
	}

	actor, err := a.repo.FindByLogin(c.Request.Context(), key)
	if apperr.Is(err, apperr.TypeNotFound) || (err == nil && !store.VerifyPassword(actor, creds.Password)) {
		response.Error(c, apperr.Unauthenticated("Invalid credentials"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := a.h.issueSession(c, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Login successful", gin.H{
		"token":      token,
		string(role): actor,
	})
}

// Logout revokes the presented token and clears the role cookie.
func (a *accounts[T]) Logout(c *gin.Context) {
	claims, ok := middleware.TokenClaims(c)
	if !ok {
		response.Error(c, apperr.Unauthenticated("No token provided"))
		return
	}
	if a.h.revocations != nil && claims.ExpiresAt != nil {
		if err := a.h.revocations.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			response.Error(c, apperr.Internal("Failed to log out", err))
			return
		}
	}
	a.h.setTokenCookie(c, a.repo.Role(), "", -1)
	response.Message(c, http.StatusOK, "Logged out successfully", nil)
}

func (a *accounts[T]) Me(c *gin.Context) {
	actor, ok := middleware.Actor[T](c, a.gate.ContextKey)
	if !ok {
		response.Error(c, apperr.Unauthenticated("No token provided"))
		return
	}
	response.OK(c, http.StatusOK, actor)
}

// UpdateMe applies a partial profile edit. Identity, password and creation
// time are kept whatever the body says.
func (a *accounts[T]) UpdateMe(c *gin.Context) {
	actor, ok := middleware.Actor[T](c, a.gate.ContextKey)
	if !ok {
		response.Error(c, apperr.Unauthenticated("No token provided"))
		return
	}

	base := actor.Common()
	kept := *base
	restore := func(T) {}
	if a.freeze != nil {
		restore = a.freeze(actor)
	}

	if err := bindBody(c, actor); err != nil {
		response.Error(c, err)
		return
	}
	restore(actor)
	base.ID, base.Email, base.Password = kept.ID, kept.Email, kept.Password
	base.CreatedAt, base.Image = kept.CreatedAt, kept.Image
	if err := a.h.attachImage(c, base, a.repo.Role()); err != nil {
		response.Error(c, err)
		return
	}

	if err := a.repo.Update(c.Request.Context(), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Profile updated successfully", actor)
}

// ValidateToken reports who the presented token belongs to.
func (h *Handler) ValidateToken(c *gin.Context) {
	actor, role, ok := middleware.ResolvedActor(c)
	if !ok {
		response.Error(c, apperr.Unauthenticated("No token provided"))
		return
	}
	response.OK(c, http.StatusOK, gin.H{
		"userType": role,
		"user":     actor,
	})
}
