package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/psp-portal/portal-api/internal/queue"
	"github.com/psp-portal/portal-api/internal/repository"
	"github.com/psp-portal/portal-api/internal/utils"
)

// minPasswordLen is the only password rule enforced on reset completion.
const minPasswordLen = 8

// ResetHandler implements the password reset flow: a reset token is issued
// against a registered email and delivered out-of-band by the mail worker
// consuming auth.events; completing the flow consumes the token and stores
// a new bcrypt hash.
type ResetHandler struct {
	Principals *repository.PrincipalRepo
	Resets     *repository.ResetTokenRepo
	TTL        time.Duration
	BcryptCost int
}

func NewResetHandler(p *repository.PrincipalRepo, r *repository.ResetTokenRepo, ttl time.Duration, cost int) *ResetHandler {
	return &ResetHandler{Principals: p, Resets: r, TTL: ttl, BcryptCost: cost}
}

type resetRequestReq struct {
	Email string `json:"email"`
}

type resetCompleteReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Request issues a reset token for a registered email.  The response is the
// same whether or not the email exists, so the endpoint cannot be used to
// enumerate accounts; only the queue event differs.
func (h *ResetHandler) Request(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	email := strings.TrimSpace(req.Email)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accepted := echo.Map{"message": "if the email is registered, a reset link has been sent"}

	p, err := h.Principals.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrPrincipalNotFound) {
			return c.JSON(http.StatusAccepted, accepted)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	raw, err := utils.NewSecret()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue reset token failed"})
	}
	exp := time.Now().UTC().Add(h.TTL)
	if err := h.Resets.Store(ctx, p.ID, utils.HashSecret(raw), exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save reset token failed"})
	}

	// The raw token travels only over the broker to the mail worker; this
	// service stores the hash and returns neither.
	ev := queue.AuthEvent{
		Type:       queue.EventResetRequested,
		UserID:     p.ID,
		Email:      p.Email,
		Username:   p.Username,
		ResetToken: raw,
	}
	publish(c, ev)

	return c.JSON(http.StatusAccepted, accepted)
}

// Complete consumes a reset token and stores the new password hash.
func (h *ResetHandler) Complete(c echo.Context) error {
	var req resetCompleteReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	if len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password too short"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Resets.Consume(ctx, utils.HashSecret(strings.TrimSpace(req.Token)))
	if err != nil {
		if errors.Is(err, repository.ErrResetNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	if err := h.Principals.UpdatePassword(ctx, userID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
