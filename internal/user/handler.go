package user

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-crm-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-crm-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-crm-go/pkg/utilities"
)

// AuthService is what the HTTP handlers need from UserService.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Me(ctx context.Context, id string) (*entity.Summary, error)
}

// Handler exposes HTTP endpoints for user operations (register / login / me).
type Handler struct {
	svc    AuthService
	logger *zap.SugaredLogger
}

func NewHandler(svc AuthService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRequest request body for the register endpoint.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, "register", err)
		return
	}
	h.logger.Infow("user registered", "user_id", u.ID)
	utilities.WriteJSON(w, http.StatusCreated, u.Summary())
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, "login", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, res)
}

// Me returns the caller's profile. Must be mounted behind token.Guard.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Me(r.Context(), token.SubjectFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, "me", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, sum)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrBadCredentials):
		h.logger.Debugw(op+" failed", "err", err)
		utilities.WriteError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, ErrEmailTaken):
		utilities.WriteError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, ErrUserNotFound):
		utilities.WriteError(w, http.StatusNotFound, "user not found")
	default:
		h.logger.Errorw(op+" failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, op+" failed")
	}
}
