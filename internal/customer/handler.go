package customer

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-crm-go/internal/customer/entity"
	"github.com/ovaphlow/pitchfork/service-crm-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-crm-go/pkg/utilities"
)

// CustomerService is what the HTTP handlers need from Service.
type CustomerService interface {
	Create(ctx context.Context, ownerID string, in entity.Fields) (*entity.Customer, error)
	List(ctx context.Context, ownerID string) ([]*entity.Customer, error)
	Get(ctx context.Context, ownerID, id string) (*entity.Customer, error)
	Update(ctx context.Context, ownerID, id string, p entity.Patch) (*entity.Customer, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Handler exposes the /customers endpoints. All routes must be mounted behind
// token.Guard.
type Handler struct {
	svc    CustomerService
	logger *zap.SugaredLogger
}

func NewHandler(svc CustomerService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// CreateCustomerRequest has no owner field; any createdBy sent by the client
// is dropped during decoding.
type CreateCustomerRequest struct {
	CustomerName string `json:"customerName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Company      string `json:"company"`
}

// UpdateCustomerRequest absent fields are left unchanged.
type UpdateCustomerRequest struct {
	CustomerName *string `json:"customerName"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Company      *string `json:"company"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context(), token.SubjectFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, "list customers", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner := token.SubjectFromContext(r.Context())
	c, err := h.svc.Create(r.Context(), owner, entity.Fields{
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		Company:      req.Company,
	})
	if err != nil {
		h.writeServiceError(w, "create customer", err)
		return
	}
	h.logger.Infow("customer created", "customer_id", c.ID, "owner", owner)
	utilities.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), token.SubjectFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "get customer", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCustomerRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.Update(r.Context(), token.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), entity.Patch{
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		Company:      req.Company,
	})
	if err != nil {
		h.writeServiceError(w, "update customer", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := token.SubjectFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), owner, id); err != nil {
		h.writeServiceError(w, "delete customer", err)
		return
	}
	h.logger.Infow("customer deleted", "customer_id", id, "owner", owner)
	utilities.WriteJSON(w, http.StatusOK, utilities.ErrorBody{Message: "Deleted"})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		utilities.WriteError(w, http.StatusForbidden, "Not authorized")
	case errors.Is(err, ErrNotFound):
		utilities.WriteError(w, http.StatusNotFound, "Customer not found")
	default:
		h.logger.Errorw(op+" failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, op+" failed")
	}
}
