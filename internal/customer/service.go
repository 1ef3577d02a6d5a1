// Package customer implements owner-scoped CRUD over customer contact records.
// Every operation takes the caller's user id as resolved by token.Guard; a
// record is visible and mutable only by the user that created it.
package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ovaphlow/pitchfork/service-crm-go/internal/customer/entity"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("customer not found")
	ErrForbidden  = errors.New("customer belongs to another user")
)

// Repository is the customer store.
type Repository interface {
	Create(ctx context.Context, c *entity.Customer) error
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Customer, error)
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	UpdateOwned(ctx context.Context, c *entity.Customer) error
	DeleteOwned(ctx context.Context, id, ownerID string) (int64, error)
}

// IDSource assigns customer ids.
type IDSource interface {
	NewCustomerID() string
}

// Service encapsulates the ownership rules and depends on a Repository.
type Service struct {
	repo Repository
	ids  IDSource
}

func NewService(r Repository, ids IDSource) *Service {
	return &Service{repo: r, ids: ids}
}

func validate(c *entity.Customer) error {
	var missing []string
	if c.CustomerName == "" {
		missing = append(missing, "customerName")
	}
	if c.Email == "" {
		missing = append(missing, "email")
	}
	if c.Phone == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func trim(c *entity.Customer) {
	c.CustomerName = strings.TrimSpace(c.CustomerName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Company = strings.TrimSpace(c.Company)
}

// Create stores a new customer owned by ownerID. The owner always comes from
// the caller, never from the submitted fields.
func (s *Service) Create(ctx context.Context, ownerID string, in entity.Fields) (*entity.Customer, error) {
	c := &entity.Customer{
		ID:           s.ids.NewCustomerID(),
		CustomerName: in.CustomerName,
		Email:        in.Email,
		Phone:        in.Phone,
		Company:      in.Company,
		CreatedBy:    ownerID,
	}
	trim(c)
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// List returns only the customers created by ownerID.
func (s *Service) List(ctx context.Context, ownerID string) ([]*entity.Customer, error) {
	out, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	if out == nil {
		out = []*entity.Customer{}
	}
	return out, nil
}

// Get returns a customer owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*entity.Customer, error) {
	return s.loadOwned(ctx, ownerID, id)
}

// Update applies a partial update to a customer owned by ownerID.
func (s *Service) Update(ctx context.Context, ownerID, id string, p entity.Patch) (*entity.Customer, error) {
	c, err := s.loadOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	p.Apply(c)
	trim(c)
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateOwned(ctx, c); err != nil {
		// deleted between load and write
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// Delete removes a customer owned by ownerID.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.loadOwned(ctx, ownerID, id); err != nil {
		return err
	}
	rows, err := s.repo.DeleteOwned(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// loadOwned distinguishes "no such record" from "someone else's record".
func (s *Service) loadOwned(ctx context.Context, ownerID, id string) (*entity.Customer, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if c.CreatedBy != ownerID {
		return nil, ErrForbidden
	}
	return c, nil
}
