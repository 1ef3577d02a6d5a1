package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-crm-go/internal/customer/entity"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	mu    sync.Mutex
	rows  map[string]entity.Customer
	order []string
	err   error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]entity.Customer{}}
}

func (m *memRepo) Create(ctx context.Context, c *entity.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	m.rows[c.ID] = *c
	m.order = append(m.order, c.ID)
	return nil
}

func (m *memRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []*entity.Customer{}
	for _, id := range m.order {
		c, ok := m.rows[id]
		if ok && c.CreatedBy == ownerID {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (m *memRepo) UpdateOwned(ctx context.Context, c *entity.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[c.ID]
	if !ok || cur.CreatedBy != c.CreatedBy {
		return sql.ErrNoRows
	}
	c.UpdatedAt = time.Now().UTC()
	m.rows[c.ID] = *c
	return nil
}

func (m *memRepo) DeleteOwned(ctx context.Context, id, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok || cur.CreatedBy != ownerID {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

type seqIDs struct{ n int }

func (s *seqIDs) NewCustomerID() string {
	s.n++
	return fmt.Sprintf("c%d", s.n)
}

func newTestService() (*Service, *memRepo) {
	r := newMemRepo()
	return NewService(r, &seqIDs{}), r
}

func strptr(s string) *string { return &s }

var johnFields = entity.Fields{CustomerName: "John Doe", Email: "john@x.com", Phone: "555-0100", Company: "Acme"}

func TestService_CreateAndGet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	c, err := svc.Create(ctx, "ana", johnFields)
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, "ana", c.CreatedBy)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := svc.Get(ctx, "ana", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", got.CustomerName)
	assert.Equal(t, "john@x.com", got.Email)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Equal(t, "Acme", got.Company)
}

func TestService_CreateTrimsAndValidates(t *testing.T) {
	svc, r := newTestService()
	ctx := context.Background()

	c, err := svc.Create(ctx, "ana", entity.Fields{CustomerName: "  John ", Email: " j@x.com", Phone: "1 "})
	require.NoError(t, err)
	assert.Equal(t, "John", c.CustomerName)
	assert.Equal(t, "j@x.com", c.Email)
	assert.Equal(t, "1", c.Phone)

	_, err = svc.Create(ctx, "ana", entity.Fields{CustomerName: " ", Email: "j@x.com"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "customerName")
	assert.Contains(t, err.Error(), "phone")
	assert.NotContains(t, err.Error(), "email")
	assert.Len(t, r.rows, 1)
}

func TestService_CreateRepoError(t *testing.T) {
	svc, r := newTestService()
	r.err = errors.New("db down")

	_, err := svc.Create(context.Background(), "ana", johnFields)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestService_ListIsolatedByOwner(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "ana", johnFields)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bo", entity.Fields{CustomerName: "Jane", Email: "jane@x.com", Phone: "2"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "ana", entity.Fields{CustomerName: "Zed", Email: "zed@x.com", Phone: "3"})
	require.NoError(t, err)

	ana, err := svc.List(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, ana, 2)
	assert.Equal(t, "John Doe", ana[0].CustomerName)
	assert.Equal(t, "Zed", ana[1].CustomerName)

	bo, err := svc.List(ctx, "bo")
	require.NoError(t, err)
	require.Len(t, bo, 1)
	assert.Equal(t, "Jane", bo[0].CustomerName)

	none, err := svc.List(ctx, "carl")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestService_UpdatePartial(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, err := svc.Create(ctx, "ana", johnFields)
	require.NoError(t, err)

	up, err := svc.Update(ctx, "ana", c.ID, entity.Patch{Phone: strptr("555-9999")})
	require.NoError(t, err)
	assert.Equal(t, "555-9999", up.Phone)
	assert.Equal(t, "John Doe", up.CustomerName)
	assert.Equal(t, "Acme", up.Company)
	assert.Equal(t, "ana", up.CreatedBy)

	got, err := svc.Get(ctx, "ana", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-9999", got.Phone)
}

func TestService_UpdateCannotBlankRequiredField(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, err := svc.Create(ctx, "ana", johnFields)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "ana", c.ID, entity.Patch{Email: strptr("  ")})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := svc.Get(ctx, "ana", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "john@x.com", got.Email)
}

func TestService_CrossOwnerForbidden(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, err := svc.Create(ctx, "ana", johnFields)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "bo", c.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, "bo", c.ID, entity.Patch{CustomerName: strptr("Hacked")})
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(ctx, "bo", c.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Get(ctx, "ana", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", got.CustomerName)
}

func TestService_NotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Get(ctx, "ana", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(ctx, "ana", "missing", entity.Patch{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "ana", "missing"), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "ana", ""), ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, err := svc.Create(ctx, "ana", johnFields)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "ana", c.ID))

	_, err = svc.Get(ctx, "ana", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "ana", c.ID), ErrNotFound)
}
