package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-crm-go/internal/customer/entity"
)

// Repo is the customers repository backed by PostgreSQL.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

const columns = `id, customer_name, email, phone, company, created_by, created_at, updated_at`

// Create inserts c and fills in its timestamps.
func (r *Repo) Create(ctx context.Context, c *entity.Customer) error {
	const q = `INSERT INTO customers (id, customer_name, email, phone, company, created_by)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, c.ID, c.CustomerName, c.Email, c.Phone, c.Company, c.CreatedBy).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// ListByOwner returns the owner's customers in insertion order.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Customer, error) {
	out := []*entity.Customer{}
	const q = `SELECT ` + columns + ` FROM customers WHERE created_by = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &out, q, ownerID); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a customer regardless of owner, or sql.ErrNoRows.
func (r *Repo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var c entity.Customer
	if err := r.db.GetContext(ctx, &c, `SELECT `+columns+` FROM customers WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateOwned writes the editable fields of c if it still belongs to
// c.CreatedBy. It returns sql.ErrNoRows when no row matched.
func (r *Repo) UpdateOwned(ctx context.Context, c *entity.Customer) error {
	const q = `UPDATE customers
		SET customer_name = $3, email = $4, phone = $5, company = $6, updated_at = NOW()
		WHERE id = $1 AND created_by = $2
		RETURNING updated_at`
	return r.db.QueryRowxContext(ctx, q, c.ID, c.CreatedBy, c.CustomerName, c.Email, c.Phone, c.Company).
		Scan(&c.UpdatedAt)
}

// DeleteOwned removes the customer if it belongs to ownerID and returns the
// number of rows removed.
func (r *Repo) DeleteOwned(ctx context.Context, id, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
