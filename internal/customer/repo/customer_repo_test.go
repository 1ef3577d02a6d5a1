package repo

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-crm-go/internal/customer/entity"
)

func setupMock(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepo(sqlx.NewDb(db, "postgres")), mock
}

var customerCols = []string{"id", "customer_name", "email", "phone", "company", "created_by", "created_at", "updated_at"}

func TestCreate(t *testing.T) {
	r, mock := setupMock(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO customers (id, customer_name, email, phone, company, created_by)`)).
		WithArgs("c1", "John Doe", "john@x.com", "1", "Acme", "ana").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c := &entity.Customer{ID: "c1", CustomerName: "John Doe", Email: "john@x.com", Phone: "1", Company: "Acme", CreatedBy: "ana"}
	require.NoError(t, r.Create(context.Background(), c))
	assert.Equal(t, now, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwner(t *testing.T) {
	r, mock := setupMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM customers WHERE created_by = $1 ORDER BY created_at, id`)).
		WithArgs("ana").
		WillReturnRows(sqlmock.NewRows(customerCols).
			AddRow("c1", "John", "j@x.com", "1", "", "ana", now, now).
			AddRow("c2", "Zed", "z@x.com", "2", "Z", "ana", now, now))

	out, err := r.ListByOwner(context.Background(), "ana")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "c1", out[0].ID)
	assert.Equal(t, "Zed", out[1].CustomerName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwner_Empty(t *testing.T) {
	r, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM customers WHERE created_by = $1`)).
		WithArgs("bo").
		WillReturnRows(sqlmock.NewRows(customerCols))

	out, err := r.ListByOwner(context.Background(), "bo")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestGetByID_NotFound(t *testing.T) {
	r, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM customers WHERE id = $1`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(customerCols))

	_, err := r.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOwned(t *testing.T) {
	r, mock := setupMock(t)
	later := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE customers`)).
		WithArgs("c1", "ana", "John", "j@x.com", "555", "Acme").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(later))

	c := &entity.Customer{ID: "c1", CreatedBy: "ana", CustomerName: "John", Email: "j@x.com", Phone: "555", Company: "Acme"}
	require.NoError(t, r.UpdateOwned(context.Background(), c))
	assert.Equal(t, later, c.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOwned_WrongOwner(t *testing.T) {
	r, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND created_by = $2`)).
		WithArgs("c1", "bo", "x", "", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	err := r.UpdateOwned(context.Background(), &entity.Customer{ID: "c1", CreatedBy: "bo", CustomerName: "x"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteOwned(t *testing.T) {
	r, mock := setupMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM customers WHERE id = $1 AND created_by = $2`)).
		WithArgs("c1", "ana").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM customers`)).
		WithArgs("c1", "bo").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := r.DeleteOwned(context.Background(), "c1", "ana")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = r.DeleteOwned(context.Background(), "c1", "bo")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOwned_Error(t *testing.T) {
	r, mock := setupMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM customers`)).
		WillReturnError(errors.New("conn reset"))

	_, err := r.DeleteOwned(context.Background(), "c1", "ana")
	assert.Error(t, err)
}
