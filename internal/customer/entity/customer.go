package entity

import "time"

// Customer is a contact record owned by exactly one user (CreatedBy).
type Customer struct {
	ID           string    `db:"id" json:"id"`
	CustomerName string    `db:"customer_name" json:"customerName"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	Company      string    `db:"company" json:"company"`
	CreatedBy    string    `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Fields are the client-editable attributes of a customer.
type Fields struct {
	CustomerName string
	Email        string
	Phone        string
	Company      string
}

// Patch holds a partial update; nil means "leave unchanged".
type Patch struct {
	CustomerName *string
	Email        *string
	Phone        *string
	Company      *string
}

// Apply copies the set fields of p onto c.
func (p Patch) Apply(c *Customer) {
	if p.CustomerName != nil {
		c.CustomerName = *p.CustomerName
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
}
