package database

import (
	"fmt"
	"strings"

	"svcadmin/model"

	"github.com/jmoiron/sqlx"
)

const customerColumns = `id, code, name, phone, email, address, notes, created_at, updated_at`

// GetCustomers returns customers matching query on name, phone, code or email.
func GetCustomers(db DBTX, query string, limit, offset int) ([]model.Customer, error) {
	var args []interface{}
	q := "SELECT " + customerColumns + " FROM customers"
	if s := strings.TrimSpace(query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q += " WHERE LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(code) LIKE ? OR LOWER(email) LIKE ?"
		args = append(args, like, like, like, like)
	}
	q += " ORDER BY code LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	customers := []model.Customer{}
	if err := db.Select(&customers, db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("failed to get customers: %w", err)
	}
	return customers, nil
}

func GetCustomer(db DBTX, id int64) (*model.Customer, error) {
	var c model.Customer
	q := db.Rebind("SELECT " + customerColumns + " FROM customers WHERE id = ?")
	if err := db.Get(&c, q, id); err != nil {
		return nil, fmt.Errorf("GetCustomer (ID: %d): %w", id, notFound(err))
	}
	return &c, nil
}

func GetCustomerByCode(db DBTX, code string) (*model.Customer, error) {
	var c model.Customer
	q := db.Rebind("SELECT " + customerColumns + " FROM customers WHERE code = ?")
	if err := db.Get(&c, q, code); err != nil {
		return nil, fmt.Errorf("GetCustomerByCode (Code: %s): %w", code, notFound(err))
	}
	return &c, nil
}

func CreateCustomerInTx(tx *sqlx.Tx, in model.CustomerInput) (*model.Customer, error) {
	code, err := NextSequenceInTx(tx, SeqCustomer)
	if err != nil {
		return nil, err
	}
	return insertCustomerInTx(tx, code, in)
}

func insertCustomerInTx(tx *sqlx.Tx, code string, in model.CustomerInput) (*model.Customer, error) {
	now := nowStamp()
	var id int64
	q := tx.Rebind(`
		INSERT INTO customers (code, name, phone, email, address, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	if err := tx.Get(&id, q, code, in.Name, in.Phone, in.Email, in.Address, in.Notes, now, now); err != nil {
		if IsUniqueViolation(err) {
			return nil, fmt.Errorf("customer code %s already exists: %w", code, ErrConflict)
		}
		return nil, fmt.Errorf("insertCustomerInTx (Code: %s) failed: %w", code, err)
	}
	return GetCustomer(tx, id)
}

// UpsertCustomerInTx updates the customer with the given code, or creates it
// under that code when it does not exist yet.
func UpsertCustomerInTx(tx *sqlx.Tx, code string, in model.CustomerInput) (created bool, err error) {
	existing, err := GetCustomerByCode(tx, code)
	if err != nil && !IsNotFound(err) {
		return false, err
	}
	if existing == nil {
		if _, err := insertCustomerInTx(tx, code, in); err != nil {
			return false, err
		}
		return true, nil
	}
	if _, err := UpdateCustomerInTx(tx, existing.ID, in); err != nil {
		return false, err
	}
	return false, nil
}

func UpdateCustomerInTx(tx *sqlx.Tx, id int64, in model.CustomerInput) (*model.Customer, error) {
	q := tx.Rebind(`
		UPDATE customers SET name = ?, phone = ?, email = ?, address = ?, notes = ?, updated_at = ?
		WHERE id = ?`)
	res, err := tx.Exec(q, in.Name, in.Phone, in.Email, in.Address, in.Notes, nowStamp(), id)
	if err != nil {
		return nil, fmt.Errorf("UpdateCustomerInTx (ID: %d) failed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("UpdateCustomerInTx (ID: %d): %w", id, ErrNotFound)
	}
	return GetCustomer(tx, id)
}

// DeleteCustomerInTx removes a customer that owns no devices and no coupons.
func DeleteCustomerInTx(tx *sqlx.Tx, id int64) error {
	var refs int
	q := tx.Rebind(`
		SELECT (SELECT COUNT(*) FROM devices WHERE customer_id = ?)
		     + (SELECT COUNT(*) FROM coupons WHERE customer_id = ?)`)
	if err := tx.Get(&refs, q, id, id); err != nil {
		return fmt.Errorf("DeleteCustomerInTx (ID: %d) reference check failed: %w", id, err)
	}
	if refs > 0 {
		return fmt.Errorf("customer %d still has devices or coupons: %w", id, ErrConflict)
	}

	res, err := tx.Exec(tx.Rebind(`DELETE FROM customers WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete customer with id %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("DeleteCustomerInTx (ID: %d): %w", id, ErrNotFound)
	}
	return nil
}
