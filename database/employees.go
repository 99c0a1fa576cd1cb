package database

import (
	"fmt"
	"strings"

	"svcadmin/model"

	"github.com/jmoiron/sqlx"
)

const employeeColumns = `id, code, name, email, phone, role, active, hired_on, created_at, updated_at`

func GetAllEmployees(db DBTX, f model.EmployeeFilter) ([]model.Employee, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Role != "" {
		where = append(where, "role = ?")
		args = append(args, f.Role)
	}
	if f.ActiveOnly {
		where = append(where, "active = ?")
		args = append(args, true)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(code) LIKE ?)")
		args = append(args, like, like, like)
	}

	query := "SELECT " + employeeColumns + " FROM employees"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY code"

	employees := []model.Employee{}
	if err := db.Select(&employees, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}
	return employees, nil
}

func GetEmployee(db DBTX, id int64) (*model.Employee, error) {
	var e model.Employee
	q := db.Rebind("SELECT " + employeeColumns + " FROM employees WHERE id = ?")
	if err := db.Get(&e, q, id); err != nil {
		return nil, fmt.Errorf("GetEmployee (ID: %d): %w", id, notFound(err))
	}
	return &e, nil
}

func CreateEmployeeInTx(tx *sqlx.Tx, in model.EmployeeInput) (*model.Employee, error) {
	code, err := NextSequenceInTx(tx, SeqEmployee)
	if err != nil {
		return nil, err
	}
	now := nowStamp()

	var id int64
	q := tx.Rebind(`
		INSERT INTO employees (code, name, email, phone, role, active, hired_on, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err = tx.Get(&id, q, code, in.Name, in.Email, in.Phone, in.Role, true, in.HiredOn, now, now)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, fmt.Errorf("employee email %s already exists: %w", in.Email, ErrConflict)
		}
		return nil, fmt.Errorf("CreateEmployeeInTx failed: %w", err)
	}
	return GetEmployee(tx, id)
}

func UpdateEmployeeInTx(tx *sqlx.Tx, id int64, in model.EmployeeInput) (*model.Employee, error) {
	q := tx.Rebind(`
		UPDATE employees SET name = ?, email = ?, phone = ?, role = ?, hired_on = ?, updated_at = ?
		WHERE id = ?`)
	res, err := tx.Exec(q, in.Name, in.Email, in.Phone, in.Role, in.HiredOn, nowStamp(), id)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, fmt.Errorf("employee email %s already exists: %w", in.Email, ErrConflict)
		}
		return nil, fmt.Errorf("UpdateEmployeeInTx (ID: %d) failed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("UpdateEmployeeInTx (ID: %d): %w", id, ErrNotFound)
	}
	return GetEmployee(tx, id)
}

func SetEmployeeActiveInTx(tx *sqlx.Tx, id int64, active bool) error {
	q := tx.Rebind(`UPDATE employees SET active = ?, updated_at = ? WHERE id = ?`)
	res, err := tx.Exec(q, active, nowStamp(), id)
	if err != nil {
		return fmt.Errorf("SetEmployeeActiveInTx (ID: %d) failed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("SetEmployeeActiveInTx (ID: %d): %w", id, ErrNotFound)
	}
	return nil
}

func activeAdminsQuery(driver string) string {
	q := `SELECT id FROM employees WHERE role = ? AND active = ?`
	if driver == DriverPostgres {
		q += " FOR UPDATE"
	}
	return q
}

// CountActiveAdminsInTx counts active admins. On PostgreSQL their rows stay
// locked until tx ends.
func CountActiveAdminsInTx(tx *sqlx.Tx) (int, error) {
	var ids []int64
	q := tx.Rebind(activeAdminsQuery(tx.DriverName()))
	if err := tx.Select(&ids, q, model.RoleAdmin, true); err != nil {
		return 0, fmt.Errorf("CountActiveAdminsInTx failed: %w", err)
	}
	return len(ids), nil
}
