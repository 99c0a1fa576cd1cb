package employee

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/jmoiron/sqlx"

	"svcadmin/database"
	"svcadmin/model"
	"svcadmin/respond"
)

var ErrLastAdmin = respond.Conflict("cannot deactivate the last active admin")

func normalize(in *model.EmployeeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.HiredOn = strings.TrimSpace(in.HiredOn)

	if in.Name == "" || in.Email == "" {
		return respond.BadRequest("name and email are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return respond.BadRequest("invalid email address")
	}
	if !in.Role.Valid() {
		return respond.BadRequest(fmt.Sprintf("unknown role %q", in.Role))
	}
	return nil
}

func Create(db *sqlx.DB, in model.EmployeeInput) (*model.Employee, error) {
	if err := normalize(&in); err != nil {
		return nil, err
	}
	var e *model.Employee
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		e, err = database.CreateEmployeeInTx(tx, in)
		return err
	})
	return e, err
}

// Update rewrites an employee's profile and role. Demoting the last active
// admin is refused like deactivating it.
func Update(db *sqlx.DB, id int64, in model.EmployeeInput) (*model.Employee, error) {
	if err := normalize(&in); err != nil {
		return nil, err
	}
	var e *model.Employee
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		current, err := database.GetEmployee(tx, id)
		if err != nil {
			return err
		}
		if current.Role == model.RoleAdmin && in.Role != model.RoleAdmin && current.Active {
			if err := ensureAnotherAdmin(tx); err != nil {
				return err
			}
		}
		e, err = database.UpdateEmployeeInTx(tx, id, in)
		return err
	})
	return e, err
}

// SetActive deactivates or reactivates an employee. Employees are never
// deleted since incentives and payouts point at them.
func SetActive(db *sqlx.DB, id int64, active bool) (*model.Employee, error) {
	var e *model.Employee
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		current, err := database.GetEmployee(tx, id)
		if err != nil {
			return err
		}
		if !active && current.Active && current.Role == model.RoleAdmin {
			if err := ensureAnotherAdmin(tx); err != nil {
				return err
			}
		}
		if err := database.SetEmployeeActiveInTx(tx, id, active); err != nil {
			return err
		}
		e, err = database.GetEmployee(tx, id)
		return err
	})
	return e, err
}

func ensureAnotherAdmin(tx *sqlx.Tx) error {
	n, err := database.CountActiveAdminsInTx(tx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}
