package employee

import (
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"svcadmin/database"
	"svcadmin/model"
	"svcadmin/respond"
)

// ListEmployeesHandler returns employees filtered by role, active flag and a free-text query.
func ListEmployeesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := model.EmployeeFilter{
			Role:       model.Role(q.Get("role")),
			ActiveOnly: q.Get("activeOnly") == "true",
			Query:      strings.TrimSpace(q.Get("q")),
		}
		if filter.Role != "" && !filter.Role.Valid() {
			respond.Error(w, respond.BadRequest("unknown role"))
			return
		}
		employees, err := database.GetAllEmployees(db, filter)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, employees)
	}
}

func GetEmployeeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, err)
			return
		}
		e, err := database.GetEmployee(db, id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, e)
	}
}

func CreateEmployeeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input model.EmployeeInput
		if err := respond.Decode(r, &input); err != nil {
			respond.Error(w, err)
			return
		}
		e, err := Create(db, input)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, e)
	}
}

func UpdateEmployeeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, err)
			return
		}
		var input model.EmployeeInput
		if err := respond.Decode(r, &input); err != nil {
			respond.Error(w, err)
			return
		}
		e, err := Update(db, id, input)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, e)
	}
}

// SetActiveHandler deactivates (active=false) or reactivates an employee.
func SetActiveHandler(db *sqlx.DB, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, err)
			return
		}
		e, err := SetActive(db, id, active)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, e)
	}
}
