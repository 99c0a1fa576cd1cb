package customer

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"svcadmin/database"
	"svcadmin/model"
	"svcadmin/respond"
)

const maxImportSize = 10 << 20

func ListCustomersHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := respond.QueryInt(r, "limit", 100)
		if err != nil {
			respond.Error(w, err)
			return
		}
		offset, err := respond.QueryInt(r, "offset", 0)
		if err != nil {
			respond.Error(w, err)
			return
		}
		if limit == 0 || limit > 500 {
			limit = 500
		}
		customers, err := database.GetCustomers(db, r.URL.Query().Get("q"), limit, offset)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, customers)
	}
}

func GetCustomerHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, err)
			return
		}
		c, err := database.GetCustomer(db, id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, c)
	}
}

func CreateCustomerHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input model.CustomerInput
		if err := respond.Decode(r, &input); err != nil {
			respond.Error(w, err)
			return
		}
		c, err := Create(db, input)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, c)
	}
}

func UpdateCustomerHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, err)
			return
		}
		var input model.CustomerInput
		if err := respond.Decode(r, &input); err != nil {
			respond.Error(w, err)
			return
		}
		c, err := Update(db, id, input)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, c)
	}
}

func DeleteCustomerHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, err)
			return
		}
		if err := Delete(db, id); err != nil {
			respond.Error(w, err)
			return
		}
		respond.Message(w, http.StatusOK, "deleted")
	}
}

// ImportCustomersHandler accepts a multipart upload in the "file" field.
func ImportCustomersHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
		file, _, err := r.FormFile("file")
		if err != nil {
			respond.Error(w, respond.BadRequest("failed to read CSV file: "+err.Error()))
			return
		}
		defer file.Close()

		result, err := Import(db, file)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, result)
	}
}
