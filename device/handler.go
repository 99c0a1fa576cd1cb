package device

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"svcadmin/auth"
	"svcadmin/database"
	"svcadmin/model"
	"svcadmin/respond"
)

func ListDevicesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		customerID, err := respond.QueryInt(r, "customerId", 0)
		if err != nil {
			respond.Error(w, err)
			return
		}
		status := model.DeviceStatus(q.Get("status"))
		if status != "" && !status.Valid() {
			respond.Error(w, respond.BadRequest("invalid status"))
			return
		}
		devices, err := database.GetDevices(db, model.DeviceFilter{
			CustomerID: int64(customerID),
			Status:     status,
			Query:      q.Get("q"),
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, devices)
	}
}

func GetDeviceHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, err)
			return
		}
		d, err := Get(db, id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, d)
	}
}

func CreateDeviceHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.Caller(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		var input model.DeviceInput
		if err := respond.Decode(r, &input); err != nil {
			respond.Error(w, err)
			return
		}
		d, err := Create(db, input, p.EmployeeID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, d)
	}
}

type statusRequest struct {
	Status model.DeviceStatus `json:"status"`
	Note   string             `json:"note"`
}

func ChangeStatusHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.Caller(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, err)
			return
		}
		var req statusRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}
		d, err := ChangeStatus(db, id, req.Status, p.EmployeeID, req.Note)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, d)
	}
}

func DeleteDeviceHandler(db *sqlx.DB) http.HandlerFunc {
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
