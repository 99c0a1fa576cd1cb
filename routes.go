package main

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"svcadmin/auth"
	"svcadmin/coupon"
	"svcadmin/customer"
	"svcadmin/database"
	"svcadmin/device"
	"svcadmin/employee"
	"svcadmin/incentive"
	"svcadmin/model"
	"svcadmin/report"
	"svcadmin/respond"
	"svcadmin/stats"
)

type server struct {
	db         *sqlx.DB
	verifier   *auth.Verifier
	milestones *incentive.Milestones
	pdf        report.PDFRenderer
}

func SetupRoutes(mux *http.ServeMux, s *server) {
	db := s.db
	authn := s.verifier.Authenticate(func(id int64) (*model.Employee, error) {
		return database.GetEmployee(db, id)
	})
	route := func(pattern string, roles []model.Role, h http.HandlerFunc) {
		mux.Handle(pattern, authn(auth.Require(roles...)(h)))
	}
	admin := []model.Role{model.RoleAdmin}

	mux.HandleFunc("GET /healthz", HealthHandler(db))
	route("GET /api/me", auth.Any, MeHandler(db))

	route("GET /api/employees", auth.Managers, employee.ListEmployeesHandler(db))
	route("GET /api/employees/{id}", auth.Managers, employee.GetEmployeeHandler(db))
	route("POST /api/employees", admin, employee.CreateEmployeeHandler(db))
	route("PUT /api/employees/{id}", admin, employee.UpdateEmployeeHandler(db))
	route("POST /api/employees/{id}/deactivate", admin, employee.SetActiveHandler(db, false))
	route("POST /api/employees/{id}/reactivate", admin, employee.SetActiveHandler(db, true))

	route("GET /api/customers", auth.Any, customer.ListCustomersHandler(db))
	route("GET /api/customers/{id}", auth.Any, customer.GetCustomerHandler(db))
	route("POST /api/customers", auth.Any, customer.CreateCustomerHandler(db))
	route("PUT /api/customers/{id}", auth.Any, customer.UpdateCustomerHandler(db))
	route("DELETE /api/customers/{id}", auth.Managers, customer.DeleteCustomerHandler(db))
	route("POST /api/customers/import", auth.Managers, customer.ImportCustomersHandler(db))

	route("GET /api/devices", auth.Any, device.ListDevicesHandler(db))
	route("GET /api/devices/{id}", auth.Any, device.GetDeviceHandler(db))
	route("POST /api/devices", auth.Any, device.CreateDeviceHandler(db))
	route("POST /api/devices/{id}/status", auth.Any, device.ChangeStatusHandler(db))
	route("DELETE /api/devices/{id}", auth.Managers, device.DeleteDeviceHandler(db))

	route("GET /api/coupons", auth.Any, coupon.ListCouponsHandler(db))
	route("GET /api/coupons/{code}", auth.Any, coupon.GetCouponHandler(db))
	route("POST /api/coupons/redeem", auth.Any, coupon.RedeemHandler(db, s.milestones))
	route("POST /api/coupons/issue", auth.Managers, coupon.IssueCouponsHandler(db))
	route("POST /api/coupons/{code}/void", auth.Managers, coupon.VoidHandler(db))

	route("GET /api/incentives", auth.Any, incentive.ListIncentivesHandler(db))
	route("GET /api/incentives/export", auth.Managers, report.ExportIncentivesHandler(db))
	route("POST /api/incentives/adjust", auth.Managers, incentive.AdjustHandler(db))
	route("GET /api/milestones", auth.Any, MilestonesHandler(s.milestones))

	route("POST /api/payouts", admin, incentive.PayHandler(db))
	route("GET /api/payouts", auth.Any, incentive.ListPayoutsHandler(db))
	route("GET /api/payouts/{id}", auth.Any, incentive.GetPayoutHandler(db))
	route("GET /api/payouts/{id}/statement.csv", auth.Any, report.StatementCSVHandler(db))
	route("GET /api/payouts/{id}/statement.html", auth.Any, report.StatementHTMLHandler(db))
	route("GET /api/payouts/{id}/statement.pdf", auth.Any, report.StatementPDFHandler(db, s.pdf))

	route("GET /api/stats/dashboard", auth.Managers, stats.DashboardHandler(db))
	route("GET /api/stats/employees/{id}", auth.Any, stats.EmployeeSummaryHandler(db, s.milestones))

	route("GET /api/config", admin, GetConfigHandler())
	route("POST /api/config", admin, SaveConfigHandler(s.milestones))
}

// HealthHandler answers 200 while the database responds.
func HealthHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			respond.Message(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		respond.Message(w, http.StatusOK, "ok")
	}
}

// MeHandler returns the employee behind the bearer token.
func MeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.Caller(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		e, err := database.GetEmployee(db, p.EmployeeID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, e)
	}
}

func MilestonesHandler(ms *incentive.Milestones) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, ms.Get())
	}
}
