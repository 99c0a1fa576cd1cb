package stats

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"svcadmin/auth"
	"svcadmin/incentive"
	"svcadmin/model"
	"svcadmin/respond"
)

const (
	dateLayout    = "2006-01-02"
	defaultWindow = 30
)

// Window reads ?from=YYYY-MM-DD&to=YYYY-MM-DD. The to date is inclusive, so
// the returned end is the start of the following day. Without parameters
// the window is the last 30 days up to and including now.
func Window(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	to := today.AddDate(0, 0, 1)
	if s := q.Get("to"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, respond.BadRequest("invalid to date")
		}
		to = t.AddDate(0, 0, 1)
	}
	from := to.AddDate(0, 0, -defaultWindow)
	if s := q.Get("from"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, respond.BadRequest("invalid from date")
		}
		from = t
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, respond.BadRequest("from must not be after to")
	}
	return from, to, nil
}

func DashboardHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := Window(r, time.Now().UTC())
		if err != nil {
			respond.Error(w, err)
			return
		}
		d, err := Dashboard(r.Context(), db, from, to)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, d)
	}
}

// EmployeeSummaryHandler lets staff read only their own summary.
func EmployeeSummaryHandler(db *sqlx.DB, milestones *incentive.Milestones) http.HandlerFunc {
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
		if p.Is(model.RoleStaff) && id != p.EmployeeID {
			respond.Error(w, respond.Forbidden("staff may only view their own summary"))
			return
		}
		s, err := EmployeeSummary(db, id, milestones.Get())
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, s)
	}
}
