package incentive

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"svcadmin/auth"
	"svcadmin/database"
	"svcadmin/model"
	"svcadmin/respond"
)

// FilterFromRequest reads employeeId, status and source from the query.
// Staff callers are pinned to their own incentives whatever they ask for.
func FilterFromRequest(r *http.Request, p auth.Principal) (model.IncentiveFilter, error) {
	q := r.URL.Query()
	empID, err := respond.QueryInt(r, "employeeId", 0)
	if err != nil {
		return model.IncentiveFilter{}, err
	}
	f := model.IncentiveFilter{
		EmployeeID: int64(empID),
		Status:     model.IncentiveStatus(q.Get("status")),
		Source:     model.IncentiveSource(q.Get("source")),
	}
	switch f.Status {
	case "", model.IncentivePending, model.IncentivePaid:
	default:
		return f, respond.BadRequest("invalid status")
	}
	switch f.Source {
	case "", model.SourceCoupon, model.SourceMilestone, model.SourceManual:
	default:
		return f, respond.BadRequest("invalid source")
	}
	if p.Is(model.RoleStaff) {
		f.EmployeeID = p.EmployeeID
	}
	return f, nil
}

func ListIncentivesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.Caller(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		f, err := FilterFromRequest(r, p)
		if err != nil {
			respond.Error(w, err)
			return
		}
		list, err := database.GetIncentives(db, f)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, list)
	}
}

func AdjustHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in AdjustInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		inc, err := Adjust(db, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, inc)
	}
}

type payRequest struct {
	EmployeeID int64 `json:"employeeId"`
}

func PayHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.Caller(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		var req payRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}
		if req.EmployeeID <= 0 {
			respond.Error(w, respond.BadRequest("employeeId is required"))
			return
		}
		st, err := Pay(db, req.EmployeeID, p.EmployeeID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, st)
	}
}

// StatementFor loads a payout statement the caller may see. Staff only see
// their own payouts.
func StatementFor(db *sqlx.DB, r *http.Request) (*model.PayoutStatement, error) {
	p, err := auth.Caller(r)
	if err != nil {
		return nil, err
	}
	id := r.PathValue("id")
	if id == "" {
		return nil, respond.BadRequest("invalid id")
	}
	st, err := Statement(db, id)
	if err != nil {
		return nil, err
	}
	if p.Is(model.RoleStaff) && st.Payout.EmployeeID != p.EmployeeID {
		return nil, respond.Forbidden("payout belongs to another employee")
	}
	return st, nil
}

func GetPayoutHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := StatementFor(db, r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, st)
	}
}

// ListPayoutsHandler lists the payouts of ?employeeId=, or the caller's own
// payouts for staff.
func ListPayoutsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.Caller(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		empID, err := respond.QueryInt(r, "employeeId", 0)
		if err != nil {
			respond.Error(w, err)
			return
		}
		id := int64(empID)
		if p.Is(model.RoleStaff) || id == 0 {
			id = p.EmployeeID
		}
		payouts, err := database.GetPayoutsByEmployee(db, id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, payouts)
	}
}
