package coupon

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"svcadmin/auth"
	"svcadmin/config"
	"svcadmin/database"
	"svcadmin/incentive"
	"svcadmin/model"
	"svcadmin/respond"
)

func ListCouponsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		redeemedBy, err := respond.QueryInt(r, "redeemedBy", 0)
		if err != nil {
			respond.Error(w, err)
			return
		}
		status := model.CouponStatus(q.Get("status"))
		if status != "" && !status.Valid() {
			respond.Error(w, respond.BadRequest("invalid status"))
			return
		}
		coupons, err := database.GetCoupons(db, model.CouponFilter{
			Status:     status,
			Campaign:   q.Get("campaign"),
			RedeemedBy: int64(redeemedBy),
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, coupons)
	}
}

func GetCouponHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := database.GetCouponByCode(db, r.PathValue("code"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, c)
	}
}

// IssueCouponsHandler takes its incentive and expiry defaults from the
// current config.
func IssueCouponsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.Caller(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		var in IssueInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		cfg := config.GetConfig()
		coupons, err := Issue(db, in, p.EmployeeID, Defaults{
			IncentiveCents: cfg.CouponIncentiveCents,
			ExpiryDays:     cfg.CouponExpiryDays,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, coupons)
	}
}

func RedeemHandler(db *sqlx.DB, milestones *incentive.Milestones) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.Caller(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		var in RedeemInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		res, err := Redeem(db, in, p.EmployeeID, milestones.Get())
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, res)
	}
}

func VoidHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := Void(db, r.PathValue("code"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, c)
	}
}
