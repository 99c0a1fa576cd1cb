package coupon

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"svcadmin/database"
	"svcadmin/incentive"
	"svcadmin/model"
	"svcadmin/respond"
)

const maxIssue = 500

var (
	ErrCouponExpired       = respond.Conflict("coupon has expired")
	ErrCouponNotRedeemable = respond.Conflict("coupon is not redeemable")
	ErrCouponNotVoidable   = respond.Conflict("only pending coupons can be voided")
)

// IssueInput describes a batch of coupons. Nil IncentiveCents and
// ExpiresInDays fall back to Defaults; ExpiresInDays of 0 means no expiry.
type IssueInput struct {
	Campaign       string `json:"campaign"`
	Count          int    `json:"count"`
	ValueCents     int64  `json:"valueCents"`
	IncentiveCents *int64 `json:"incentiveCents"`
	ExpiresInDays  *int   `json:"expiresInDays"`
}

type Defaults struct {
	IncentiveCents int64
	ExpiryDays     int
}

func Issue(db *sqlx.DB, in IssueInput, issuedBy int64, def Defaults) ([]model.Coupon, error) {
	in.Campaign = strings.TrimSpace(in.Campaign)
	if in.Campaign == "" {
		return nil, respond.BadRequest("campaign is required")
	}
	if in.Count < 1 || in.Count > maxIssue {
		return nil, respond.BadRequest(fmt.Sprintf("count must be between 1 and %d", maxIssue))
	}
	incentiveCents := def.IncentiveCents
	if in.IncentiveCents != nil {
		incentiveCents = *in.IncentiveCents
	}
	days := def.ExpiryDays
	if in.ExpiresInDays != nil {
		days = *in.ExpiresInDays
	}
	if in.ValueCents < 0 || incentiveCents < 0 || days < 0 {
		return nil, respond.BadRequest("amounts and expiry must not be negative")
	}

	now := database.Now()
	var expiresAt *string
	if days > 0 {
		s := database.Timestamp(now.AddDate(0, 0, days))
		expiresAt = &s
	}

	coupons := make([]model.Coupon, 0, in.Count)
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		for i := 0; i < in.Count; i++ {
			seq, err := database.NextSequenceInTx(tx, database.SeqCoupon)
			if err != nil {
				return err
			}
			code, err := newCode(seq)
			if err != nil {
				return err
			}
			c := model.Coupon{
				Code:           code,
				Campaign:       in.Campaign,
				ValueCents:     in.ValueCents,
				IncentiveCents: incentiveCents,
				Status:         model.CouponPending,
				IssuedBy:       issuedBy,
				IssuedAt:       database.Timestamp(now),
				ExpiresAt:      expiresAt,
			}
			if c.ID, err = database.InsertCouponInTx(tx, c); err != nil {
				return err
			}
			coupons = append(coupons, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.S().Infof("Issued %d coupon(s) for campaign %s", len(coupons), in.Campaign)
	return coupons, nil
}

type RedeemInput struct {
	Code       string `json:"code"`
	CustomerID int64  `json:"customerId"`
	DeviceID   *int64 `json:"deviceId"`
}

type RedeemResult struct {
	Coupon     model.Coupon      `json:"coupon"`
	Incentive  *model.Incentive  `json:"incentive,omitempty"`
	Milestones []model.Incentive `json:"milestones"`
}

// Redeem marks a pending coupon redeemed by employeeID, records the
// employee's coupon incentive and awards any milestone reached, all in one
// transaction.
func Redeem(db *sqlx.DB, in RedeemInput, employeeID int64, milestones []model.Milestone) (*RedeemResult, error) {
	code := NormalizeCode(in.Code)
	if code == "" {
		return nil, respond.BadRequest("code is required")
	}
	if in.CustomerID <= 0 {
		return nil, respond.BadRequest("customerId is required")
	}

	res := &RedeemResult{Milestones: []model.Incentive{}}
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		if _, err := database.GetCustomer(tx, in.CustomerID); err != nil {
			if database.IsNotFound(err) {
				return respond.BadRequest(fmt.Sprintf("customer %d does not exist", in.CustomerID))
			}
			return err
		}
		if in.DeviceID != nil {
			d, err := database.GetDevice(tx, *in.DeviceID)
			if err != nil {
				if database.IsNotFound(err) {
					return respond.BadRequest(fmt.Sprintf("device %d does not exist", *in.DeviceID))
				}
				return err
			}
			if d.CustomerID != in.CustomerID {
				return respond.BadRequest("device does not belong to the customer")
			}
		}

		ok, err := database.RedeemCouponInTx(tx, code, in.CustomerID, in.DeviceID, employeeID)
		if err != nil {
			return err
		}
		if !ok {
			return whyNotRedeemed(tx, code)
		}

		c, err := database.GetCouponByCode(tx, code)
		if err != nil {
			return err
		}
		res.Coupon = *c

		if c.IncentiveCents > 0 {
			couponID := c.ID
			id, err := database.InsertIncentiveInTx(tx, model.Incentive{
				EmployeeID:  employeeID,
				Source:      model.SourceCoupon,
				CouponID:    &couponID,
				AmountCents: c.IncentiveCents,
				Note:        "coupon " + c.Code,
			})
			if err != nil {
				return err
			}
			if res.Incentive, err = database.GetIncentive(tx, id); err != nil {
				return err
			}
		}

		awarded, err := incentive.AwardMilestonesInTx(tx, employeeID, milestones)
		if err != nil {
			return err
		}
		res.Milestones = append(res.Milestones, awarded...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("coupon redeemed",
		zap.String("code", code),
		zap.Int64("employee_id", employeeID),
		zap.Int64("customer_id", in.CustomerID))
	return res, nil
}

// whyNotRedeemed resolves a redeem that matched no row into the error the
// caller should see.
func whyNotRedeemed(tx *sqlx.Tx, code string) error {
	c, err := database.GetCouponByCode(tx, code)
	if err != nil {
		return err
	}
	if c.Status == model.CouponPending && c.ExpiresAt != nil &&
		*c.ExpiresAt <= database.Timestamp(database.Now()) {
		return ErrCouponExpired
	}
	return ErrCouponNotRedeemable
}

func Void(db *sqlx.DB, code string) (*model.Coupon, error) {
	code = NormalizeCode(code)
	var c *model.Coupon
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		ok, err := database.VoidCouponInTx(tx, code)
		if err != nil {
			return err
		}
		c, err = database.GetCouponByCode(tx, code)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCouponNotVoidable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
