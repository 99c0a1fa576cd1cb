package incentive

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"svcadmin/database"
	"svcadmin/model"
	"svcadmin/respond"
)

var (
	ErrNothingToPay   = respond.Conflict("employee has no pending incentives")
	ErrNegativePayout = respond.Conflict("pending incentives add up to a negative amount")
)

// AwardMilestonesInTx inserts a pending milestone incentive for every
// milestone the employee has reached but not yet been awarded. Redeemed and
// paid coupons both count.
func AwardMilestonesInTx(tx *sqlx.Tx, employeeID int64, milestones []model.Milestone) ([]model.Incentive, error) {
	redeemed, err := database.CountRedeemedByEmployee(tx, employeeID)
	if err != nil {
		return nil, err
	}
	keys, err := database.GetAwardedMilestoneKeys(tx, employeeID)
	if err != nil {
		return nil, err
	}
	awarded := make(map[string]bool, len(keys))
	for _, k := range keys {
		awarded[k] = true
	}

	var added []model.Incentive
	for _, m := range milestones {
		if m.Threshold > redeemed || awarded[m.Key] {
			continue
		}
		key := m.Key
		inc := model.Incentive{
			EmployeeID:   employeeID,
			Source:       model.SourceMilestone,
			MilestoneKey: &key,
			AmountCents:  m.BonusCents,
			Note:         m.Description,
		}
		id, err := database.InsertIncentiveInTx(tx, inc)
		if err != nil {
			return nil, fmt.Errorf("award milestone %s: %w", m.Key, err)
		}
		got, err := database.GetIncentive(tx, id)
		if err != nil {
			return nil, err
		}
		added = append(added, *got)
		zap.L().Info("milestone awarded",
			zap.Int64("employee_id", employeeID),
			zap.String("milestone", m.Key),
			zap.Int("redeemed", redeemed))
	}
	return added, nil
}

// AdjustInput is a manual incentive. AmountCents may be negative.
type AdjustInput struct {
	EmployeeID  int64  `json:"employeeId"`
	AmountCents int64  `json:"amountCents"`
	Note        string `json:"note"`
}

func Adjust(db *sqlx.DB, in AdjustInput) (*model.Incentive, error) {
	in.Note = strings.TrimSpace(in.Note)
	if in.AmountCents == 0 {
		return nil, respond.BadRequest("amountCents must not be zero")
	}
	if in.Note == "" {
		return nil, respond.BadRequest("note is required")
	}

	var inc *model.Incentive
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		if _, err := database.GetEmployee(tx, in.EmployeeID); err != nil {
			return err
		}
		id, err := database.InsertIncentiveInTx(tx, model.Incentive{
			EmployeeID:  in.EmployeeID,
			Source:      model.SourceManual,
			AmountCents: in.AmountCents,
			Note:        in.Note,
		})
		if err != nil {
			return err
		}
		inc, err = database.GetIncentive(tx, id)
		return err
	})
	return inc, err
}

// Pay settles every pending incentive of the employee into one payout and
// moves the coupons behind them to paid.
func Pay(db *sqlx.DB, employeeID, createdBy int64) (*model.PayoutStatement, error) {
	var st *model.PayoutStatement
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		if _, err := database.GetEmployee(tx, employeeID); err != nil {
			return err
		}
		pending, err := database.GetIncentives(tx, model.IncentiveFilter{
			EmployeeID: employeeID,
			Status:     model.IncentivePending,
		})
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return ErrNothingToPay
		}

		var (
			total     int64
			ids       []int64
			couponIDs []int64
		)
		for _, inc := range pending {
			total += inc.AmountCents
			ids = append(ids, inc.ID)
			if inc.Source == model.SourceCoupon && inc.CouponID != nil {
				couponIDs = append(couponIDs, *inc.CouponID)
			}
		}
		if total < 0 {
			return ErrNegativePayout
		}

		payout := model.Payout{
			ID:             ksuid.New().String(),
			EmployeeID:     employeeID,
			TotalCents:     total,
			IncentiveCount: len(ids),
			CreatedBy:      createdBy,
			CreatedAt:      database.Timestamp(database.Now()),
		}
		if err := database.InsertPayoutInTx(tx, payout); err != nil {
			return err
		}
		if err := database.MarkIncentivesPaidInTx(tx, ids, payout.ID); err != nil {
			return err
		}
		if err := database.MarkCouponsPaidInTx(tx, couponIDs, payout.ID); err != nil {
			return err
		}

		st, err = Statement(tx, payout.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("payout created",
		zap.String("payout_id", st.Payout.ID),
		zap.Int64("employee_id", employeeID),
		zap.Int64("total_cents", st.Payout.TotalCents),
		zap.Int("lines", len(st.Lines)))
	return st, nil
}

// Statement loads a payout with its employee and settled incentive lines.
func Statement(db database.DBTX, payoutID string) (*model.PayoutStatement, error) {
	p, err := database.GetPayout(db, payoutID)
	if err != nil {
		return nil, err
	}
	e, err := database.GetEmployee(db, p.EmployeeID)
	if err != nil {
		return nil, err
	}
	lines, err := database.GetIncentivesByPayout(db, payoutID)
	if err != nil {
		return nil, err
	}
	return &model.PayoutStatement{Payout: *p, Employee: *e, Lines: lines}, nil
}
