// Package stats computes the dashboard figures and per-employee summaries.
package stats

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"svcadmin/database"
	"svcadmin/incentive"
	"svcadmin/model"
)

const topEarnerLimit = 5

// Dashboard runs each figure as its own query, concurrently. The window
// [from, to) applies to coupons, incentive totals and top earners.
func Dashboard(ctx context.Context, db *sqlx.DB, from, to time.Time) (*model.Dashboard, error) {
	d := &model.Dashboard{
		From: database.Timestamp(from),
		To:   database.Timestamp(to),
	}
	g, ctx := errgroup.WithContext(ctx)

	run := func(fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	run(func() (err error) {
		d.EmployeesByRole, err = database.CountEmployeesByRole(db)
		return err
	})
	run(func() (err error) {
		d.ActiveEmployees, err = database.CountActiveEmployees(db)
		return err
	})
	run(func() (err error) {
		d.Customers, err = database.CountCustomers(db)
		return err
	})
	run(func() (err error) {
		d.DevicesByStatus, err = database.CountDevicesByStatus(db)
		return err
	})
	run(func() (err error) {
		d.CouponsByStatus, err = database.CountCouponsByStatus(db, d.From, d.To)
		return err
	})
	run(func() (err error) {
		d.PendingIncentiveSum, err = database.SumIncentivesInWindow(db, model.IncentivePending, d.From, d.To)
		return err
	})
	run(func() (err error) {
		d.PaidIncentiveSum, err = database.SumIncentivesInWindow(db, model.IncentivePaid, d.From, d.To)
		return err
	})
	run(func() (err error) {
		d.TopEarners, err = database.TopEarners(db, d.From, d.To, topEarnerLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func EmployeeSummary(db database.DBTX, employeeID int64, milestones []model.Milestone) (*model.EmployeeSummary, error) {
	if _, err := database.GetEmployee(db, employeeID); err != nil {
		return nil, err
	}
	redeemed, err := database.CountRedeemedByEmployee(db, employeeID)
	if err != nil {
		return nil, err
	}
	pending, err := database.SumIncentives(db, employeeID, model.IncentivePending)
	if err != nil {
		return nil, err
	}
	paid, err := database.SumIncentives(db, employeeID, model.IncentivePaid)
	if err != nil {
		return nil, err
	}
	reached, err := database.GetAwardedMilestoneKeys(db, employeeID)
	if err != nil {
		return nil, err
	}
	return &model.EmployeeSummary{
		EmployeeID:        employeeID,
		RedeemedCoupons:   redeemed,
		PendingCents:      pending,
		PaidCents:         paid,
		MilestonesReached: reached,
		NextMilestone:     incentive.Next(milestones, redeemed),
	}, nil
}
