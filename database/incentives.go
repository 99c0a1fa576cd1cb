package database

import (
	"fmt"
	"strings"

	"svcadmin/model"

	"github.com/jmoiron/sqlx"
)

const incentiveColumns = `id, employee_id, source, coupon_id, milestone_key, amount_cents, status, note, created_at, paid_at, payout_id`

func InsertIncentiveInTx(tx *sqlx.Tx, inc model.Incentive) (int64, error) {
	var id int64
	q := tx.Rebind(`
		INSERT INTO incentives (employee_id, source, coupon_id, milestone_key, amount_cents, status, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := tx.Get(&id, q, inc.EmployeeID, inc.Source, inc.CouponID, inc.MilestoneKey, inc.AmountCents,
		model.IncentivePending, inc.Note, nowStamp())
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("incentive for employee %d already recorded: %w", inc.EmployeeID, ErrConflict)
		}
		return 0, fmt.Errorf("InsertIncentiveInTx (Employee: %d) failed: %w", inc.EmployeeID, err)
	}
	return id, nil
}

func GetIncentive(db DBTX, id int64) (*model.Incentive, error) {
	var inc model.Incentive
	q := db.Rebind("SELECT " + incentiveColumns + " FROM incentives WHERE id = ?")
	if err := db.Get(&inc, q, id); err != nil {
		return nil, fmt.Errorf("GetIncentive (ID: %d): %w", id, notFound(err))
	}
	return &inc, nil
}

func GetIncentives(db DBTX, f model.IncentiveFilter) ([]model.Incentive, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.EmployeeID > 0 {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	query := "SELECT " + incentiveColumns + " FROM incentives"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	incentives := []model.Incentive{}
	if err := db.Select(&incentives, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get incentives: %w", err)
	}
	return incentives, nil
}

func GetIncentivesByPayout(db DBTX, payoutID string) ([]model.Incentive, error) {
	incentives := []model.Incentive{}
	q := db.Rebind("SELECT " + incentiveColumns + " FROM incentives WHERE payout_id = ? ORDER BY id")
	if err := db.Select(&incentives, q, payoutID); err != nil {
		return nil, fmt.Errorf("failed to get incentives for payout %s: %w", payoutID, err)
	}
	return incentives, nil
}

func MarkIncentivesPaidInTx(tx *sqlx.Tx, ids []int64, payoutID string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
		UPDATE incentives SET status = ?, paid_at = ?, payout_id = ?
		WHERE status = ? AND id IN (?)`,
		model.IncentivePaid, nowStamp(), payoutID, model.IncentivePending, ids)
	if err != nil {
		return fmt.Errorf("failed to create IN query for paying incentives: %w", err)
	}
	res, err := tx.Exec(tx.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to mark incentives paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n != int64(len(ids)) {
		return fmt.Errorf("paid %d of %d incentives: %w", n, len(ids), ErrConflict)
	}
	return nil
}

func GetAwardedMilestoneKeys(db DBTX, employeeID int64) ([]string, error) {
	keys := []string{}
	q := db.Rebind(`
		SELECT milestone_key FROM incentives
		WHERE employee_id = ? AND source = ? AND milestone_key IS NOT NULL
		ORDER BY id`)
	if err := db.Select(&keys, q, employeeID, model.SourceMilestone); err != nil {
		return nil, fmt.Errorf("failed to get milestones for employee %d: %w", employeeID, err)
	}
	return keys, nil
}

func SumIncentives(db DBTX, employeeID int64, status model.IncentiveStatus) (int64, error) {
	var sum int64
	q := db.Rebind(`SELECT COALESCE(SUM(amount_cents), 0) FROM incentives WHERE employee_id = ? AND status = ?`)
	if err := db.Get(&sum, q, employeeID, status); err != nil {
		return 0, fmt.Errorf("SumIncentives (Employee: %d) failed: %w", employeeID, err)
	}
	return sum, nil
}

func InsertPayoutInTx(tx *sqlx.Tx, p model.Payout) error {
	q := tx.Rebind(`
		INSERT INTO payouts (id, employee_id, total_cents, incentive_count, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := tx.Exec(q, p.ID, p.EmployeeID, p.TotalCents, p.IncentiveCount, p.CreatedBy, p.CreatedAt); err != nil {
		return fmt.Errorf("InsertPayoutInTx (ID: %s) failed: %w", p.ID, err)
	}
	return nil
}

func GetPayout(db DBTX, id string) (*model.Payout, error) {
	var p model.Payout
	q := db.Rebind(`SELECT id, employee_id, total_cents, incentive_count, created_by, created_at FROM payouts WHERE id = ?`)
	if err := db.Get(&p, q, id); err != nil {
		return nil, fmt.Errorf("GetPayout (ID: %s): %w", id, notFound(err))
	}
	return &p, nil
}

func GetPayoutsByEmployee(db DBTX, employeeID int64) ([]model.Payout, error) {
	payouts := []model.Payout{}
	q := db.Rebind(`
		SELECT id, employee_id, total_cents, incentive_count, created_by, created_at
		FROM payouts WHERE employee_id = ? ORDER BY id DESC`)
	if err := db.Select(&payouts, q, employeeID); err != nil {
		return nil, fmt.Errorf("failed to get payouts for employee %d: %w", employeeID, err)
	}
	return payouts, nil
}
