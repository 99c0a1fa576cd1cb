package database

import (
	"fmt"
	"strings"

	"svcadmin/model"

	"github.com/jmoiron/sqlx"
)

const couponColumns = `id, code, campaign, value_cents, incentive_cents, status, issued_by, issued_at,
	expires_at, redeemed_at, redeemed_by, customer_id, device_id, paid_at, payout_id`

func InsertCouponInTx(tx *sqlx.Tx, c model.Coupon) (int64, error) {
	var id int64
	q := tx.Rebind(`
		INSERT INTO coupons (code, campaign, value_cents, incentive_cents, status, issued_by, issued_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := tx.Get(&id, q, c.Code, c.Campaign, c.ValueCents, c.IncentiveCents, model.CouponPending, c.IssuedBy, c.IssuedAt, c.ExpiresAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("coupon code %s already exists: %w", c.Code, ErrConflict)
		}
		return 0, fmt.Errorf("InsertCouponInTx (Code: %s) failed: %w", c.Code, err)
	}
	return id, nil
}

func GetCouponByCode(db DBTX, code string) (*model.Coupon, error) {
	var c model.Coupon
	q := db.Rebind("SELECT " + couponColumns + " FROM coupons WHERE code = ?")
	if err := db.Get(&c, q, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		return nil, fmt.Errorf("GetCouponByCode (Code: %s): %w", code, notFound(err))
	}
	return &c, nil
}

func GetCoupons(db DBTX, f model.CouponFilter) ([]model.Coupon, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Campaign != "" {
		where = append(where, "campaign = ?")
		args = append(args, f.Campaign)
	}
	if f.RedeemedBy > 0 {
		where = append(where, "redeemed_by = ?")
		args = append(args, f.RedeemedBy)
	}
	query := "SELECT " + couponColumns + " FROM coupons"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"

	coupons := []model.Coupon{}
	if err := db.Select(&coupons, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get coupons: %w", err)
	}
	return coupons, nil
}

// RedeemCouponInTx flips a pending, unexpired coupon to redeemed. It returns
// false when no row matched, leaving the caller to work out why.
func RedeemCouponInTx(tx *sqlx.Tx, code string, customerID int64, deviceID *int64, employeeID int64) (bool, error) {
	now := nowStamp()
	q := tx.Rebind(`
		UPDATE coupons
		SET status = ?, redeemed_at = ?, redeemed_by = ?, customer_id = ?, device_id = ?
		WHERE code = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)`)
	res, err := tx.Exec(q, model.CouponRedeemed, now, employeeID, customerID, deviceID,
		code, model.CouponPending, now)
	if err != nil {
		return false, fmt.Errorf("RedeemCouponInTx (Code: %s) failed: %w", code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func VoidCouponInTx(tx *sqlx.Tx, code string) (bool, error) {
	q := tx.Rebind(`UPDATE coupons SET status = ? WHERE code = ? AND status = ?`)
	res, err := tx.Exec(q, model.CouponVoid, code, model.CouponPending)
	if err != nil {
		return false, fmt.Errorf("VoidCouponInTx (Code: %s) failed: %w", code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkCouponsPaidInTx moves redeemed coupons to paid under a payout.
func MarkCouponsPaidInTx(tx *sqlx.Tx, couponIDs []int64, payoutID string) error {
	if len(couponIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
		UPDATE coupons SET status = ?, paid_at = ?, payout_id = ?
		WHERE status = ? AND id IN (?)`,
		model.CouponPaid, nowStamp(), payoutID, model.CouponRedeemed, couponIDs)
	if err != nil {
		return fmt.Errorf("failed to create IN query for paying coupons: %w", err)
	}
	if _, err := tx.Exec(tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to mark coupons paid: %w", err)
	}
	return nil
}

// CountRedeemedByEmployee counts coupons the employee redeemed, paid or not.
func CountRedeemedByEmployee(db DBTX, employeeID int64) (int, error) {
	var n int
	q := db.Rebind(`SELECT COUNT(*) FROM coupons WHERE redeemed_by = ? AND status IN (?, ?)`)
	if err := db.Get(&n, q, employeeID, model.CouponRedeemed, model.CouponPaid); err != nil {
		return 0, fmt.Errorf("CountRedeemedByEmployee (ID: %d) failed: %w", employeeID, err)
	}
	return n, nil
}
