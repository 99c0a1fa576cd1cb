package database

import (
	"fmt"

	"svcadmin/model"
)

func countBy(db DBTX, query string, args ...interface{}) (map[string]int, error) {
	var rows []model.CountByKey
	if err := db.Select(&rows, db.Rebind(query), args...); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Key] = r.Count
	}
	return counts, nil
}

func CountEmployeesByRole(db DBTX) (map[string]int, error) {
	counts, err := countBy(db, `SELECT role AS k, COUNT(*) AS n FROM employees GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("CountEmployeesByRole failed: %w", err)
	}
	return counts, nil
}

func CountActiveEmployees(db DBTX) (int, error) {
	var n int
	if err := db.Get(&n, db.Rebind(`SELECT COUNT(*) FROM employees WHERE active = ?`), true); err != nil {
		return 0, fmt.Errorf("CountActiveEmployees failed: %w", err)
	}
	return n, nil
}

func CountCustomers(db DBTX) (int, error) {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM customers`); err != nil {
		return 0, fmt.Errorf("CountCustomers failed: %w", err)
	}
	return n, nil
}

func CountDevicesByStatus(db DBTX) (map[string]int, error) {
	counts, err := countBy(db, `SELECT status AS k, COUNT(*) AS n FROM devices GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("CountDevicesByStatus failed: %w", err)
	}
	return counts, nil
}

// CountCouponsByStatus counts coupons issued in [from, to).
func CountCouponsByStatus(db DBTX, from, to string) (map[string]int, error) {
	counts, err := countBy(db, `
		SELECT status AS k, COUNT(*) AS n FROM coupons
		WHERE issued_at >= ? AND issued_at < ?
		GROUP BY status`, from, to)
	if err != nil {
		return nil, fmt.Errorf("CountCouponsByStatus failed: %w", err)
	}
	return counts, nil
}

// SumIncentivesInWindow totals incentives of the given status created in [from, to).
func SumIncentivesInWindow(db DBTX, status model.IncentiveStatus, from, to string) (int64, error) {
	var sum int64
	q := db.Rebind(`
		SELECT COALESCE(SUM(amount_cents), 0) FROM incentives
		WHERE status = ? AND created_at >= ? AND created_at < ?`)
	if err := db.Get(&sum, q, status, from, to); err != nil {
		return 0, fmt.Errorf("SumIncentivesInWindow failed: %w", err)
	}
	return sum, nil
}

// TopEarners ranks employees by incentives created in [from, to).
func TopEarners(db DBTX, from, to string, limit int) ([]model.Earner, error) {
	earners := []model.Earner{}
	q := db.Rebind(`
		SELECT e.id AS employee_id, e.code, e.name, SUM(i.amount_cents) AS amount_cents
		FROM incentives i
		JOIN employees e ON e.id = i.employee_id
		WHERE i.created_at >= ? AND i.created_at < ?
		GROUP BY e.id, e.code, e.name
		ORDER BY amount_cents DESC, e.code
		LIMIT ?`)
	if err := db.Select(&earners, q, from, to, limit); err != nil {
		return nil, fmt.Errorf("TopEarners failed: %w", err)
	}
	return earners, nil
}
