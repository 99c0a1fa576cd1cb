package model

type CountByKey struct {
	Key   string `db:"k" json:"key"`
	Count int    `db:"n" json:"count"`
}

type Earner struct {
	EmployeeID  int64  `db:"employee_id" json:"employeeId"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	AmountCents int64  `db:"amount_cents" json:"amountCents"`
}

type Dashboard struct {
	From                string         `json:"from"`
	To                  string         `json:"to"`
	EmployeesByRole     map[string]int `json:"employeesByRole"`
	ActiveEmployees     int            `json:"activeEmployees"`
	Customers           int            `json:"customers"`
	DevicesByStatus     map[string]int `json:"devicesByStatus"`
	CouponsByStatus     map[string]int `json:"couponsByStatus"`
	PendingIncentiveSum int64          `json:"pendingIncentiveCents"`
	PaidIncentiveSum    int64          `json:"paidIncentiveCents"`
	TopEarners          []Earner       `json:"topEarners"`
}

type EmployeeSummary struct {
	EmployeeID        int64      `json:"employeeId"`
	RedeemedCoupons   int        `json:"redeemedCoupons"`
	PendingCents      int64      `json:"pendingCents"`
	PaidCents         int64      `json:"paidCents"`
	MilestonesReached []string   `json:"milestonesReached"`
	NextMilestone     *Milestone `json:"nextMilestone,omitempty"`
}
