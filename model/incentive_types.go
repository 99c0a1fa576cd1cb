package model

type CouponStatus string

const (
	CouponPending  CouponStatus = "pending"
	CouponRedeemed CouponStatus = "redeemed"
	CouponPaid     CouponStatus = "paid"
	CouponVoid     CouponStatus = "void"
)

func (s CouponStatus) Valid() bool {
	switch s {
	case CouponPending, CouponRedeemed, CouponPaid, CouponVoid:
		return true
	}
	return false
}

type Coupon struct {
	ID             int64        `db:"id" json:"id"`
	Code           string       `db:"code" json:"code"`
	Campaign       string       `db:"campaign" json:"campaign"`
	ValueCents     int64        `db:"value_cents" json:"valueCents"`
	IncentiveCents int64        `db:"incentive_cents" json:"incentiveCents"`
	Status         CouponStatus `db:"status" json:"status"`
	IssuedBy       int64        `db:"issued_by" json:"issuedBy"`
	IssuedAt       string       `db:"issued_at" json:"issuedAt"`
	ExpiresAt      *string      `db:"expires_at" json:"expiresAt,omitempty"`
	RedeemedAt     *string      `db:"redeemed_at" json:"redeemedAt,omitempty"`
	RedeemedBy     *int64       `db:"redeemed_by" json:"redeemedBy,omitempty"`
	CustomerID     *int64       `db:"customer_id" json:"customerId,omitempty"`
	DeviceID       *int64       `db:"device_id" json:"deviceId,omitempty"`
	PaidAt         *string      `db:"paid_at" json:"paidAt,omitempty"`
	PayoutID       *string      `db:"payout_id" json:"payoutId,omitempty"`
}

type CouponFilter struct {
	Status     CouponStatus
	Campaign   string
	RedeemedBy int64
}

type IncentiveSource string

const (
	SourceCoupon    IncentiveSource = "coupon"
	SourceMilestone IncentiveSource = "milestone"
	SourceManual    IncentiveSource = "manual"
)

type IncentiveStatus string

const (
	IncentivePending IncentiveStatus = "pending"
	IncentivePaid    IncentiveStatus = "paid"
)

type Incentive struct {
	ID           int64           `db:"id" json:"id"`
	EmployeeID   int64           `db:"employee_id" json:"employeeId"`
	Source       IncentiveSource `db:"source" json:"source"`
	CouponID     *int64          `db:"coupon_id" json:"couponId,omitempty"`
	MilestoneKey *string         `db:"milestone_key" json:"milestoneKey,omitempty"`
	AmountCents  int64           `db:"amount_cents" json:"amountCents"`
	Status       IncentiveStatus `db:"status" json:"status"`
	Note         string          `db:"note" json:"note"`
	CreatedAt    string          `db:"created_at" json:"createdAt"`
	PaidAt       *string         `db:"paid_at" json:"paidAt,omitempty"`
	PayoutID     *string         `db:"payout_id" json:"payoutId,omitempty"`
}

type IncentiveFilter struct {
	EmployeeID int64
	Status     IncentiveStatus
	Source     IncentiveSource
}

// Milestone awards a one-time bonus once an employee has redeemed
// Threshold coupons.
type Milestone struct {
	Key         string `yaml:"key" json:"key"`
	Threshold   int    `yaml:"threshold" json:"threshold"`
	BonusCents  int64  `yaml:"bonusCents" json:"bonusCents"`
	Description string `yaml:"description" json:"description"`
}

type Payout struct {
	ID             string `db:"id" json:"id"`
	EmployeeID     int64  `db:"employee_id" json:"employeeId"`
	TotalCents     int64  `db:"total_cents" json:"totalCents"`
	IncentiveCount int    `db:"incentive_count" json:"incentiveCount"`
	CreatedBy      int64  `db:"created_by" json:"createdBy"`
	CreatedAt      string `db:"created_at" json:"createdAt"`
}

// PayoutStatement is a payout with the employee and the incentive lines it settled.
type PayoutStatement struct {
	Payout   Payout      `json:"payout"`
	Employee Employee    `json:"employee"`
	Lines    []Incentive `json:"lines"`
}
