package coupon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svcadmin/auth"
	"svcadmin/database"
	"svcadmin/database/dbtest"
	"svcadmin/incentive"
	"svcadmin/model"
)

var codePattern = regexp.MustCompile(`^CP\d{6}-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{4}$`)

func setClock(t *testing.T, now time.Time) *time.Time {
	t.Helper()
	cur := now
	prev := database.Now
	database.Now = func() time.Time { return cur }
	t.Cleanup(func() { database.Now = prev })
	return &cur
}

func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }

func TestIssue(t *testing.T) {
	db := dbtest.New(t)
	mgr := dbtest.SeedEmployee(t, db, "mgr", model.RoleManager)

	coupons, err := Issue(db, IssueInput{Campaign: "spring", Count: 3, ValueCents: 1000}, mgr.ID,
		Defaults{IncentiveCents: 500, ExpiryDays: 30})
	require.NoError(t, err)
	require.Len(t, coupons, 3)
	for i, c := range coupons {
		assert.Regexp(t, codePattern, c.Code)
		assert.Equal(t, int64(500), c.IncentiveCents)
		require.NotNil(t, c.ExpiresAt)
		assert.Equal(t, model.CouponPending, c.Status)
		assert.Contains(t, c.Code, []string{"CP000001", "CP000002", "CP000003"}[i])
	}

	noExpiry, err := Issue(db, IssueInput{Campaign: "x", Count: 1, IncentiveCents: int64Ptr(0), ExpiresInDays: intPtr(0)}, mgr.ID,
		Defaults{IncentiveCents: 500, ExpiryDays: 30})
	require.NoError(t, err)
	assert.Nil(t, noExpiry[0].ExpiresAt)
	assert.Zero(t, noExpiry[0].IncentiveCents)

	for _, n := range []int{0, 501} {
		_, err := Issue(db, IssueInput{Campaign: "x", Count: n}, mgr.ID, Defaults{})
		require.Error(t, err)
	}
}

func TestRedeemRecordsIncentiveOnce(t *testing.T) {
	db := dbtest.New(t)
	mgr := dbtest.SeedEmployee(t, db, "mgr", model.RoleManager)
	staff := dbtest.SeedEmployee(t, db, "staff", model.RoleStaff)
	cust := dbtest.SeedCustomer(t, db, "Ada")
	dev := dbtest.SeedDevice(t, db, cust.ID, staff.ID, "SN1")

	coupons, err := Issue(db, IssueInput{Campaign: "c", Count: 1}, mgr.ID, Defaults{IncentiveCents: 700, ExpiryDays: 10})
	require.NoError(t, err)
	code := coupons[0].Code

	res, err := Redeem(db, RedeemInput{Code: "  " + code + " ", CustomerID: cust.ID, DeviceID: &dev.ID}, staff.ID, incentive.DefaultMilestones)
	require.NoError(t, err)
	assert.Equal(t, model.CouponRedeemed, res.Coupon.Status)
	require.NotNil(t, res.Incentive)
	assert.Equal(t, int64(700), res.Incentive.AmountCents)
	assert.Equal(t, model.SourceCoupon, res.Incentive.Source)
	assert.Empty(t, res.Milestones)

	_, err = Redeem(db, RedeemInput{Code: code, CustomerID: cust.ID}, staff.ID, nil)
	require.ErrorIs(t, err, ErrCouponNotRedeemable)

	_, err = Redeem(db, RedeemInput{Code: "CP999999-AAAA", CustomerID: cust.ID}, staff.ID, nil)
	require.ErrorIs(t, err, database.ErrNotFound)

	list, err := database.GetIncentives(db, model.IncentiveFilter{EmployeeID: staff.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRedeemIsCaseInsensitive(t *testing.T) {
	db := dbtest.New(t)
	mgr := dbtest.SeedEmployee(t, db, "mgr", model.RoleManager)
	cust := dbtest.SeedCustomer(t, db, "Ada")
	coupons, err := Issue(db, IssueInput{Campaign: "c", Count: 1}, mgr.ID, Defaults{})
	require.NoError(t, err)

	lower := []byte(coupons[0].Code)
	for i, b := range lower {
		if b >= 'A' && b <= 'Z' {
			lower[i] = b + 'a' - 'A'
		}
	}
	res, err := Redeem(db, RedeemInput{Code: string(lower), CustomerID: cust.ID}, mgr.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Incentive, "no incentive when incentive cents is zero")
}

func TestRedeemExpired(t *testing.T) {
	db := dbtest.New(t)
	clock := setClock(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	mgr := dbtest.SeedEmployee(t, db, "mgr", model.RoleManager)
	cust := dbtest.SeedCustomer(t, db, "Ada")

	coupons, err := Issue(db, IssueInput{Campaign: "c", Count: 1}, mgr.ID, Defaults{ExpiryDays: 1})
	require.NoError(t, err)

	*clock = clock.Add(48 * time.Hour)
	_, err = Redeem(db, RedeemInput{Code: coupons[0].Code, CustomerID: cust.ID}, mgr.ID, nil)
	require.ErrorIs(t, err, ErrCouponExpired)

	c, err := database.GetCouponByCode(db, coupons[0].Code)
	require.NoError(t, err)
	assert.Equal(t, model.CouponPending, c.Status)
}

func TestRedeemRejectsForeignDevice(t *testing.T) {
	db := dbtest.New(t)
	mgr := dbtest.SeedEmployee(t, db, "mgr", model.RoleManager)
	a := dbtest.SeedCustomer(t, db, "Ada")
	b := dbtest.SeedCustomer(t, db, "Bo")
	dev := dbtest.SeedDevice(t, db, b.ID, mgr.ID, "SN1")
	coupons, err := Issue(db, IssueInput{Campaign: "c", Count: 1}, mgr.ID, Defaults{})
	require.NoError(t, err)

	_, err = Redeem(db, RedeemInput{Code: coupons[0].Code, CustomerID: a.ID, DeviceID: &dev.ID}, mgr.ID, nil)
	require.Error(t, err)

	c, err := database.GetCouponByCode(db, coupons[0].Code)
	require.NoError(t, err)
	assert.Equal(t, model.CouponPending, c.Status)
}

func TestRedeemAwardsMilestone(t *testing.T) {
	db := dbtest.New(t)
	mgr := dbtest.SeedEmployee(t, db, "mgr", model.RoleManager)
	cust := dbtest.SeedCustomer(t, db, "Ada")
	ms := []model.Milestone{{Key: "two", Threshold: 2, BonusCents: 1500}}

	coupons, err := Issue(db, IssueInput{Campaign: "c", Count: 3}, mgr.ID, Defaults{IncentiveCents: 100})
	require.NoError(t, err)

	res, err := Redeem(db, RedeemInput{Code: coupons[0].Code, CustomerID: cust.ID}, mgr.ID, ms)
	require.NoError(t, err)
	assert.Empty(t, res.Milestones)

	res, err = Redeem(db, RedeemInput{Code: coupons[1].Code, CustomerID: cust.ID}, mgr.ID, ms)
	require.NoError(t, err)
	require.Len(t, res.Milestones, 1)
	assert.Equal(t, int64(1500), res.Milestones[0].AmountCents)

	res, err = Redeem(db, RedeemInput{Code: coupons[2].Code, CustomerID: cust.ID}, mgr.ID, ms)
	require.NoError(t, err)
	assert.Empty(t, res.Milestones)
}

func TestVoid(t *testing.T) {
	db := dbtest.New(t)
	mgr := dbtest.SeedEmployee(t, db, "mgr", model.RoleManager)
	cust := dbtest.SeedCustomer(t, db, "Ada")
	coupons, err := Issue(db, IssueInput{Campaign: "c", Count: 2}, mgr.ID, Defaults{})
	require.NoError(t, err)

	c, err := Void(db, coupons[0].Code)
	require.NoError(t, err)
	assert.Equal(t, model.CouponVoid, c.Status)

	_, err = Redeem(db, RedeemInput{Code: coupons[0].Code, CustomerID: cust.ID}, mgr.ID, nil)
	require.ErrorIs(t, err, ErrCouponNotRedeemable)

	_, err = Redeem(db, RedeemInput{Code: coupons[1].Code, CustomerID: cust.ID}, mgr.ID, nil)
	require.NoError(t, err)
	_, err = Void(db, coupons[1].Code)
	require.ErrorIs(t, err, ErrCouponNotVoidable)

	_, err = Void(db, "CP000404-ZZZZ")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestRedeemHandler(t *testing.T) {
	db := dbtest.New(t)
	staff := dbtest.SeedEmployee(t, db, "staff", model.RoleStaff)
	cust := dbtest.SeedCustomer(t, db, "Ada")
	coupons, err := Issue(db, IssueInput{Campaign: "c", Count: 1}, staff.ID, Defaults{IncentiveCents: 250})
	require.NoError(t, err)

	send := func() *httptest.ResponseRecorder {
		body, _ := json.Marshal(RedeemInput{Code: coupons[0].Code, CustomerID: cust.ID})
		req := httptest.NewRequest(http.MethodPost, "/api/coupons/redeem", bytes.NewReader(body))
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{EmployeeID: staff.ID, Role: model.RoleStaff}))
		rec := httptest.NewRecorder()
		RedeemHandler(db, incentive.NewMilestones(incentive.DefaultMilestones))(rec, req)
		return rec
	}

	rec := send()
	require.Equal(t, http.StatusOK, rec.Code)
	var res RedeemResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, staff.ID, *res.Coupon.RedeemedBy)

	rec = send()
	assert.Equal(t, http.StatusConflict, rec.Code)
}
