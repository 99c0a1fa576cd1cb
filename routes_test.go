package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svcadmin/auth"
	"svcadmin/config"
	"svcadmin/coupon"
	"svcadmin/database/dbtest"
	"svcadmin/incentive"
	"svcadmin/model"
)

type noPDF struct{}

func (noPDF) RenderPDF(context.Context, string) ([]byte, error) { return []byte("%PDF"), nil }

type harness struct {
	db       *sqlx.DB
	verifier *auth.Verifier
	handler  http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "svcadmin_config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"statementDir": "`+filepath.ToSlash(filepath.Join(dir, "statements"))+`"}`), 0o644))
	_, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)

	db := dbtest.New(t)
	v, err := auth.NewVerifier("test-secret-0123456789", "", "svcadmin")
	require.NoError(t, err)
	mux := http.NewServeMux()
	SetupRoutes(mux, &server{
		db:         db,
		verifier:   v,
		milestones: incentive.NewMilestones(incentive.DefaultMilestones),
		pdf:        noPDF{},
	})
	return &harness{db: db, verifier: v, handler: requestLogger(mux)}
}

func (h *harness) do(t *testing.T, method, path string, as *model.Employee, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if as != nil {
		token, err := h.verifier.Mint(*as, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndRequestID(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRoutesEnforceRoles(t *testing.T) {
	h := newHarness(t)
	admin := dbtest.SeedEmployee(t, h.db, "admin", model.RoleAdmin)
	mgr := dbtest.SeedEmployee(t, h.db, "mgr", model.RoleManager)
	staff := dbtest.SeedEmployee(t, h.db, "staff", model.RoleStaff)

	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/me", nil, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/me", &staff, nil).Code)

	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/employees", &staff, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/employees", &mgr, nil).Code)

	newEmp := model.EmployeeInput{Name: "Noa", Email: "noa@example.com", Role: model.RoleStaff}
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodPost, "/api/employees", &mgr, newEmp).Code)
	assert.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/employees", &admin, newEmp).Code)

	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodPost, "/api/coupons/issue", &staff, coupon.IssueInput{Campaign: "x", Count: 1}).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/stats/dashboard", &staff, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/stats/dashboard", &mgr, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/config", &mgr, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/config", &admin, nil).Code)
}

func TestDeactivatedEmployeeIsRejected(t *testing.T) {
	h := newHarness(t)
	admin := dbtest.SeedEmployee(t, h.db, "admin", model.RoleAdmin)
	staff := dbtest.SeedEmployee(t, h.db, "staff", model.RoleStaff)

	rec := h.do(t, http.MethodPost, "/api/employees/2/deactivate", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/me", &staff, nil).Code)
}

func TestCouponToPayoutFlow(t *testing.T) {
	h := newHarness(t)
	admin := dbtest.SeedEmployee(t, h.db, "admin", model.RoleAdmin)
	staff := dbtest.SeedEmployee(t, h.db, "staff", model.RoleStaff)
	cust := dbtest.SeedCustomer(t, h.db, "Ada")

	incentiveCents := int64(400)
	rec := h.do(t, http.MethodPost, "/api/coupons/issue", &admin, coupon.IssueInput{Campaign: "spring", Count: 1, IncentiveCents: &incentiveCents})
	require.Equal(t, http.StatusCreated, rec.Code)
	var issued []model.Coupon
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	require.Len(t, issued, 1)

	rec = h.do(t, http.MethodPost, "/api/coupons/redeem", &staff, coupon.RedeemInput{Code: issued[0].Code, CustomerID: cust.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/payouts", &staff, map[string]int64{"employeeId": staff.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/payouts", &admin, map[string]int64{"employeeId": staff.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	var st model.PayoutStatement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, int64(400), st.Payout.TotalCents)

	rec = h.do(t, http.MethodGet, "/api/coupons/"+issued[0].Code, &staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var c model.Coupon
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, model.CouponPaid, c.Status)

	rec = h.do(t, http.MethodGet, "/api/payouts/"+st.Payout.ID+"/statement.pdf", &staff, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodGet, "/api/payouts/"+st.Payout.ID+"/statement.html", &staff, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfigDefaultExpiryZeroIssuesOpenEndedCoupons(t *testing.T) {
	h := newHarness(t)
	admin := dbtest.SeedEmployee(t, h.db, "admin", model.RoleAdmin)

	rec := h.do(t, http.MethodPost, "/api/config", &admin, map[string]int{"couponExpiryDays": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, config.GetConfig().CouponExpiryDays)

	rec = h.do(t, http.MethodPost, "/api/coupons/issue", &admin, coupon.IssueInput{Campaign: "open", Count: 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	var issued []model.Coupon
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	require.Len(t, issued, 1)
	assert.Nil(t, issued[0].ExpiresAt)
}
