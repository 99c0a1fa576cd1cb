package stats

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"svcadmin/auth"
	"svcadmin/database"
	"svcadmin/database/dbtest"
	"svcadmin/incentive"
	"svcadmin/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func addIncentive(t *testing.T, db *sqlx.DB, employeeID, cents int64) {
	t.Helper()
	require.NoError(t, database.WithTx(db, func(tx *sqlx.Tx) error {
		_, err := database.InsertIncentiveInTx(tx, model.Incentive{
			EmployeeID: employeeID, Source: model.SourceManual, AmountCents: cents, Note: "seed",
		})
		return err
	}))
}

func TestDashboard(t *testing.T) {
	db := dbtest.New(t)
	admin := dbtest.SeedEmployee(t, db, "admin", model.RoleAdmin)
	a := dbtest.SeedEmployee(t, db, "a", model.RoleStaff)
	b := dbtest.SeedEmployee(t, db, "b", model.RoleStaff)
	cust := dbtest.SeedCustomer(t, db, "Ada")
	dbtest.SeedDevice(t, db, cust.ID, a.ID, "SN1")
	addIncentive(t, db, a.ID, 300)
	addIncentive(t, db, b.ID, 900)
	addIncentive(t, db, admin.ID, 100)

	now := time.Now().UTC()
	d, err := Dashboard(context.Background(), db, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"admin": 1, "staff": 2}, d.EmployeesByRole)
	assert.Equal(t, 3, d.ActiveEmployees)
	assert.Equal(t, 1, d.Customers)
	assert.Equal(t, map[string]int{"received": 1}, d.DevicesByStatus)
	assert.Empty(t, d.CouponsByStatus)
	assert.Equal(t, int64(1300), d.PendingIncentiveSum)
	assert.Zero(t, d.PaidIncentiveSum)
	require.Len(t, d.TopEarners, 3)
	assert.Equal(t, b.ID, d.TopEarners[0].EmployeeID)

	past, err := Dashboard(context.Background(), db, now.AddDate(-1, 0, 0), now.AddDate(0, -1, 0))
	require.NoError(t, err)
	assert.Empty(t, past.TopEarners)
	assert.Zero(t, past.PendingIncentiveSum)
}

func TestDashboardCanceled(t *testing.T) {
	db := dbtest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Dashboard(ctx, db, time.Now().Add(-time.Hour), time.Now())
	require.ErrorIs(t, err, context.Canceled)
}

func TestEmployeeSummary(t *testing.T) {
	db := dbtest.New(t)
	a := dbtest.SeedEmployee(t, db, "a", model.RoleStaff)
	addIncentive(t, db, a.ID, 250)

	s, err := EmployeeSummary(db, a.ID, incentive.DefaultMilestones)
	require.NoError(t, err)
	assert.Equal(t, int64(250), s.PendingCents)
	assert.Zero(t, s.RedeemedCoupons)
	assert.Empty(t, s.MilestonesReached)
	require.NotNil(t, s.NextMilestone)
	assert.Equal(t, 10, s.NextMilestone.Threshold)

	_, err = EmployeeSummary(db, 999, nil)
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

	from, to, err := Window(httptest.NewRequest(http.MethodGet, "/", nil), now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 21, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, to.AddDate(0, 0, -30), from)

	from, to, err = Window(httptest.NewRequest(http.MethodGet, "/?from=2026-01-01&to=2026-01-31", nil), now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), to)

	for _, q := range []string{"?from=bad", "?to=2026-13-01", "?from=2026-02-01&to=2026-01-01"} {
		_, _, err := Window(httptest.NewRequest(http.MethodGet, "/"+q, nil), now)
		assert.Error(t, err, q)
	}
}

func TestSummaryHandlerRestrictsStaff(t *testing.T) {
	db := dbtest.New(t)
	a := dbtest.SeedEmployee(t, db, "a", model.RoleStaff)
	b := dbtest.SeedEmployee(t, db, "b", model.RoleStaff)
	ms := incentive.NewMilestones(incentive.DefaultMilestones)

	get := func(caller, target model.Employee) int {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/stats/employees/%d", target.ID), nil)
		req.SetPathValue("id", fmt.Sprint(target.ID))
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{EmployeeID: caller.ID, Role: caller.Role}))
		rec := httptest.NewRecorder()
		EmployeeSummaryHandler(db, ms)(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, get(a, a))
	assert.Equal(t, http.StatusForbidden, get(a, b))
}
