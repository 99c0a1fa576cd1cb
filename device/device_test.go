package device

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svcadmin/auth"
	"svcadmin/database"
	"svcadmin/database/dbtest"
	"svcadmin/model"
)

func TestNormalizeSerial(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeSerial(" ab 12\tcd "))
	assert.Equal(t, "", NormalizeSerial("   "))
}

func TestCreate(t *testing.T) {
	db := dbtest.New(t)
	emp := dbtest.SeedEmployee(t, db, "tech", model.RoleStaff)
	c := dbtest.SeedCustomer(t, db, "Ada")

	d, err := Create(db, model.DeviceInput{CustomerID: c.ID, SerialNumber: "sn 001", Brand: " Acme "}, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "SN001", d.SerialNumber)
	assert.Equal(t, model.DeviceReceived, d.Status)
	assert.Equal(t, "Acme", d.Brand)

	_, err = Create(db, model.DeviceInput{CustomerID: c.ID, SerialNumber: "SN 001"}, emp.ID)
	require.ErrorIs(t, err, database.ErrConflict)

	_, err = Create(db, model.DeviceInput{CustomerID: 999, SerialNumber: "X"}, emp.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, database.ErrConflict)
}

func TestChangeStatusFollowsLifecycle(t *testing.T) {
	db := dbtest.New(t)
	emp := dbtest.SeedEmployee(t, db, "tech", model.RoleStaff)
	c := dbtest.SeedCustomer(t, db, "Ada")
	d := dbtest.SeedDevice(t, db, c.ID, emp.ID, "SN1")

	_, err := ChangeStatus(db, d.ID, model.DeviceReady, emp.ID, "")
	require.Error(t, err)

	for _, to := range []model.DeviceStatus{model.DeviceInService, model.DeviceReady, model.DeviceInService, model.DeviceReady, model.DeviceDelivered} {
		got, err := ChangeStatus(db, d.ID, to, emp.ID, "step")
		require.NoError(t, err)
		assert.Equal(t, to, got.Status)
	}

	_, err = ChangeStatus(db, d.ID, model.DeviceReceived, emp.ID, "")
	require.Error(t, err, "delivered is terminal")

	detail, err := Get(db, d.ID)
	require.NoError(t, err)
	require.Len(t, detail.Events, 6)
	assert.Equal(t, model.DeviceStatus(""), detail.Events[0].FromStatus)
	assert.Equal(t, model.DeviceDelivered, detail.Events[5].ToStatus)
}

func TestDeleteOnlyWhileReceived(t *testing.T) {
	db := dbtest.New(t)
	emp := dbtest.SeedEmployee(t, db, "tech", model.RoleStaff)
	c := dbtest.SeedCustomer(t, db, "Ada")
	d := dbtest.SeedDevice(t, db, c.ID, emp.ID, "SN1")
	busy := dbtest.SeedDevice(t, db, c.ID, emp.ID, "SN2")

	_, err := ChangeStatus(db, busy.ID, model.DeviceInService, emp.ID, "")
	require.NoError(t, err)

	require.ErrorIs(t, Delete(db, busy.ID), database.ErrConflict)
	require.ErrorIs(t, Delete(db, 999), database.ErrNotFound)
	require.NoError(t, Delete(db, d.ID))
}

func TestHandlersUsePrincipal(t *testing.T) {
	db := dbtest.New(t)
	emp := dbtest.SeedEmployee(t, db, "tech", model.RoleStaff)
	c := dbtest.SeedCustomer(t, db, "Ada")

	body, _ := json.Marshal(model.DeviceInput{CustomerID: c.ID, SerialNumber: "sn9"})
	rec := httptest.NewRecorder()
	CreateDeviceHandler(db)(rec, httptest.NewRequest(http.MethodPost, "/api/devices", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/devices", bytes.NewReader(body))
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{EmployeeID: emp.ID, Role: model.RoleStaff}))
	rec = httptest.NewRecorder()
	CreateDeviceHandler(db)(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var d model.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, emp.ID, d.RegisteredBy)

	body, _ = json.Marshal(statusRequest{Status: model.DeviceDelivered})
	req = httptest.NewRequest(http.MethodPost, "/api/devices/x/status", bytes.NewReader(body))
	req.SetPathValue("id", "1")
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{EmployeeID: emp.ID, Role: model.RoleStaff}))
	rec = httptest.NewRecorder()
	ChangeStatusHandler(db)(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
