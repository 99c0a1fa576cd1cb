package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svcadmin/database"
	"svcadmin/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret, "identity", "svcadmin")
	require.NoError(t, err)
	return v
}

func TestNewVerifierRejectsShortSecret(t *testing.T) {
	_, err := NewVerifier("short", "", "")
	require.Error(t, err)
}

func TestMintAndVerify(t *testing.T) {
	v := newTestVerifier(t)
	tok, err := v.Mint(model.Employee{ID: 7, Role: model.RoleManager}, time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.EmployeeID)
	assert.Equal(t, model.RoleManager, claims.Role)
	assert.Equal(t, "7", claims.Subject)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := newTestVerifier(t)
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := v.Mint(model.Employee{ID: 1, Role: model.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	v.now = time.Now
	_, err = v.Verify(tok)
	require.Error(t, err)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	other, err := NewVerifier(testSecret, "identity", "someone-else")
	require.NoError(t, err)
	tok, err := other.Mint(model.Employee{ID: 1, Role: model.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, err = newTestVerifier(t).Verify(tok)
	require.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	other, err := NewVerifier("ffffffffffffffffffffffffffffffff", "identity", "svcadmin")
	require.NoError(t, err)
	tok, err := other.Mint(model.Employee{ID: 1, Role: model.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, err = newTestVerifier(t).Verify(tok)
	require.Error(t, err)
}

func TestAuthenticateAndRequire(t *testing.T) {
	v := newTestVerifier(t)
	employees := map[int64]*model.Employee{
		1: {ID: 1, Code: "EM00001", Role: model.RoleAdmin, Active: true},
		2: {ID: 2, Code: "EM00002", Role: model.RoleStaff, Active: true},
		3: {ID: 3, Code: "EM00003", Role: model.RoleStaff, Active: false},
	}
	lookup := func(id int64) (*model.Employee, error) {
		if e, ok := employees[id]; ok {
			return e, nil
		}
		return nil, database.ErrNotFound
	}

	handler := v.Authenticate(lookup)(Require(Managers...)(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(p.Code))
	}))

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/stats/dashboard", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}
	bearer := func(e model.Employee) string {
		tok, err := v.Mint(e, time.Hour)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	rec := do(bearer(*employees[1]))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EM00001", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, do(bearer(*employees[2])).Code)
	assert.Equal(t, http.StatusForbidden, do(bearer(*employees[3])).Code)
	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do(bearer(model.Employee{ID: 99, Role: model.RoleAdmin})).Code)
	assert.Equal(t, http.StatusUnauthorized, do(bearer(model.Employee{ID: 2, Role: model.RoleAdmin})).Code)
}
