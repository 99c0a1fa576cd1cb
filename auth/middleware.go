package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"svcadmin/database"
	"svcadmin/model"
	"svcadmin/respond"
)

type principalKey struct{}

// Principal is the verified caller of a request.
type Principal struct {
	EmployeeID int64
	Code       string
	Name       string
	Role       model.Role
}

func (p Principal) Is(roles ...model.Role) bool {
	return slices.Contains(roles, p.Role)
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// EmployeeLookup loads the employee a token refers to.
type EmployeeLookup func(id int64) (*model.Employee, error)

// Authenticate verifies the bearer token and attaches the principal. The
// employee must exist, be active and still hold the role in the token.
func (v *Verifier) Authenticate(lookup EmployeeLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				respond.Message(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := v.Verify(strings.TrimSpace(raw))
			if err != nil {
				zap.S().Infof("rejected token: %v", err)
				respond.Message(w, http.StatusUnauthorized, "invalid token")
				return
			}

			emp, err := lookup(claims.EmployeeID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					respond.Message(w, http.StatusUnauthorized, "unknown employee")
					return
				}
				respond.Error(w, err)
				return
			}
			if !emp.Active {
				respond.Message(w, http.StatusForbidden, "employee is deactivated")
				return
			}
			if emp.Role != claims.Role {
				respond.Message(w, http.StatusUnauthorized, "token role is stale")
				return
			}

			p := Principal{EmployeeID: emp.ID, Code: emp.Code, Name: emp.Name, Role: emp.Role}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// Require lets the request through only when the principal holds one of roles.
func Require(roles ...model.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				respond.Message(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !p.Is(roles...) {
				respond.Message(w, http.StatusForbidden, "insufficient role")
				return
			}
			next(w, r)
		}
	}
}

// Any is the role set every authenticated employee belongs to.
var Any = []model.Role{model.RoleAdmin, model.RoleManager, model.RoleStaff}

// Managers is the role set allowed to run the shop floor.
var Managers = []model.Role{model.RoleAdmin, model.RoleManager}

// Caller returns the request's principal, or a 401 error when the request
// did not pass through Authenticate.
func Caller(r *http.Request) (Principal, error) {
	p, ok := FromContext(r.Context())
	if !ok {
		return Principal{}, &respond.StatusError{Status: http.StatusUnauthorized, Message: "not authenticated"}
	}
	return p, nil
}
