// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"svcadmin/database"
	"svcadmin/model"
)

// New returns a migrated in-memory SQLite database closed at test cleanup.
// It holds a single connection so every query sees the same memory store.
func New(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.InitDatabase(db))
	return db
}

func SeedEmployee(t testing.TB, db *sqlx.DB, name string, role model.Role) model.Employee {
	t.Helper()
	var e *model.Employee
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		e, err = database.CreateEmployeeInTx(tx, model.EmployeeInput{
			Name:  name,
			Email: fmt.Sprintf("%s@example.com", name),
			Role:  role,
		})
		return err
	})
	require.NoError(t, err)
	return *e
}

func SeedCustomer(t testing.TB, db *sqlx.DB, name string) model.Customer {
	t.Helper()
	var c *model.Customer
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		c, err = database.CreateCustomerInTx(tx, model.CustomerInput{Name: name, Phone: "555-0100"})
		return err
	})
	require.NoError(t, err)
	return *c
}

func SeedDevice(t testing.TB, db *sqlx.DB, customerID, employeeID int64, serial string) model.Device {
	t.Helper()
	var d *model.Device
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		d, err = database.CreateDeviceInTx(tx, model.DeviceInput{
			CustomerID:   customerID,
			SerialNumber: serial,
			Brand:        "Acme",
			Model:        "X1",
		}, employeeID)
		return err
	})
	require.NoError(t, err)
	return *d
}
