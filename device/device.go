package device

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"svcadmin/database"
	"svcadmin/model"
	"svcadmin/respond"
)

// NormalizeSerial upper-cases a serial number and drops all whitespace.
func NormalizeSerial(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func Create(db *sqlx.DB, in model.DeviceInput, employeeID int64) (*model.Device, error) {
	in.SerialNumber = NormalizeSerial(in.SerialNumber)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Model = strings.TrimSpace(in.Model)
	in.Category = strings.TrimSpace(in.Category)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.SerialNumber == "" {
		return nil, respond.BadRequest("serialNumber is required")
	}
	if in.CustomerID <= 0 {
		return nil, respond.BadRequest("customerId is required")
	}

	var d *model.Device
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		if _, err := database.GetCustomer(tx, in.CustomerID); err != nil {
			if database.IsNotFound(err) {
				return respond.BadRequest(fmt.Sprintf("customer %d does not exist", in.CustomerID))
			}
			return err
		}
		var err error
		d, err = database.CreateDeviceInTx(tx, in, employeeID)
		return err
	})
	return d, err
}

func Get(db *sqlx.DB, id int64) (*model.DeviceDetail, error) {
	d, err := database.GetDevice(db, id)
	if err != nil {
		return nil, err
	}
	events, err := database.GetDeviceEvents(db, id)
	if err != nil {
		return nil, err
	}
	return &model.DeviceDetail{Device: *d, Events: events}, nil
}

// ChangeStatus moves a device along its lifecycle and records the event.
// A transition the lifecycle does not allow, or one that loses a race with
// another change, is a conflict.
func ChangeStatus(db *sqlx.DB, id int64, to model.DeviceStatus, employeeID int64, note string) (*model.Device, error) {
	if !to.Valid() {
		return nil, respond.BadRequest(fmt.Sprintf("unknown status %q", to))
	}

	var d *model.Device
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		cur, err := database.GetDevice(tx, id)
		if err != nil {
			return err
		}
		if !cur.Status.CanTransitionTo(to) {
			return respond.Conflict(fmt.Sprintf("cannot move device from %s to %s", cur.Status, to))
		}
		if err := database.UpdateDeviceStatusInTx(tx, id, cur.Status, to, employeeID, strings.TrimSpace(note)); err != nil {
			return err
		}
		d, err = database.GetDevice(tx, id)
		return err
	})
	return d, err
}

func Delete(db *sqlx.DB, id int64) error {
	return database.WithTx(db, func(tx *sqlx.Tx) error {
		if _, err := database.GetDevice(tx, id); err != nil {
			return err
		}
		return database.DeleteDeviceInTx(tx, id)
	})
}
