package database

import (
	"fmt"
	"strings"

	"svcadmin/model"

	"github.com/jmoiron/sqlx"
)

const deviceColumns = `id, customer_id, serial_number, brand, model, category, status, registered_by, notes, created_at, updated_at`

func GetDevices(db DBTX, f model.DeviceFilter) ([]model.Device, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.CustomerID > 0 {
		where = append(where, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(serial_number) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(model) LIKE ?)")
		args = append(args, like, like, like)
	}

	query := "SELECT " + deviceColumns + " FROM devices"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"

	devices := []model.Device{}
	if err := db.Select(&devices, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}
	return devices, nil
}

func GetDevice(db DBTX, id int64) (*model.Device, error) {
	var d model.Device
	q := db.Rebind("SELECT " + deviceColumns + " FROM devices WHERE id = ?")
	if err := db.Get(&d, q, id); err != nil {
		return nil, fmt.Errorf("GetDevice (ID: %d): %w", id, notFound(err))
	}
	return &d, nil
}

func GetDeviceEvents(db DBTX, deviceID int64) ([]model.DeviceEvent, error) {
	events := []model.DeviceEvent{}
	q := db.Rebind(`
		SELECT id, device_id, from_status, to_status, employee_id, note, created_at
		FROM device_events WHERE device_id = ? ORDER BY id`)
	if err := db.Select(&events, q, deviceID); err != nil {
		return nil, fmt.Errorf("failed to get events for device %d: %w", deviceID, err)
	}
	return events, nil
}

func CreateDeviceInTx(tx *sqlx.Tx, in model.DeviceInput, employeeID int64) (*model.Device, error) {
	now := nowStamp()
	var id int64
	q := tx.Rebind(`
		INSERT INTO devices (customer_id, serial_number, brand, model, category, status, registered_by, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := tx.Get(&id, q, in.CustomerID, in.SerialNumber, in.Brand, in.Model, in.Category,
		model.DeviceReceived, employeeID, in.Notes, now, now)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, fmt.Errorf("serial number %s already registered: %w", in.SerialNumber, ErrConflict)
		}
		return nil, fmt.Errorf("CreateDeviceInTx (Serial: %s) failed: %w", in.SerialNumber, err)
	}
	if err := InsertDeviceEventInTx(tx, id, "", model.DeviceReceived, employeeID, "registered"); err != nil {
		return nil, err
	}
	return GetDevice(tx, id)
}

// UpdateDeviceStatusInTx moves the device from `from` to `to`. It reports
// ErrConflict when the device is no longer in `from`.
func UpdateDeviceStatusInTx(tx *sqlx.Tx, id int64, from, to model.DeviceStatus, employeeID int64, note string) error {
	q := tx.Rebind(`UPDATE devices SET status = ?, updated_at = ? WHERE id = ? AND status = ?`)
	res, err := tx.Exec(q, to, nowStamp(), id, from)
	if err != nil {
		return fmt.Errorf("UpdateDeviceStatusInTx (ID: %d) failed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("device %d is no longer %s: %w", id, from, ErrConflict)
	}
	return InsertDeviceEventInTx(tx, id, from, to, employeeID, note)
}

func InsertDeviceEventInTx(tx *sqlx.Tx, deviceID int64, from, to model.DeviceStatus, employeeID int64, note string) error {
	q := tx.Rebind(`
		INSERT INTO device_events (device_id, from_status, to_status, employee_id, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := tx.Exec(q, deviceID, from, to, employeeID, note, nowStamp()); err != nil {
		return fmt.Errorf("failed to record device event for %d: %w", deviceID, err)
	}
	return nil
}

// DeleteDeviceInTx removes a device that is still in the received state and
// is not attached to any coupon.
func DeleteDeviceInTx(tx *sqlx.Tx, id int64) error {
	var refs int
	if err := tx.Get(&refs, tx.Rebind(`SELECT COUNT(*) FROM coupons WHERE device_id = ?`), id); err != nil {
		return fmt.Errorf("DeleteDeviceInTx (ID: %d) reference check failed: %w", id, err)
	}
	if refs > 0 {
		return fmt.Errorf("device %d is referenced by coupons: %w", id, ErrConflict)
	}

	if _, err := tx.Exec(tx.Rebind(`DELETE FROM device_events WHERE device_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete events for device %d: %w", id, err)
	}
	res, err := tx.Exec(tx.Rebind(`DELETE FROM devices WHERE id = ? AND status = ?`), id, model.DeviceReceived)
	if err != nil {
		return fmt.Errorf("failed to delete device with id %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("device %d is not in received state: %w", id, ErrConflict)
	}
	return nil
}
