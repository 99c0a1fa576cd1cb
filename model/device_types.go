package model

type DeviceStatus string

const (
	DeviceReceived  DeviceStatus = "received"
	DeviceInService DeviceStatus = "in_service"
	DeviceReady     DeviceStatus = "ready"
	DeviceDelivered DeviceStatus = "delivered"
)

// deviceTransitions lists the statuses reachable from each status.
// delivered is terminal.
var deviceTransitions = map[DeviceStatus][]DeviceStatus{
	DeviceReceived:  {DeviceInService},
	DeviceInService: {DeviceReady, DeviceReceived},
	DeviceReady:     {DeviceDelivered, DeviceInService},
}

func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceReceived, DeviceInService, DeviceReady, DeviceDelivered:
		return true
	}
	return false
}

// CanTransitionTo reports whether a device may move from s to next.
func (s DeviceStatus) CanTransitionTo(next DeviceStatus) bool {
	for _, allowed := range deviceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Device struct {
	ID           int64        `db:"id" json:"id"`
	CustomerID   int64        `db:"customer_id" json:"customerId"`
	SerialNumber string       `db:"serial_number" json:"serialNumber"`
	Brand        string       `db:"brand" json:"brand"`
	Model        string       `db:"model" json:"model"`
	Category     string       `db:"category" json:"category"`
	Status       DeviceStatus `db:"status" json:"status"`
	RegisteredBy int64        `db:"registered_by" json:"registeredBy"`
	Notes        string       `db:"notes" json:"notes"`
	CreatedAt    string       `db:"created_at" json:"createdAt"`
	UpdatedAt    string       `db:"updated_at" json:"updatedAt"`
}

type DeviceEvent struct {
	ID         int64        `db:"id" json:"id"`
	DeviceID   int64        `db:"device_id" json:"deviceId"`
	FromStatus DeviceStatus `db:"from_status" json:"fromStatus"`
	ToStatus   DeviceStatus `db:"to_status" json:"toStatus"`
	EmployeeID int64        `db:"employee_id" json:"employeeId"`
	Note       string       `db:"note" json:"note"`
	CreatedAt  string       `db:"created_at" json:"createdAt"`
}

type DeviceInput struct {
	CustomerID   int64  `json:"customerId"`
	SerialNumber string `json:"serialNumber"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Category     string `json:"category"`
	Notes        string `json:"notes"`
}

type DeviceFilter struct {
	CustomerID int64
	Status     DeviceStatus
	Query      string
}

// DeviceDetail is a device together with its status history.
type DeviceDetail struct {
	Device
	Events []DeviceEvent `json:"events"`
}
