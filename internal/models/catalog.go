package models

// Trigger types
const (
	TriggerCheckIn            = "CHECK_IN"
	TriggerCheckOut           = "CHECK_OUT"
	TriggerCleaningCompleted  = "CLEANING_COMPLETED"
	TriggerMaintenanceRequest = "MAINTENANCE_REQUEST"
	TriggerRoomServiceOrder   = "ROOM_SERVICE_ORDER"
	TriggerGuestComplaint     = "GUEST_COMPLAINT"
	TriggerLateCheckOut       = "LATE_CHECK_OUT"
)

// Action types
const (
	ActionEmail         = "EMAIL"
	ActionSlack         = "SLACK"
	ActionNotification  = "NOTIFICATION"
	ActionTask          = "TASK"
	ActionDeviceControl = "DEVICE_CONTROL"
)

// ActionType is a catalog entry describing one action kind.
type ActionType struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

var triggerCatalog = []Trigger{
	{Type: TriggerCheckIn, Description: "Guest checks in"},
	{Type: TriggerCheckOut, Description: "Guest checks out"},
	{Type: TriggerCleaningCompleted, Description: "Cleaning completed"},
	{Type: TriggerMaintenanceRequest, Description: "Maintenance requested"},
	{Type: TriggerRoomServiceOrder, Description: "Room service ordered"},
	{Type: TriggerGuestComplaint, Description: "Guest files complaint"},
	{Type: TriggerLateCheckOut, Description: "Late check-out requested"},
}

var actionCatalog = []ActionType{
	{Type: ActionEmail, Description: "Send email"},
	{Type: ActionSlack, Description: "Send Slack notification"},
	{Type: ActionNotification, Description: "Send native notification"},
	{Type: ActionTask, Description: "Create task"},
	{Type: ActionDeviceControl, Description: "Turn on/off device"},
}

// AvailableTriggers returns the trigger catalog. Callers get a copy so the
// catalog itself stays immutable.
func AvailableTriggers() []Trigger {
	out := make([]Trigger, len(triggerCatalog))
	copy(out, triggerCatalog)
	return out
}

func AvailableActions() []ActionType {
	out := make([]ActionType, len(actionCatalog))
	copy(out, actionCatalog)
	return out
}

func IsKnownTriggerType(t string) bool {
	for _, entry := range triggerCatalog {
		if entry.Type == t {
			return true
		}
	}
	return false
}

func IsKnownActionType(t string) bool {
	for _, entry := range actionCatalog {
		if entry.Type == t {
			return true
		}
	}
	return false
}
