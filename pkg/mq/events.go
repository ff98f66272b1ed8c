package mq

// Routing keys for the audit event feed. Downstream consumers (audit log,
// notification fan-out) bind to these on the events exchange.
const (
	RoutingScheduleCreated        = "schedule.created"
	RoutingScheduleUpdated        = "schedule.updated"
	RoutingScheduleMoved          = "schedule.moved"
	RoutingScheduleDeleted        = "schedule.deleted"
	RoutingMilestoneStatusChanged = "milestone.status_changed"
	RoutingMemoUpserted           = "memo.upserted"
)

type ScheduleEventPayload struct {
	ScheduleID   int64  `json:"schedule_id"`
	Title        string `json:"title,omitempty"`
	ScheduleDate string `json:"schedule_date,omitempty"`
	Type         string `json:"type,omitempty"`
}

type MilestoneStatusPayload struct {
	MilestoneID int64  `json:"milestone_id"`
	ProjectID   int64  `json:"project_id"`
	From        string `json:"from"`
	To          string `json:"to"`
}

type MemoEventPayload struct {
	Date    string `json:"date"`
	Deleted bool   `json:"deleted,omitempty"`
}
