package models

// Class describes a taught class group.
type Class struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Program  string `json:"program"`
	Students int    `json:"students"`
	Lecturer string `json:"lecturer"`
	Room     string `json:"room"`
}

// Activity is one entry in the backend's activity log.
type Activity struct {
	ID     ID     `json:"id"`
	User   string `json:"user"`
	Action string `json:"action"`
	Course string `json:"course"`
	Time   string `json:"time"`
	Type   string `json:"type"`
}

// ActivityFilter narrows the activity log fetch.
type ActivityFilter struct {
	Type  string
	Limit int
}

// MonitoringStats is the backend's monitoring aggregate.
type MonitoringStats struct {
	TotalActivities int `json:"total_activities"`
	Approvals       int `json:"approvals"`
	NewReports      int `json:"new_reports"`
	Ratings         int `json:"ratings"`
}

// DashboardStats is the backend's dashboard aggregate. The dashboard page
// derives its cards from the loaded reports instead; this payload backs the
// dedicated stats endpoint.
type DashboardStats struct {
	TotalReports int `json:"total_reports"`
	Approved     int `json:"approved"`
	Pending      int `json:"pending"`
	Rejected     int `json:"rejected"`
}

// HealthStatus is the backend liveness payload.
type HealthStatus struct {
	Status string `json:"status"`
}
