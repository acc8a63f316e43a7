package models

// Rating is a star evaluation attached to a report. Immutable once created
// from the client's perspective. CourseName is a denormalized fallback used
// when the referenced report is not in the loaded collection.
type Rating struct {
	ID         ID     `json:"id"`
	ReportID   ID     `json:"report_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	CourseName string `json:"course_name,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// RatingRequest submits a new rating for a report.
type RatingRequest struct {
	ReportID ID     `json:"reportId"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comment  string `json:"comment,omitempty"`
}

// AverageRating is the backend's aggregate for one report.
type AverageRating struct {
	ReportID ID      `json:"report_id"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}
