package models

// ReportStatus is the approval workflow state of a report.
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusApproved ReportStatus = "approved"
	StatusRejected ReportStatus = "rejected"
)

// Report is a lecturer's weekly class log. The authoritative copy lives in
// the backend; the client holds a read-mostly list fetched per page visit.
type Report struct {
	ID                 ID           `json:"id"`
	Faculty            string       `json:"faculty"`
	ClassName          string       `json:"class_name"`
	Week               string       `json:"week"`
	Date               string       `json:"date"`
	CourseName         string       `json:"course_name"`
	CourseCode         string       `json:"course_code"`
	LecturerName       string       `json:"lecturer_name"`
	StudentsPresent    int          `json:"students_present"`
	StudentsRegistered int          `json:"students_registered"`
	Venue              string       `json:"venue"`
	Time               string       `json:"time"`
	Topic              string       `json:"topic"`
	LearningOutcomes   string       `json:"learning_outcomes"`
	Recommendations    string       `json:"recommendations"`
	Status             ReportStatus `json:"status"`
	Feedback           string       `json:"feedback,omitempty"`
	LecturerID         ID           `json:"lecturer_id,omitempty"`
}

// DefaultFaculty and DefaultRegistered seed a fresh report draft.
const (
	DefaultFaculty    = "Faculty of ICT"
	DefaultRegistered = "30"
)

// ReportDraft mirrors the submittable subset of Report. It lives only in
// transient shell state and is reset to defaults after a successful submit.
// Count fields stay strings until the backend parses them, matching the form
// encoding on the wire.
type ReportDraft struct {
	Faculty         string `json:"faculty" form:"faculty" validate:"required"`
	ClassName       string `json:"className" form:"className" validate:"required"`
	Week            string `json:"week" form:"week" validate:"required"`
	Date            string `json:"date" form:"date" validate:"required"`
	CourseName      string `json:"courseName" form:"courseName" validate:"required"`
	CourseCode      string `json:"courseCode" form:"courseCode" validate:"required"`
	LecturerName    string `json:"lecturerName" form:"lecturerName" validate:"required"`
	Present         string `json:"present" form:"present" validate:"required"`
	Registered      string `json:"registered" form:"registered"`
	Venue           string `json:"venue" form:"venue" validate:"required"`
	Time            string `json:"time" form:"time" validate:"required"`
	Topic           string `json:"topic" form:"topic" validate:"required"`
	Outcomes        string `json:"outcomes" form:"outcomes" validate:"required"`
	Recommendations string `json:"recommendations" form:"recommendations" validate:"required"`
}

// NewReportDraft returns the draft in its default state.
func NewReportDraft() ReportDraft {
	return ReportDraft{
		Faculty:    DefaultFaculty,
		Registered: DefaultRegistered,
	}
}

// FeedbackRequest attaches moderation feedback and moves a report's status.
type FeedbackRequest struct {
	Feedback string       `json:"feedback"`
	Status   ReportStatus `json:"status"`
}
