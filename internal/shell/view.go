package shell

import (
	"fmt"
	"strings"

	"github.com/thokoanats/luct-reporting-web/internal/models"
)

// MenuItem is one sidebar entry.
type MenuItem struct {
	Page  Page
	Label string
}

// StatCard is one dashboard counter.
type StatCard struct {
	Label string
	Value string
	Tone  string
}

// ReportView is a report plus its render-time affordances.
type ReportView struct {
	models.Report
	CanModerate bool
}

// RatingView is a rating joined to its report's course name. When the
// referenced report is not loaded, the rating's own denormalized course
// name is used, falling back to a placeholder.
type RatingView struct {
	models.Rating
	CourseName  string
	StarsFilled string
	StarsEmpty  string
}

// ClassOption labels a report in the rating selector.
type ClassOption struct {
	ID    models.ID
	Label string
}

// ViewModel is a pure description of what to render. It is derived entirely
// from State so the branching stays testable without a renderer.
type ViewModel struct {
	Page          Page
	Authenticated bool
	User          models.User
	Menu          []MenuItem
	Stats         []StatCard
	Reports       []ReportView
	RecentReports []ReportView
	Ratings       []RatingView
	RatingStats   []StatCard
	ReportOptions []ClassOption
	Classes       []models.Class
	ClassStats    []StatCard
	Activities    []models.Activity
	ActivityStats []StatCard
	AverageRating string
	StarChoices   []int
	SearchTerm    string
	Draft         models.ReportDraft
	RatingForm    RatingForm
	Loading       bool
	Flash         string
	Error         string
	CanCreate     bool
}

// Build maps {role, page, loaded data} to a view description.
func Build(s State) ViewModel {
	vm := ViewModel{
		Page:       s.Page,
		SearchTerm: s.SearchTerm,
		Draft:      s.Draft,
		RatingForm: s.RatingForm,
		Loading:    s.Loading,
		Flash:      s.Flash,
		Error:      s.Error,
	}

	if s.Session == nil {
		if s.Page != PageRegister {
			vm.Page = PageLogin
		}
		return vm
	}

	user := s.Session.User
	vm.Authenticated = true
	vm.User = user
	vm.Menu = menuFor(user.Role)
	vm.CanCreate = user.Role == models.RoleLecturer

	filtered := FilterReports(s.Reports, s.SearchTerm)
	vm.Reports = reportViews(filtered, user.Role)
	vm.RecentReports = vm.Reports
	if len(vm.RecentReports) > 5 {
		vm.RecentReports = vm.RecentReports[:5]
	}

	total, approved, pending, rejected := CountByStatus(s.Reports)
	vm.Stats = []StatCard{
		{Label: "Total Reports", Value: fmt.Sprintf("%d", total), Tone: "blue"},
		{Label: "Approved", Value: fmt.Sprintf("%d", approved), Tone: "green"},
		{Label: "Pending", Value: fmt.Sprintf("%d", pending), Tone: "yellow"},
		{Label: "Rejected", Value: fmt.Sprintf("%d", rejected), Tone: "red"},
	}

	vm.Ratings = ratingViews(s.Ratings, s.Reports)
	vm.AverageRating = averageRating(s.Ratings)
	vm.RatingStats = ratingStats(s.Ratings, len(s.Reports))
	vm.StarChoices = []int{1, 2, 3, 4, 5}
	vm.ReportOptions = reportOptions(s.Reports)

	vm.Classes = s.Classes
	vm.ClassStats = classStats(s.Classes)

	vm.Activities = s.Activities
	vm.ActivityStats = activityStats(s.Activities, s.Monitoring)

	return vm
}

// FilterReports applies the case-insensitive substring match over course
// name, course code and lecturer name. Missing fields are treated as empty;
// an empty term returns the input unchanged.
func FilterReports(reports []models.Report, term string) []models.Report {
	if term == "" {
		return reports
	}
	needle := strings.ToLower(term)
	filtered := make([]models.Report, 0, len(reports))
	for _, report := range reports {
		if strings.Contains(strings.ToLower(report.CourseName), needle) ||
			strings.Contains(strings.ToLower(report.CourseCode), needle) ||
			strings.Contains(strings.ToLower(report.LecturerName), needle) {
			filtered = append(filtered, report)
		}
	}
	return filtered
}

// CountByStatus tallies the loaded reports by workflow status. Only exact
// status values count; a report with an unknown status appears in the total
// but in none of the per-status buckets.
func CountByStatus(reports []models.Report) (total, approved, pending, rejected int) {
	total = len(reports)
	for _, report := range reports {
		switch report.Status {
		case models.StatusApproved:
			approved++
		case models.StatusPending:
			pending++
		case models.StatusRejected:
			rejected++
		}
	}
	return total, approved, pending, rejected
}

func menuFor(role models.UserRole) []MenuItem {
	items := []MenuItem{
		{Page: PageDashboard, Label: "Dashboard"},
		{Page: PageReports, Label: "Reports"},
	}
	if role == models.RoleLecturer {
		items = append(items, MenuItem{Page: PageNewReport, Label: "New Report"})
	}
	items = append(items,
		MenuItem{Page: PageClasses, Label: "Classes"},
		MenuItem{Page: PageMonitoring, Label: "Monitoring"},
		MenuItem{Page: PageRating, Label: "Rating"},
	)
	return items
}

func reportViews(reports []models.Report, role models.UserRole) []ReportView {
	views := make([]ReportView, 0, len(reports))
	for _, report := range reports {
		views = append(views, ReportView{
			Report:      report,
			CanModerate: role == models.RolePrincipalLecturer && report.Status == models.StatusPending,
		})
	}
	return views
}

func ratingViews(ratings []models.Rating, reports []models.Report) []RatingView {
	byID := make(map[models.ID]models.Report, len(reports))
	for _, report := range reports {
		byID[report.ID] = report
	}
	views := make([]RatingView, 0, len(ratings))
	for _, rating := range ratings {
		course := rating.CourseName
		if report, ok := byID[rating.ReportID]; ok {
			course = report.CourseName
		}
		if course == "" {
			course = "Unknown Course"
		}
		stars := rating.Rating
		if stars < 0 {
			stars = 0
		}
		if stars > 5 {
			stars = 5
		}
		views = append(views, RatingView{
			Rating:      rating,
			CourseName:  course,
			StarsFilled: strings.Repeat("★", stars),
			StarsEmpty:  strings.Repeat("☆", 5-stars),
		})
	}
	return views
}

func reportOptions(reports []models.Report) []ClassOption {
	options := make([]ClassOption, 0, len(reports))
	for _, report := range reports {
		options = append(options, ClassOption{
			ID:    report.ID,
			Label: fmt.Sprintf("%s - %s (%s)", report.CourseName, report.Week, report.Date),
		})
	}
	return options
}

func averageRating(ratings []models.Rating) string {
	if len(ratings) == 0 {
		return "0"
	}
	sum := 0
	for _, rating := range ratings {
		sum += rating.Rating
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(ratings)))
}

func ratingStats(ratings []models.Rating, reportCount int) []StatCard {
	positive := 0
	for _, rating := range ratings {
		if rating.Rating >= 4 {
			positive++
		}
	}
	return []StatCard{
		{Label: "Average Rating", Value: averageRating(ratings), Tone: "yellow"},
		{Label: "Total Ratings", Value: fmt.Sprintf("%d", len(ratings)), Tone: "blue"},
		{Label: "Positive", Value: fmt.Sprintf("%d", positive), Tone: "green"},
		{Label: "Reports", Value: fmt.Sprintf("%d", reportCount), Tone: "red"},
	}
}

func classStats(classes []models.Class) []StatCard {
	students := 0
	for _, class := range classes {
		students += class.Students
	}
	avg := 0
	if len(classes) > 0 {
		avg = (students + len(classes)/2) / len(classes)
	}
	return []StatCard{
		{Label: "Total Classes", Value: fmt.Sprintf("%d", len(classes)), Tone: "blue"},
		{Label: "Total Students", Value: fmt.Sprintf("%d", students), Tone: "green"},
		{Label: "Avg Class Size", Value: fmt.Sprintf("%d", avg), Tone: "yellow"},
	}
}

func activityStats(activities []models.Activity, stats *models.MonitoringStats) []StatCard {
	total := len(activities)
	approvals, creates, ratings := 0, 0, 0
	for _, activity := range activities {
		switch activity.Type {
		case "approve":
			approvals++
		case "create":
			creates++
		case "rating":
			ratings++
		}
	}
	if stats != nil {
		total = stats.TotalActivities
		approvals = stats.Approvals
		creates = stats.NewReports
		ratings = stats.Ratings
	}
	return []StatCard{
		{Label: "Total Activities", Value: fmt.Sprintf("%d", total), Tone: "blue"},
		{Label: "Approvals", Value: fmt.Sprintf("%d", approvals), Tone: "green"},
		{Label: "New Reports", Value: fmt.Sprintf("%d", creates), Tone: "yellow"},
		{Label: "Ratings", Value: fmt.Sprintf("%d", ratings), Tone: "red"},
	}
}
