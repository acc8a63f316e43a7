package shell

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/thokoanats/luct-reporting-web/internal/models"
	appErrors "github.com/thokoanats/luct-reporting-web/pkg/errors"
	"github.com/thokoanats/luct-reporting-web/pkg/kvstore"
	"github.com/thokoanats/luct-reporting-web/pkg/timer"
)

// Page identifies one of the named views the shell can display.
type Page string

const (
	PageLogin      Page = "login"
	PageRegister   Page = "register"
	PageDashboard  Page = "dashboard"
	PageReports    Page = "reports"
	PageNewReport  Page = "newReport"
	PageClasses    Page = "classes"
	PageMonitoring Page = "monitoring"
	PageRating     Page = "rating"
	PageOther      Page = "other"
)

// Gateway is the backend capability surface the shell consumes.
type Gateway interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) error
	Logout(ctx context.Context) error
	ListReports(ctx context.Context, search string) ([]models.Report, error)
	CreateReport(ctx context.Context, draft models.ReportDraft) (*models.Report, error)
	AddFeedback(ctx context.Context, id models.ID, req models.FeedbackRequest) error
	ExportExcel(ctx context.Context) (string, error)
	ListClasses(ctx context.Context) ([]models.Class, error)
	SubmitRating(ctx context.Context, req models.RatingRequest) (*models.Rating, error)
	ListRatings(ctx context.Context) ([]models.Rating, error)
	Activities(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error)
	MonitoringStats(ctx context.Context) (*models.MonitoringStats, error)
}

// RatingForm is the transient rating submission state.
type RatingForm struct {
	SelectedReport models.ID
	Stars          int
	Comment        string
}

// State is the whole of the shell's mutable state. It is owned by exactly
// one Shell and mutated only under its lock.
type State struct {
	Page       Page
	Session    *models.Session
	Reports    []models.Report
	Ratings    []models.Rating
	Classes    []models.Class
	Activities []models.Activity
	Monitoring *models.MonitoringStats
	SearchTerm string
	Draft      models.ReportDraft
	RatingForm RatingForm
	Loading    bool
	Flash      string
	Error      string
}

// Shell drives one user's session through the application's pages. All
// methods are safe for concurrent use; overlapping actions are possible and
// the last write wins, there is no request fencing.
type Shell struct {
	mu       sync.Mutex
	state    State
	gateway  Gateway
	store    kvstore.Store
	debounce *timer.Debouncer
	delay    time.Duration
	validate *validator.Validate
	logger   *zap.Logger
}

// Params groups constructor dependencies.
type Params struct {
	Gateway        Gateway
	Store          kvstore.Store
	SearchDebounce time.Duration
	Logger         *zap.Logger
}

// New constructs a Shell on the login page with a default draft.
func New(params Params) *Shell {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	delay := params.SearchDebounce
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	store := params.Store
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	return &Shell{
		state: State{
			Page:  PageLogin,
			Draft: models.NewReportDraft(),
		},
		gateway:  params.Gateway,
		store:    store,
		debounce: timer.NewDebouncer(),
		delay:    delay,
		validate: validator.New(),
		logger:   logger,
	}
}

// Restore attempts to rebuild the session from the durable store. A
// malformed stored user clears both keys and leaves the shell on the login
// page; absence is not an error.
func (s *Shell) Restore(ctx context.Context) {
	userJSON, ok, err := s.store.Get(ctx, kvstore.KeyUser)
	if err != nil || !ok {
		return
	}
	token, _, err := s.store.Get(ctx, kvstore.KeyToken)
	if err != nil {
		return
	}

	var user models.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		_ = s.store.Delete(ctx, kvstore.KeyUser)
		_ = s.store.Delete(ctx, kvstore.KeyToken)
		s.logger.Warn("discarded corrupt stored session", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Session = &models.Session{User: user, Token: token}
	s.state.Page = PageDashboard
}

// Login authenticates and lands on the dashboard. On failure the page is
// unchanged and the error message is surfaced.
func (s *Shell) Login(ctx context.Context, req models.LoginRequest) error {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.gateway.Login(ctx, req)
	if err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Session = &models.Session{User: resp.User, Token: resp.Token}
	s.state.Page = PageDashboard
	return nil
}

// ShowRegister flips to the registration view. Pure local transition.
func (s *Shell) ShowRegister() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Session == nil {
		s.state.Page = PageRegister
	}
}

// ShowLogin flips back to the login view. Pure local transition.
func (s *Shell) ShowLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Session == nil {
		s.state.Page = PageLogin
	}
}

// Register validates the form locally before any network call: password
// confirmation must match and the password must be at least 6 characters.
func (s *Shell) Register(ctx context.Context, req models.RegisterRequest) error {
	if req.Password != req.ConfirmPassword {
		err := appErrors.Clone(appErrors.ErrPasswordMismatch, "")
		s.fail(err)
		return err
	}
	if len(req.Password) < 6 {
		err := appErrors.Clone(appErrors.ErrPasswordTooShort, "")
		s.fail(err)
		return err
	}
	if err := s.validate.Struct(req); err != nil {
		vErr := appErrors.Wrap(err, appErrors.KindValidation, "Please fill in all required fields")
		s.fail(vErr)
		return vErr
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.gateway.Register(ctx, req); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Page = PageLogin
	s.state.Flash = "Registration successful! Please login."
	return nil
}

// Logout clears the local session and every cached collection. No network
// call beyond the gateway's local key clearing.
func (s *Shell) Logout(ctx context.Context) {
	s.debounce.Cancel()
	if err := s.gateway.Logout(ctx); err != nil {
		s.logger.Warn("session clear failed", zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{
		Page:  PageLogin,
		Draft: models.NewReportDraft(),
	}
}

// Navigate switches pages and performs the page-entry fetches.
func (s *Shell) Navigate(ctx context.Context, page Page) {
	s.mu.Lock()
	if s.state.Session == nil {
		s.mu.Unlock()
		return
	}
	s.state.Page = page
	s.mu.Unlock()

	// A page entry fetches fresh data below; any keystroke-debounced
	// refetch still pending is superseded.
	s.debounce.Cancel()

	switch page {
	case PageDashboard, PageReports:
		s.refreshReports(ctx)
	case PageRating:
		// The submit selector lists reports, so keep both collections fresh.
		s.refreshReports(ctx)
		s.refreshRatings(ctx)
	case PageClasses:
		s.refreshClasses(ctx)
	case PageMonitoring:
		s.refreshMonitoring(ctx)
	}
}

// SetSearchTerm records the term and, while the reports page is active,
// debounces a refetch: each keystroke cancels the pending fetch and
// restarts the timer. In-flight fetches are never cancelled.
func (s *Shell) SetSearchTerm(term string) {
	s.mu.Lock()
	s.state.SearchTerm = term
	onReports := s.state.Page == PageReports
	s.mu.Unlock()

	if !onReports {
		return
	}
	s.debounce.Arm(s.delay, func() {
		s.refreshReports(context.Background())
	})
}

// SubmitReport validates and creates the draft. On success the draft resets
// to defaults, the shell navigates to the reports page and refetches; on
// failure the draft is kept intact.
func (s *Shell) SubmitReport(ctx context.Context, draft models.ReportDraft) error {
	s.mu.Lock()
	s.state.Draft = draft
	s.mu.Unlock()

	if err := s.validate.Struct(draft); err != nil {
		vErr := appErrors.Wrap(err, appErrors.KindValidation, "Please fill in all required fields")
		s.fail(vErr)
		return vErr
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if _, err := s.gateway.CreateReport(ctx, draft); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.state.Flash = "Report submitted successfully!"
	s.state.Draft = models.NewReportDraft()
	s.state.Page = PageReports
	s.mu.Unlock()

	s.refreshReports(ctx)
	return nil
}

// Approve moves a pending report to approved with fixed feedback. Only
// principal lecturers may moderate, and only pending reports.
func (s *Shell) Approve(ctx context.Context, id models.ID) error {
	if err := s.canModerate(id); err != nil {
		s.fail(err)
		return err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	req := models.FeedbackRequest{Feedback: "Approved", Status: models.StatusApproved}
	if err := s.gateway.AddFeedback(ctx, id, req); err != nil {
		s.fail(err)
		return err
	}

	s.flash("Report approved!")
	s.refreshReports(ctx)
	return nil
}

// Reject moves a pending report to rejected with a free-text reason. An
// empty or cancelled reason aborts before any network call.
func (s *Shell) Reject(ctx context.Context, id models.ID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return appErrors.New(appErrors.KindValidation, "rejection reason required")
	}
	if err := s.canModerate(id); err != nil {
		s.fail(err)
		return err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	req := models.FeedbackRequest{Feedback: reason, Status: models.StatusRejected}
	if err := s.gateway.AddFeedback(ctx, id, req); err != nil {
		s.fail(err)
		return err
	}

	s.flash("Report rejected!")
	s.refreshReports(ctx)
	return nil
}

// SubmitRating requires a selected report and a star value in 1..5; missing
// either aborts locally without a network call. Success resets the rating
// form and refetches the ratings collection.
func (s *Shell) SubmitRating(ctx context.Context, form RatingForm) error {
	s.mu.Lock()
	s.state.RatingForm = form
	s.mu.Unlock()

	if form.SelectedReport == "" || form.Stars < 1 || form.Stars > 5 {
		err := appErrors.Clone(appErrors.ErrRatingIncomplete, "")
		s.fail(err)
		return err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	req := models.RatingRequest{
		ReportID: form.SelectedReport,
		Rating:   form.Stars,
		Comment:  form.Comment,
	}
	if _, err := s.gateway.SubmitRating(ctx, req); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.state.Flash = "Rating submitted successfully!"
	s.state.RatingForm = RatingForm{}
	s.mu.Unlock()

	s.refreshRatings(ctx)
	return nil
}

// Export triggers the backend spreadsheet export. Success or failure, the
// only state change besides messages is the loading flag.
func (s *Shell) Export(ctx context.Context) (string, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	path, err := s.gateway.ExportExcel(ctx)
	if err != nil {
		s.fail(err)
		return "", err
	}
	s.flash("Exported to " + path)
	return path, nil
}

// View builds the render model for the current state. Flash and error
// messages are read-once: building the view consumes them.
func (s *Shell) View() ViewModel {
	s.mu.Lock()
	state := s.state
	s.state.Flash = ""
	s.state.Error = ""
	s.mu.Unlock()
	return Build(state)
}

// Snapshot returns a copy of the current state without consuming messages.
func (s *Shell) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SearchPending reports whether a debounced refetch is armed.
func (s *Shell) SearchPending() bool {
	return s.debounce.Pending()
}

// Close cancels any pending debounce work.
func (s *Shell) Close() {
	s.debounce.Cancel()
}

func (s *Shell) refreshReports(ctx context.Context) {
	s.mu.Lock()
	if s.state.Session == nil {
		s.mu.Unlock()
		return
	}
	term := s.state.SearchTerm
	s.mu.Unlock()

	s.setLoading(true)
	defer s.setLoading(false)

	reports, err := s.gateway.ListReports(ctx, term)
	if err != nil {
		s.logger.Warn("report fetch failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.state.Reports = reports
	s.mu.Unlock()
}

func (s *Shell) refreshRatings(ctx context.Context) {
	ratings, err := s.gateway.ListRatings(ctx)
	if err != nil {
		s.logger.Warn("rating fetch failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.state.Ratings = ratings
	s.mu.Unlock()
}

func (s *Shell) refreshClasses(ctx context.Context) {
	classes, err := s.gateway.ListClasses(ctx)
	if err != nil {
		// The classes endpoint is optional backend-side; fall back to the
		// static roster so the page still renders.
		s.logger.Warn("class fetch failed, using fallback", zap.Error(err))
		classes = fallbackClasses()
	}
	s.mu.Lock()
	s.state.Classes = classes
	s.mu.Unlock()
}

func (s *Shell) refreshMonitoring(ctx context.Context) {
	activities, err := s.gateway.Activities(ctx, models.ActivityFilter{})
	if err != nil {
		s.logger.Warn("activity fetch failed, using fallback", zap.Error(err))
		activities = fallbackActivities()
	}
	stats, err := s.gateway.MonitoringStats(ctx)
	if err != nil {
		s.logger.Warn("monitoring stats fetch failed", zap.Error(err))
		stats = nil
	}
	s.mu.Lock()
	s.state.Activities = activities
	s.state.Monitoring = stats
	s.mu.Unlock()
}

// canModerate enforces the role and status gate for approve/reject.
func (s *Shell) canModerate(id models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Session == nil || s.state.Session.User.Role != models.RolePrincipalLecturer {
		return appErrors.New(appErrors.KindValidation, "only principal lecturers can moderate reports")
	}
	for _, report := range s.state.Reports {
		if report.ID == id {
			if report.Status != models.StatusPending {
				return appErrors.New(appErrors.KindValidation, "report is no longer pending")
			}
			return nil
		}
	}
	return appErrors.New(appErrors.KindValidation, "report not found")
}

func (s *Shell) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = v
}

func (s *Shell) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = appErrors.FromError(err).Message
}

func (s *Shell) flash(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Flash = message
}

func fallbackClasses() []models.Class {
	return []models.Class{
		{ID: "1", Name: "DIT 1A", Program: "DIT", Students: 30, Lecturer: "Mr. Thokoana Tsekiso", Room: "MM5"},
		{ID: "2", Name: "DIT 1B", Program: "DIT", Students: 28, Lecturer: "Mr. Teboho Talasi", Room: "MM4"},
	}
}

func fallbackActivities() []models.Activity {
	return []models.Activity{
		{ID: "1", User: "Mr. Thokoana Tsekiso", Action: "Created Report", Course: "Web Application", Time: "2 hours ago", Type: "create"},
		{ID: "2", User: "Mr. Teboho Talasi", Action: "Approved Report", Course: "Java OOP", Time: "3 hours ago", Type: "approve"},
	}
}
