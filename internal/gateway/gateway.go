package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/thokoanats/luct-reporting-web/internal/models"
	"github.com/thokoanats/luct-reporting-web/pkg/config"
	appErrors "github.com/thokoanats/luct-reporting-web/pkg/errors"
	"github.com/thokoanats/luct-reporting-web/pkg/kvstore"
)

// ExportSaver persists a fetched export file and returns its location.
type ExportSaver interface {
	Save(filename string, data []byte) (string, error)
}

// MetricsRecorder observes backend call outcomes. Implemented by the
// metrics service; nil disables recording.
type MetricsRecorder interface {
	ObserveBackendRequest(op string, status int, duration time.Duration)
}

// Client is a thin wrapper over the reporting backend's REST API. It owns
// bearer-credential attachment, JSON codec work and uniform error
// surfacing. No retries, no caching.
type Client struct {
	baseURL string
	http    *http.Client
	store   kvstore.Store
	saver   ExportSaver
	metrics MetricsRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// Params groups constructor dependencies.
type Params struct {
	Config  config.BackendConfig
	Store   kvstore.Store
	Saver   ExportSaver
	Metrics MetricsRecorder
	Logger  *zap.Logger
}

// New constructs a Client with sane defaults.
func New(params Params) *Client {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := params.Config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	store := params.Store
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	return &Client{
		baseURL: params.Config.BaseURL,
		http:    &http.Client{Timeout: timeout},
		store:   store,
		saver:   params.Saver,
		metrics: params.Metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Login authenticates and, on success, writes the returned token and user
// object into the durable store. Both keys are always written together.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token != "" {
		userJSON, err := json.Marshal(resp.User)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
		}
		if err := c.store.Set(ctx, kvstore.KeyToken, resp.Token); err != nil {
			return nil, appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
		}
		if err := c.store.Set(ctx, kvstore.KeyUser, string(userJSON)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
		}
	}
	return &resp, nil
}

// Register creates a new account. It performs no local persistence; the
// caller returns the user to the login view on success.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.do(ctx, "register", http.MethodPost, "/auth/register", nil, req, nil)
}

// Logout clears the durable session keys. Purely local; no network call.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.store.Delete(ctx, kvstore.KeyToken); err != nil {
		return err
	}
	return c.store.Delete(ctx, kvstore.KeyUser)
}

// ListReports fetches reports, optionally server-filtered by search term.
// The query parameter is omitted entirely when the term is empty.
func (c *Client) ListReports(ctx context.Context, search string) ([]models.Report, error) {
	var query url.Values
	if search != "" {
		query = url.Values{"search": []string{search}}
	}
	var reports []models.Report
	if err := c.do(ctx, "list_reports", http.MethodGet, "/reports", query, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetReport fetches one report by id.
func (c *Client) GetReport(ctx context.Context, id models.ID) (*models.Report, error) {
	var report models.Report
	if err := c.do(ctx, "get_report", http.MethodGet, "/reports/"+url.PathEscape(id.String()), nil, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// CreateReport submits a report draft. Status defaults server-side to pending.
func (c *Client) CreateReport(ctx context.Context, draft models.ReportDraft) (*models.Report, error) {
	var report models.Report
	if err := c.do(ctx, "create_report", http.MethodPost, "/reports", nil, draft, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateReport replaces a report's submittable fields.
func (c *Client) UpdateReport(ctx context.Context, id models.ID, draft models.ReportDraft) (*models.Report, error) {
	var report models.Report
	if err := c.do(ctx, "update_report", http.MethodPut, "/reports/"+url.PathEscape(id.String()), nil, draft, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteReport removes a report.
func (c *Client) DeleteReport(ctx context.Context, id models.ID) error {
	return c.do(ctx, "delete_report", http.MethodDelete, "/reports/"+url.PathEscape(id.String()), nil, nil, nil)
}

// AddFeedback attaches moderation feedback and a new status to a report.
func (c *Client) AddFeedback(ctx context.Context, id models.ID, req models.FeedbackRequest) error {
	return c.do(ctx, "add_feedback", http.MethodPost, "/reports/"+url.PathEscape(id.String())+"/feedback", nil, req, nil)
}

// ExportExcel fetches the backend-rendered spreadsheet as a blob and saves
// it locally with a date-derived filename. Any non-success status fails
// with a fixed export error.
func (c *Client) ExportExcel(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reports/export/excel", nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
	}
	c.attachToken(ctx, req)

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe("export_excel", 0, start)
		return "", appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
	}
	defer resp.Body.Close()
	c.observe("export_excel", resp.StatusCode, start)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", appErrors.Clone(appErrors.ErrExportFailed, "")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
	}

	filename := fmt.Sprintf("reports_%s.xlsx", c.now().UTC().Format("2006-01-02"))
	if c.saver == nil {
		return filename, nil
	}
	path, err := c.saver.Save(filename, data)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
	}
	return path, nil
}

// ListClasses fetches all classes.
func (c *Client) ListClasses(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if err := c.do(ctx, "list_classes", http.MethodGet, "/classes", nil, nil, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// GetClass fetches one class by id.
func (c *Client) GetClass(ctx context.Context, id models.ID) (*models.Class, error) {
	var class models.Class
	if err := c.do(ctx, "get_class", http.MethodGet, "/classes/"+url.PathEscape(id.String()), nil, nil, &class); err != nil {
		return nil, err
	}
	return &class, nil
}

// SubmitRating creates a rating for a report.
func (c *Client) SubmitRating(ctx context.Context, req models.RatingRequest) (*models.Rating, error) {
	var rating models.Rating
	if err := c.do(ctx, "submit_rating", http.MethodPost, "/ratings", nil, req, &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}

// ListRatings fetches the full ratings collection.
func (c *Client) ListRatings(ctx context.Context) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := c.do(ctx, "list_ratings", http.MethodGet, "/ratings", nil, nil, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

// ReportRatings fetches the ratings attached to one report.
func (c *Client) ReportRatings(ctx context.Context, reportID models.ID) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := c.do(ctx, "report_ratings", http.MethodGet, "/ratings/"+url.PathEscape(reportID.String()), nil, nil, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

// AverageRating fetches the backend aggregate for one report.
func (c *Client) AverageRating(ctx context.Context, reportID models.ID) (*models.AverageRating, error) {
	var avg models.AverageRating
	if err := c.do(ctx, "average_rating", http.MethodGet, "/ratings/"+url.PathEscape(reportID.String())+"/average", nil, nil, &avg); err != nil {
		return nil, err
	}
	return &avg, nil
}

// Activities fetches the activity log, optionally filtered.
func (c *Client) Activities(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	query := url.Values{}
	if filter.Type != "" {
		query.Set("type", filter.Type)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if len(query) == 0 {
		query = nil
	}
	var activities []models.Activity
	if err := c.do(ctx, "activities", http.MethodGet, "/monitoring/activities", query, nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// MonitoringStats fetches the monitoring aggregate.
func (c *Client) MonitoringStats(ctx context.Context) (*models.MonitoringStats, error) {
	var stats models.MonitoringStats
	if err := c.do(ctx, "monitoring_stats", http.MethodGet, "/monitoring/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// DashboardStats fetches the dashboard aggregate.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.do(ctx, "dashboard_stats", http.MethodGet, "/dashboard/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health probes backend liveness.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
	}
	req.Header.Set("Content-Type", "application/json")
	c.attachToken(ctx, req)

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, 0, start)
		c.logger.Warn("backend request failed", zap.String("op", op), zap.Error(err))
		return appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
	}
	defer resp.Body.Close()
	c.observe(op, resp.StatusCode, start)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := appErrors.ErrAPIRequestFailed.Message
		var envelope errorBody
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != "" {
			message = envelope.Error
		}
		return &appErrors.Error{Kind: appErrors.KindAPI, Message: message, Status: resp.StatusCode}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return appErrors.Wrap(err, appErrors.KindTransport, appErrors.ErrNetwork.Message)
	}
	return nil
}

// attachToken adds the bearer header when the durable store holds a token.
// Store read failures degrade to an unauthenticated request.
func (c *Client) attachToken(ctx context.Context, req *http.Request) {
	token, ok, err := c.store.Get(ctx, kvstore.KeyToken)
	if err != nil {
		c.logger.Warn("token read failed", zap.Error(err))
		return
	}
	if ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) observe(op string, status int, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveBackendRequest(op, status, c.now().Sub(start))
}
