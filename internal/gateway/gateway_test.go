package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thokoanats/luct-reporting-web/internal/models"
	"github.com/thokoanats/luct-reporting-web/pkg/config"
	appErrors "github.com/thokoanats/luct-reporting-web/pkg/errors"
	"github.com/thokoanats/luct-reporting-web/pkg/kvstore"
)

type fakeSaver struct {
	filename string
	data     []byte
	err      error
}

func (f *fakeSaver) Save(filename string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.filename = filename
	f.data = data
	return "/downloads/" + filename, nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, kvstore.Store, *fakeSaver) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := kvstore.NewMemoryStore()
	saver := &fakeSaver{}
	client := New(Params{
		Config: config.BackendConfig{BaseURL: server.URL, Timeout: 5 * time.Second},
		Store:  store,
		Saver:  saver,
	})
	return client, store, saver
}

func TestLoginPersistsTokenAndUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@luct.ac.ls", req.Email)

		resp := models.LoginResponse{
			User:  models.User{ID: "7", Name: "Test", Email: req.Email, Role: models.RoleLecturer},
			Token: "jwt-token",
		}
		json.NewEncoder(w).Encode(resp)
	})
	client, store, _ := newTestClient(t, handler)
	ctx := context.Background()

	resp, err := client.Login(ctx, models.LoginRequest{Email: "user@luct.ac.ls", Password: "secret1", Role: models.RoleLecturer})
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", resp.Token)

	token, ok, err := store.Get(ctx, kvstore.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "jwt-token", token)

	userJSON, ok, err := store.Get(ctx, kvstore.KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	var user models.User
	require.NoError(t, json.Unmarshal([]byte(userJSON), &user))
	assert.Equal(t, models.ID("7"), user.ID)
}

func TestLoginNumericUserID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"id":42,"name":"N","email":"n@x","role":"student"},"token":"tok"}`))
	})
	client, _, _ := newTestClient(t, handler)

	resp, err := client.Login(context.Background(), models.LoginRequest{Email: "n@x", Password: "p", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, models.ID("42"), resp.User.ID)
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})
	client, store, _ := newTestClient(t, handler)
	ctx := context.Background()

	_, err := client.ListReports(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)

	require.NoError(t, store.Set(ctx, kvstore.KeyToken, "jwt-token"))
	_, err = client.ListReports(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer jwt-token", gotAuth)
}

func TestListReportsSearchParamOmittedWhenEmpty(t *testing.T) {
	var gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"id":"1","course_name":"Java Programming"}]`))
	})
	client, _, _ := newTestClient(t, handler)
	ctx := context.Background()

	_, err := client.ListReports(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, gotQuery)

	reports, err := client.ListReports(ctx, "java")
	require.NoError(t, err)
	assert.Equal(t, "search=java", gotQuery)
	require.Len(t, reports, 1)
	assert.Equal(t, "Java Programming", reports[0].CourseName)
}

func TestErrorEnvelopeParsed(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid credentials"}`))
	})
	client, _, _ := newTestClient(t, handler)

	_, err := client.Login(context.Background(), models.LoginRequest{Email: "a@b", Password: "x", Role: models.RoleStudent})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindAPI, appErr.Kind)
	assert.Equal(t, "Invalid credentials", appErr.Message)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestErrorFallbackMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>nope</html>`))
	})
	client, _, _ := newTestClient(t, handler)

	_, err := client.ListReports(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, "API request failed", appErrors.FromError(err).Message)
}

func TestTransportErrorWrapped(t *testing.T) {
	client := New(Params{Config: config.BackendConfig{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}})

	_, err := client.ListReports(context.Background(), "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindTransport, appErr.Kind)
	assert.Equal(t, "network request failed", appErr.Message)
}

func TestLogoutClearsBothKeys(t *testing.T) {
	client, store, _ := newTestClient(t, http.NotFoundHandler())
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, kvstore.KeyToken, "tok"))
	require.NoError(t, store.Set(ctx, kvstore.KeyUser, `{"id":"1"}`))

	require.NoError(t, client.Logout(ctx))

	_, ok, err := store.Get(ctx, kvstore.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, kvstore.KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateReportSendsCamelCase(t *testing.T) {
	var payload map[string]interface{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"id":"10","status":"pending"}`))
	})
	client, _, _ := newTestClient(t, handler)

	draft := models.ReportDraft{
		Faculty: "Faculty of ICT", ClassName: "DIT 1A", Week: "6", Date: "2026-03-02",
		CourseName: "Web Application", CourseCode: "DIWA2110", LecturerName: "Mr. Tsekiso",
		Present: "25", Registered: "30", Venue: "MM5", Time: "08:30",
		Topic: "HTTP", Outcomes: "Basics", Recommendations: "None",
	}
	report, err := client.CreateReport(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, models.ID("10"), report.ID)

	assert.Equal(t, "DIT 1A", payload["className"])
	assert.Equal(t, "Web Application", payload["courseName"])
	assert.Equal(t, "25", payload["present"])
	_, hasSnake := payload["class_name"]
	assert.False(t, hasSnake)
}

func TestAddFeedbackPath(t *testing.T) {
	var gotPath string
	var payload models.FeedbackRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	})
	client, _, _ := newTestClient(t, handler)

	err := client.AddFeedback(context.Background(), "12", models.FeedbackRequest{Feedback: "Approved", Status: models.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, "/reports/12/feedback", gotPath)
	assert.Equal(t, models.StatusApproved, payload.Status)
}

func TestExportExcelSavesDatedFile(t *testing.T) {
	blob := []byte("PK\x03\x04fake-xlsx")
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reports/export/excel", r.URL.Path)
		w.Write(blob)
	})
	client, _, saver := newTestClient(t, handler)
	client.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }

	path, err := client.ExportExcel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/downloads/reports_2026-08-28.xlsx", path)
	assert.Equal(t, "reports_2026-08-28.xlsx", saver.filename)
	assert.Equal(t, blob, saver.data)
}

func TestExportExcelFailureIsFixedMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream detail that must not leak"}`))
	})
	client, _, _ := newTestClient(t, handler)

	_, err := client.ExportExcel(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Export failed", appErrors.FromError(err).Message)
}

func TestActivitiesFilterQuery(t *testing.T) {
	var gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	})
	client, _, _ := newTestClient(t, handler)
	ctx := context.Background()

	_, err := client.Activities(ctx, models.ActivityFilter{})
	require.NoError(t, err)
	assert.Empty(t, gotQuery)

	_, err = client.Activities(ctx, models.ActivityFilter{Type: "approve", Limit: 10})
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "type=approve")
	assert.Contains(t, gotQuery, "limit=10")
}

func TestAggregateEndpoints(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dashboard/stats":
			w.Write([]byte(`{"total_reports":12,"approved":7,"pending":3,"rejected":2}`))
		case "/ratings/5/average":
			w.Write([]byte(`{"report_id":"5","average":4.2,"count":6}`))
		case "/reports/5":
			w.Write([]byte(`{"id":"5","course_name":"Java Programming"}`))
		default:
			http.NotFound(w, r)
		}
	})
	client, _, _ := newTestClient(t, handler)
	ctx := context.Background()

	stats, err := client.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalReports)

	avg, err := client.AverageRating(ctx, "5")
	require.NoError(t, err)
	assert.InDelta(t, 4.2, avg.Average, 0.001)
	assert.Equal(t, 6, avg.Count)

	report, err := client.GetReport(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, "Java Programming", report.CourseName)
}

func TestHealthProbe(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok"}`))
	})
	client, _, _ := newTestClient(t, handler)

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
}
