package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thokoanats/luct-reporting-web/internal/models"
	"github.com/thokoanats/luct-reporting-web/internal/shell"
	"github.com/thokoanats/luct-reporting-web/pkg/export"
)

const contextShellKey = "currentShell"

// BackendStatus reports the last observed backend health for the banner.
type BackendStatus interface {
	Up() bool
}

// WebHandler binds browser requests to shell actions and renders the view
// model as HTML.
type WebHandler struct {
	registry *shell.Registry
	cookies  *CookieCodec
	backend  BackendStatus
	logger   *zap.Logger
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
}

// Params groups constructor dependencies.
type Params struct {
	Registry *shell.Registry
	Cookies  *CookieCodec
	Backend  BackendStatus
	Logger   *zap.Logger
}

// NewWebHandler constructs the handler.
func NewWebHandler(params Params) *WebHandler {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebHandler{
		registry: params.Registry,
		cookies:  params.Cookies,
		backend:  params.Backend,
		logger:   logger,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
	}
}

// Register mounts all routes on the engine.
func (h *WebHandler) Register(r *gin.Engine) {
	r.Use(h.withShell)

	r.GET("/", h.root)
	r.GET("/login", h.loginPage)
	r.POST("/login", h.login)
	r.GET("/register", h.registerPage)
	r.POST("/register", h.register)
	r.POST("/logout", h.logout)

	authed := r.Group("/", h.requireSession)
	authed.GET("/dashboard", h.page(shell.PageDashboard, "dashboard"))
	authed.GET("/reports", h.page(shell.PageReports, "reports"))
	authed.GET("/reports/new", h.page(shell.PageNewReport, "new_report"))
	authed.GET("/classes", h.page(shell.PageClasses, "classes"))
	authed.GET("/monitoring", h.page(shell.PageMonitoring, "monitoring"))
	authed.GET("/rating", h.page(shell.PageRating, "rating"))
	authed.GET("/pages/:name", h.otherPage)

	authed.POST("/reports", h.submitReport)
	authed.POST("/reports/search", h.search)
	authed.POST("/reports/:id/approve", h.approve)
	authed.POST("/reports/:id/reject", h.reject)
	authed.POST("/reports/export", h.exportExcel)
	authed.GET("/reports/export/csv", h.exportLocal("csv"))
	authed.GET("/reports/export/pdf", h.exportLocal("pdf"))
	authed.POST("/ratings", h.submitRating)
}

// withShell resolves the browser's shell from the signed session cookie,
// minting a fresh session when the cookie is absent or invalid.
func (h *WebHandler) withShell(c *gin.Context) {
	sid := ""
	if raw, err := c.Cookie(SessionCookieName); err == nil {
		if parsed, err := h.cookies.Parse(raw); err == nil {
			sid = parsed
		}
	}
	if sid == "" {
		sid = uuid.NewString()
		token, err := h.cookies.Issue(sid)
		if err != nil {
			h.logger.Error("session cookie issue failed", zap.Error(err))
			c.String(http.StatusInternalServerError, "session unavailable")
			c.Abort()
			return
		}
		c.SetCookie(SessionCookieName, token, int(h.cookies.TTL().Seconds()), "/", "", false, true)
	}

	sh, err := h.registry.Get(c.Request.Context(), sid)
	if err != nil {
		h.logger.Error("shell init failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "session unavailable")
		c.Abort()
		return
	}
	c.Set(contextShellKey, sh)
	c.Next()
}

func (h *WebHandler) requireSession(c *gin.Context) {
	if h.shell(c).Snapshot().Session == nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

func (h *WebHandler) shell(c *gin.Context) *shell.Shell {
	value, _ := c.Get(contextShellKey)
	return value.(*shell.Shell)
}

func (h *WebHandler) root(c *gin.Context) {
	if h.shell(c).Snapshot().Session != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (h *WebHandler) loginPage(c *gin.Context) {
	sh := h.shell(c)
	if sh.Snapshot().Session != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	sh.ShowLogin()
	h.render(c, sh, "login")
}

func (h *WebHandler) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if err := h.shell(c).Login(c.Request.Context(), req); err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *WebHandler) registerPage(c *gin.Context) {
	sh := h.shell(c)
	if sh.Snapshot().Session != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	sh.ShowRegister()
	h.render(c, sh, "register")
}

func (h *WebHandler) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusFound, "/register")
		return
	}
	if err := h.shell(c).Register(c.Request.Context(), req); err != nil {
		c.Redirect(http.StatusFound, "/register")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (h *WebHandler) logout(c *gin.Context) {
	h.shell(c).Logout(c.Request.Context())
	c.Redirect(http.StatusFound, "/login")
}

// page returns a handler that navigates the shell and renders a template.
func (h *WebHandler) page(target shell.Page, template string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := h.shell(c)
		if target == shell.PageReports {
			if term, ok := c.GetQuery("search"); ok {
				sh.SetSearchTerm(term)
			}
		}
		sh.Navigate(c.Request.Context(), target)
		h.render(c, sh, template)
	}
}

func (h *WebHandler) otherPage(c *gin.Context) {
	sh := h.shell(c)
	sh.Navigate(c.Request.Context(), shell.PageOther)
	vm := sh.View()
	c.HTML(http.StatusOK, "other", gin.H{
		"VM":        vm,
		"Title":     c.Param("name"),
		"BackendUp": h.backendUp(),
	})
}

func (h *WebHandler) submitReport(c *gin.Context) {
	var draft models.ReportDraft
	if err := c.ShouldBind(&draft); err != nil {
		c.Redirect(http.StatusFound, "/reports/new")
		return
	}
	if err := h.shell(c).SubmitReport(c.Request.Context(), draft); err != nil {
		c.Redirect(http.StatusFound, "/reports/new")
		return
	}
	c.Redirect(http.StatusFound, "/reports")
}

// search records the typed term; the shell debounces the actual refetch.
// Called from the search box on keyup, so it answers without a redirect.
func (h *WebHandler) search(c *gin.Context) {
	h.shell(c).SetSearchTerm(c.PostForm("search"))
	c.Status(http.StatusNoContent)
}

func (h *WebHandler) approve(c *gin.Context) {
	id := models.ID(c.Param("id"))
	_ = h.shell(c).Approve(c.Request.Context(), id)
	c.Redirect(http.StatusFound, "/reports")
}

func (h *WebHandler) reject(c *gin.Context) {
	id := models.ID(c.Param("id"))
	reason := c.PostForm("reason")
	// An empty reason means the prompt was cancelled; nothing happens.
	_ = h.shell(c).Reject(c.Request.Context(), id, reason)
	c.Redirect(http.StatusFound, "/reports")
}

func (h *WebHandler) exportExcel(c *gin.Context) {
	_, _ = h.shell(c).Export(c.Request.Context())
	c.Redirect(http.StatusFound, "/reports")
}

// exportLocal streams the currently loaded (and filtered) reports as a
// locally rendered CSV or PDF.
func (h *WebHandler) exportLocal(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := h.shell(c).Snapshot()
		dataset := reportDataset(shell.FilterReports(state.Reports, state.SearchTerm))
		date := time.Now().UTC().Format("2006-01-02")

		switch format {
		case "pdf":
			data, err := h.pdf.Render(dataset, "Lecture Reports")
			if err != nil {
				c.String(http.StatusInternalServerError, "export failed")
				return
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=reports_%s.pdf", date))
			c.Data(http.StatusOK, "application/pdf", data)
		default:
			data, err := h.csv.Render(dataset)
			if err != nil {
				c.String(http.StatusInternalServerError, "export failed")
				return
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=reports_%s.csv", date))
			c.Data(http.StatusOK, "text/csv", data)
		}
	}
}

func (h *WebHandler) submitRating(c *gin.Context) {
	stars, _ := strconv.Atoi(c.PostForm("stars"))
	form := shell.RatingForm{
		SelectedReport: models.ID(c.PostForm("reportId")),
		Stars:          stars,
		Comment:        c.PostForm("comment"),
	}
	_ = h.shell(c).SubmitRating(c.Request.Context(), form)
	c.Redirect(http.StatusFound, "/rating")
}

func (h *WebHandler) render(c *gin.Context, sh *shell.Shell, template string) {
	c.HTML(http.StatusOK, template, gin.H{
		"VM":        sh.View(),
		"BackendUp": h.backendUp(),
	})
}

func (h *WebHandler) backendUp() bool {
	if h.backend == nil {
		return true
	}
	return h.backend.Up()
}

func reportDataset(reports []models.Report) export.Dataset {
	headers := []string{"Course", "Code", "Class", "Week", "Date", "Lecturer", "Attendance", "Venue", "Topic", "Status"}
	rows := make([]map[string]string, 0, len(reports))
	for _, report := range reports {
		rows = append(rows, map[string]string{
			"Course":     report.CourseName,
			"Code":       report.CourseCode,
			"Class":      report.ClassName,
			"Week":       report.Week,
			"Date":       report.Date,
			"Lecturer":   report.LecturerName,
			"Attendance": fmt.Sprintf("%d/%d", report.StudentsPresent, report.StudentsRegistered),
			"Venue":      report.Venue,
			"Topic":      report.Topic,
			"Status":     string(report.Status),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
