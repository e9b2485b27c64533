// ABOUTME: Web UI and JSON API server with embedded templates
// ABOUTME: Serves principal activity pages, exports, graphs and Prometheus metrics
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/harperreed/crmactivity/db"
	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/query"
	"github.com/harperreed/crmactivity/store"
	"github.com/harperreed/crmactivity/viz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Server struct {
	svc       store.Service
	templates *template.Template
	logger    logrus.FieldLogger
	gatherer  prometheus.Gatherer
}

// Options configure the server. A nil Gatherer serves the default registry.
type Options struct {
	Logger   logrus.FieldLogger
	Gatherer prometheus.Gatherer
}

func NewServer(svc store.Service, opts Options) (*Server, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"pageURL": func(q models.Query, page int) string {
			q.Pagination.Page = page
			return "/?" + Encode(q).Encode()
		},
		"dashboard": viz.RenderDashboard,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		svc:       svc,
		templates: tmpl,
		logger:    opts.Logger,
		gatherer:  opts.Gatherer,
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s, nil
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handlePrincipals)
	mux.HandleFunc("GET /principals/{id}", s.handlePrincipal)
	mux.HandleFunc("GET /analytics", s.handleAnalytics)

	mux.HandleFunc("GET /api/principals", s.handleAPIPrincipals)
	mux.HandleFunc("GET /api/principals/{id}", s.handleAPIPrincipal)
	mux.HandleFunc("GET /api/principals/{id}/graph.svg", s.handleAPIGraph)
	mux.HandleFunc("POST /api/principals/batch", s.handleAPIBatchUpdate)
	mux.HandleFunc("GET /api/analytics", s.handleAPIAnalytics)
	mux.HandleFunc("GET /api/export", s.handleAPIExport)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return s.logRequests(mux)
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", srv.Addr).Info("starting web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("http request")
	})
}

func (s *Server) renderTemplate(w http.ResponseWriter, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "layout.html", data); err != nil {
		s.logger.WithError(err).Error("template error")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handlePrincipals(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := s.svc.GetSummaries(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.renderTemplate(w, map[string]any{
		"Title":           "Principals",
		"ContentTemplate": "principals-content",
		"Query":           q,
		"Page":            page,
		"Statuses":        models.ActivityStatuses,
	})
}

func (s *Server) handlePrincipal(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.GetDashboard(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var graph template.HTML
	if svg, err := viz.PrincipalGraph(r.Context(), detail, viz.FormatSVG); err != nil {
		s.logger.WithError(err).Warn("failed to render principal graph")
	} else {
		graph = template.HTML(svg)
	}

	s.renderTemplate(w, map[string]any{
		"Title":           detail.Summary.PrincipalName,
		"ContentTemplate": "principal-content",
		"Detail":          detail,
		"Graph":           graph,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.renderTemplate(w, map[string]any{
		"Title":           "Analytics",
		"ContentTemplate": "analytics-content",
		"Summary":         summary,
	})
}

func (s *Server) handleAPIPrincipals(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}
	page, err := s.svc.GetSummaries(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleAPIPrincipal(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.GetDashboard(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleAPIGraph(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.GetDashboard(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	svg, err := viz.PrincipalGraph(r.Context(), detail, viz.FormatSVG)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(svg))
}

// BatchUpdateRequest is the body of POST /api/principals/batch.
type BatchUpdateRequest struct {
	PrincipalIDs []string               `json:"principal_ids"`
	Update       models.PrincipalUpdate `json:"update"`
}

func (s *Server) handleAPIBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req BatchUpdateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Errorf("invalid request body: %w", err)))
		return
	}
	if len(req.PrincipalIDs) == 0 || req.Update.IsEmpty() {
		writeJSON(w, http.StatusBadRequest, errorBody(errors.New("principal_ids and at least one update field are required")))
		return
	}

	n, err := s.svc.BatchUpdate(r.Context(), req.PrincipalIDs, req.Update)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) handleAPIAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// analytics summarizes the principals matching the request filters. The
// page size defaults to the maximum so the summary covers as much as one
// query can return.
func (s *Server) analytics(r *http.Request) (models.AnalyticsSummary, error) {
	values := r.URL.Query()
	if values.Get("limit") == "" {
		values.Set("limit", strconv.Itoa(models.MaxPageSize))
	}
	q, err := ParseQuery(values)
	if err != nil {
		return models.AnalyticsSummary{}, badRequest{err}
	}
	page, err := s.svc.GetSummaries(r.Context(), q)
	if err != nil {
		return models.AnalyticsSummary{}, err
	}
	return s.svc.CalculateAnalytics(page.Data), nil
}

var exportContentTypes = map[store.Format]string{
	store.FormatCSV:  "text/csv",
	store.FormatJSON: "application/json",
	store.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *Server) handleAPIExport(w http.ResponseWriter, r *http.Request) {
	format, err := store.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}
	page, err := s.svc.GetSummaries(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", exportContentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="principal-activity.%s"`, format))
	if err := store.WriteRecords(w, format, page.Data); err != nil {
		s.logger.WithError(err).Error("export failed")
	}
}

type badRequest struct{ error }

func (e badRequest) Unwrap() error { return e.error }

// writeError maps service failures onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var re *query.ResponseError
	var br badRequest
	switch {
	case errors.As(err, &br):
		status = http.StatusBadRequest
	case errors.As(err, &re) && re.Code == db.CodeSingleRow:
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorBody(err))
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
