package pairapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/journal"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/metrics"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/pairing"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/qrrender"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/sessiondir"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/webserver"
	"go.uber.org/zap"
)

// HeaderSessionID carries the session id on every session response.
const HeaderSessionID = "X-Session-Id"

const (
	statusWindow = time.Hour
	gaugeWindow  = 5 * time.Minute
)

// Session is the caller's view of a running linking session.
type Session interface {
	ID() string
	Response() <-chan pairing.Outcome
	Abandon()
}

// Sessions starts and inspects linking sessions.
type Sessions interface {
	Start(req pairing.Request) (Session, error)
	Get(id string) (pairing.Snapshot, bool)
	Active() int
}

// Records looks up finished sessions.
type Records interface {
	Get(id string) (journal.Record, error)
	Counts(since time.Time) (map[string]int, error)
}

// Gauges reads the latest process gauges.
type Gauges interface {
	Last(metric string, labels map[string]string, since time.Time) (float64, bool, error)
}

type orchestrated struct {
	*pairing.Orchestrator
}

func (o orchestrated) Start(req pairing.Request) (Session, error) {
	s, err := o.Orchestrator.Start(req)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Orchestrated adapts an orchestrator to Sessions.
func Orchestrated(o *pairing.Orchestrator) Sessions {
	return orchestrated{o}
}

// Handler serves the linking endpoints.
type Handler struct {
	sessions Sessions
	records  Records
	gauges   Gauges
	qr       *qrrender.Renderer
}

// New builds a handler. records and gauges may be nil.
func New(sessions Sessions, records Records, gauges Gauges, qr *qrrender.Renderer) *Handler {
	if qr == nil {
		qr, _ = qrrender.New(qrrender.FormatRaw)
	}
	return &Handler{sessions: sessions, records: records, gauges: gauges, qr: qr}
}

// Register installs the routes on s.
func (h *Handler) Register(s *webserver.Server) {
	s.GET("/pairing", h.startSession)
	s.GET("/code", h.startSession)
	s.GET("/qr", h.startSession)
	s.GET("/server", h.startSession)
	s.GET("/sessions/:id", h.getSession)
	s.GET("/healthz", h.healthz)
	s.GET("/status", h.status)
}

func errorBody(msg string, details string) map[string]string {
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	return body
}

// requestMode picks the flow by presence of the number parameter, whatever
// path was used.
func requestMode(c echo.Context) pairing.Request {
	if _, ok := c.QueryParams()["number"]; ok {
		return pairing.Request{Mode: pairing.ModePairingCode, Phone: c.QueryParam("number")}
	}
	return pairing.Request{Mode: pairing.ModeQR}
}

func (h *Handler) startSession(c echo.Context) error {
	req := requestMode(c)
	s, err := h.sessions.Start(req)
	if err != nil {
		return h.writeError(c, "", err)
	}
	c.Response().Header().Set(HeaderSessionID, s.ID())

	select {
	case out := <-s.Response():
		return h.writeOutcome(c, s.ID(), out)
	case <-c.Request().Context().Done():
		s.Abandon()
		zap.L().Info("pairapi: caller went away before an answer",
			zap.String("session", s.ID()), zap.String("mode", string(req.Mode)))
		return nil
	}
}

func (h *Handler) writeOutcome(c echo.Context, id string, out pairing.Outcome) error {
	switch out.Kind {
	case pairing.OutcomeCode:
		return c.JSON(http.StatusOK, map[string]string{"code": out.Code})
	case pairing.OutcomeQR:
		qr, err := h.qr.Render(out.QR)
		if err != nil {
			return h.writeError(c, id, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "qr", "qr": qr})
	case pairing.OutcomeCredentials:
		art := out.Artifact
		if art == nil {
			return h.writeError(c, id, &pairing.CredentialMissingError{})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", art.FileName))
		return c.Blob(http.StatusOK, art.ContentType, art.Body)
	}
	return h.writeError(c, id, out.Err)
}

// statusFor maps a session error to the HTTP answer.
func statusFor(err error) (int, map[string]string) {
	var (
		validation *pairing.ValidationError
		timeout    *pairing.TimeoutError
		permanent  *pairing.PermanentRejectionError
		transient  *pairing.TransientConnectionError
		missing    *pairing.CredentialMissingError
		storage    *sessiondir.StorageError
	)
	switch {
	case errors.As(err, &validation):
		if validation.Field == "number" {
			return http.StatusBadRequest, errorBody("Invalid phone number", "")
		}
		return http.StatusBadRequest, errorBody(validation.Message, "")
	case errors.As(err, &timeout):
		return http.StatusRequestTimeout, errorBody("timeout", "")
	case errors.Is(err, pairing.ErrCapacity):
		return http.StatusServiceUnavailable, errorBody("Too many sessions", "")
	case errors.Is(err, pairing.ErrShuttingDown):
		return http.StatusServiceUnavailable, errorBody("Service unavailable", "shutting down")
	case errors.As(err, &permanent):
		return http.StatusInternalServerError, errorBody("Connection rejected", permanent.Reason.String())
	case errors.As(err, &transient):
		return http.StatusInternalServerError, errorBody("Connection failed", transient.Reason.String())
	case errors.As(err, &missing):
		return http.StatusInternalServerError, errorBody("Failed to generate session", "")
	case errors.As(err, &storage):
		return http.StatusInternalServerError, errorBody("Service unavailable", storage.Op)
	case err == nil:
		return http.StatusInternalServerError, errorBody("Service unavailable", "")
	}
	return http.StatusInternalServerError, errorBody("Service unavailable", err.Error())
}

func (h *Handler) writeError(c echo.Context, id string, err error) error {
	code, body := statusFor(err)
	if code >= 500 {
		zap.L().Error("pairapi: session failed", zap.String("session", id), zap.Int("status", code), zap.Error(err))
	}
	return c.JSON(code, body)
}

func (h *Handler) getSession(c echo.Context) error {
	id := c.Param("id")
	if snap, ok := h.sessions.Get(id); ok {
		return c.JSON(http.StatusOK, map[string]interface{}{"live": true, "session": snap})
	}
	if h.records != nil {
		rec, err := h.records.Get(id)
		switch {
		case err == nil:
			return c.JSON(http.StatusOK, map[string]interface{}{"live": false, "session": rec})
		case !errors.Is(err, journal.ErrNotFound):
			zap.L().Error("pairapi: journal lookup failed", zap.String("session", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, errorBody("Service unavailable", err.Error()))
		}
	}
	return c.JSON(http.StatusNotFound, errorBody("Session not found", ""))
}

func (h *Handler) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"active_sessions": h.sessions.Active(),
	})
}

func (h *Handler) status(c echo.Context) error {
	now := time.Now()
	resp := map[string]interface{}{
		"active_sessions": h.sessions.Active(),
	}
	if h.records != nil {
		counts, err := h.records.Counts(now.Add(-statusWindow))
		if err != nil {
			zap.L().Warn("pairapi: journal counts failed", zap.Error(err))
		} else {
			resp["finished_last_hour"] = counts
		}
	}
	if h.gauges != nil {
		process := map[string]float64{}
		for name, metric := range map[string]string{
			"cpu_percent": metrics.ProcessCPU,
			"rss_mb":      metrics.ProcessRSSMB,
			"threads":     metrics.ProcessThreads,
			"system_cpu":  metrics.SystemCPU,
			"system_mem":  metrics.SystemMemUsedMB,
		} {
			v, ok, err := h.gauges.Last(metric, nil, now.Add(-gaugeWindow))
			if err != nil {
				zap.L().Warn("pairapi: gauge read failed", zap.String("metric", metric), zap.Error(err))
				continue
			}
			if ok {
				process[name] = v
			}
		}
		resp["process"] = process
	}
	return c.JSON(http.StatusOK, resp)
}
