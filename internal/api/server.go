// Package api exposes VaR computation over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/logger"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/pipeline"
)

const dateLayout = "2006-01-02"

// ReportReader looks up archived reports. *recorder.SQLiteRecorder implements it.
type ReportReader interface {
	LatestReport(ctx context.Context, symbol string) (*model.Report, error)
}

// ErrorDetail is the body of a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Handler serves the VaR endpoints.
type Handler struct {
	Engine *pipeline.Engine
	// Reports is optional; without it the latest endpoint returns 404.
	Reports ReportReader
	// LookbackDays is the default window when start is omitted.
	LookbackDays int
	Now          func() time.Time
}

// NewRouter builds the gin engine with health, VaR and metrics routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), gin.CustomRecovery(func(c *gin.Context, recovered any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Code: "INTERNAL_ERROR", Message: "an unexpected error occurred"},
		})
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/var/:symbol", h.ComputeVaR)
	v1.GET("/var/:symbol/latest", h.LatestVaR)
	return router
}

// ComputeVaR handles GET /api/v1/var/:symbol
func (h *Handler) ComputeVaR(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	cfg, err := h.configFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	start, end, err := h.windowFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}

	report, err := h.Engine.RunWith(c.Request.Context(), symbol, start, end, cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// LatestVaR handles GET /api/v1/var/:symbol/latest
func (h *Handler) LatestVaR(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	var report *model.Report
	if h.Reports != nil {
		var err error
		report, err = h.Reports.LatestReport(c.Request.Context(), symbol)
		if err != nil {
			writeError(c, err)
			return
		}
	}
	if report == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{Code: "NOT_FOUND", Message: "no archived report for " + symbol},
		})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) configFrom(c *gin.Context) (pipeline.Config, error) {
	cfg := h.Engine.Config
	if v := c.Query("confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, badRequest("confidence", err)
		}
		cfg.ConfidenceLevel = f
	}
	if v := c.Query("simulations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, badRequest("simulations", err)
		}
		cfg.SimulationCount = n
	}
	if v := c.Query("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, badRequest("seed", err)
		}
		cfg.RandomSeed = &n
	}
	if v := c.Query("method"); v != "" {
		m, err := calculator.ParseQuantileMethod(v)
		if err != nil {
			return cfg, err
		}
		cfg.QuantileMethod = m
	}
	return cfg, cfg.Validate()
}

func (h *Handler) windowFrom(c *gin.Context) (start, end time.Time, err error) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	end = now().UTC().Truncate(24 * time.Hour)
	if v := c.Query("end"); v != "" {
		if end, err = time.Parse(dateLayout, v); err != nil {
			return start, end, badRequest("end", err)
		}
	}
	if v := c.Query("start"); v != "" {
		if start, err = time.Parse(dateLayout, v); err != nil {
			return start, end, badRequest("start", err)
		}
	} else if h.LookbackDays > 0 {
		start = end.AddDate(0, 0, -h.LookbackDays)
	}
	if !start.IsZero() && start.After(end) {
		return start, end, badRequest("start", errors.New("start is after end"))
	}
	return start, end, nil
}

type paramError struct {
	param string
	err   error
}

func (e *paramError) Error() string { return "invalid " + e.param + ": " + e.err.Error() }

func badRequest(param string, err error) error {
	return &paramError{param: param, err: err}
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) (int, string) {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		return http.StatusBadRequest, "INVALID_PARAM"
	case errors.Is(err, model.ErrInvalidConfidence):
		return http.StatusBadRequest, "INVALID_CONFIDENCE"
	case errors.Is(err, model.ErrInvalidConfiguration):
		return http.StatusBadRequest, "INVALID_CONFIGURATION"
	case errors.Is(err, model.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"
	case errors.Is(err, model.ErrDataUnavailable):
		return http.StatusBadGateway, "DATA_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

func requestLogger() gin.HandlerFunc {
	log := logger.WithComponent("api")
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()
		log.WithField("status", c.Writer.Status()).
			WithField("latency", time.Since(began).String()).
			Debugf("%s %s", c.Request.Method, c.Request.URL.Path)
	}
}
