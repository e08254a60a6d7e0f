package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Report is the JSON body of the detailed health endpoint.
type Report struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckReport `json:"checks,omitempty"`
}

// CheckReport is the JSON form of one Result.
type CheckReport struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func newCheckReport(r Result) CheckReport {
	cr := CheckReport{
		Status:   r.Status.String(),
		Message:  r.Message,
		Duration: r.Duration.String(),
		Details:  r.Details,
	}
	if r.Error != nil {
		cr.Error = r.Error.Error()
	}
	return cr
}

func httpStatus(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// LivenessHandler answers OK while the process serves HTTP.
func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

// ReadinessHandler answers OK, DEGRADED or UNHEALTHY (503).
func ReadinessHandler(agg *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := OverallStatus(agg.CheckAll(c.Request.Context()))
		body := "OK"
		switch status {
		case StatusDegraded:
			body = "DEGRADED"
		case StatusUnhealthy:
			body = "UNHEALTHY"
		}
		c.String(httpStatus(status), body)
	}
}

// DetailedHandler reports every check as JSON.
func DetailedHandler(agg *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		results := agg.CheckAll(c.Request.Context())
		status := OverallStatus(results)

		report := Report{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckReport, len(results)),
		}
		for name, result := range results {
			report.Checks[name] = newCheckReport(result)
		}
		c.JSON(httpStatus(status), report)
	}
}

// SingleCheckHandler reports the checker named by the :name path parameter.
func SingleCheckHandler(agg *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := agg.Check(c.Request.Context(), c.Param("name"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(httpStatus(result.Status), newCheckReport(result))
	}
}

// RegisterRoutes mounts the probes on r.
func RegisterRoutes(r gin.IRoutes, agg *Aggregator) {
	r.GET("/healthz", LivenessHandler())
	r.GET("/readyz", ReadinessHandler(agg))
	r.GET("/health", DetailedHandler(agg))
	r.GET("/health/:name", SingleCheckHandler(agg))
}
