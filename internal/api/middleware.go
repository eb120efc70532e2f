package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/metrics"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Records   map[string]string `json:"records,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// requestLogger tags the request with an id, then logs and times it.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		log.Info("request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("uri", c.Request.RequestURI),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("remote_ip", c.ClientIP()),
			zap.Duration("latency", elapsed),
			zap.Int("response_size", c.Writer.Size()),
		)
	}
}

// errorRenderer writes the last error a handler attached with c.Error.
func errorRenderer(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := fault.HTTPStatus(err)

		resp := ErrorResponse{
			Error:     err.Error(),
			Code:      "internal",
			RequestID: c.GetString(requestIDHeader),
		}
		if fe := fault.As(err); fe != nil {
			resp.Code = fe.Code
			resp.Records = fe.Records
		}
		if status >= http.StatusInternalServerError {
			log.Error("api is returning an error",
				zap.String("request_id", resp.RequestID),
				zap.String("route", c.FullPath()),
				zap.Error(err),
			)
		}
		c.JSON(status, resp)
	}
}
