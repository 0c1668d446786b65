package utils

import (
	"time"

	"threadfinder/logger"

	"github.com/gin-gonic/gin"
)

type errorLogWriter struct {
	gin.ResponseWriter
	gc *gin.Context
}

func (w errorLogWriter) Write(b []byte) (int, error) {
	status := w.gc.Writer.Status()
	if status >= 400 {
		logger.Log.WithField("status", status).Debugf("[DEBUG ERROR] Body: %s", string(b))
	}
	return w.ResponseWriter.Write(b)
}

// ErrorLogMiddleware doesn't work with GZIP
func ErrorLogMiddleware(c *gin.Context) {
	blw := &errorLogWriter{gc: c, ResponseWriter: c.Writer}
	c.Writer = blw
	c.Next()
}

// RequestLogMiddleware logs every request through the package logger
func RequestLogMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()
	fields := logger.Fields{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
		"ip":      c.ClientIP(),
	}
	if len(c.Errors) > 0 {
		fields["errors"] = c.Errors.String()
	}
	entry := logger.Log.WithFields(fields)
	if c.Writer.Status() >= 500 {
		entry.Error("Request failed")
	} else {
		entry.Info("Request")
	}
}
