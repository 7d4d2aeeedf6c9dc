package logger

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LOG returns a request-scoped log entry
func LOG(c *gin.Context) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"module": "market.gin",
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	})
}

// LOGE aborts the request with the given status and returns an entry
// for logging the cause. A JSON error body is attached when err is set.
func LOGE(c *gin.Context, err error, status int) *logrus.Entry {
	entry := LOG(c)
	if err != nil {
		entry = entry.WithError(err)
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
	} else {
		c.AbortWithStatus(status)
	}
	return entry
}
