package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	requestStartKey  = "request_started_at"
	processingTimeMS = "processing_time_ms"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetMeta records a metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	ensureMeta(c)[key] = value
}

// ResponseMeta returns the metadata collected for the request, stamped with
// the elapsed processing time. extra entries override stored ones.
func ResponseMeta(c *gin.Context, extra map[string]interface{}) map[string]interface{} {
	meta := make(map[string]interface{})
	for k, v := range ensureMeta(c) {
		meta[k] = v
	}
	for k, v := range extra {
		meta[k] = v
	}
	if c != nil {
		if started, ok := c.Get(requestStartKey); ok {
			if at, ok := started.(time.Time); ok {
				meta[processingTimeMS] = time.Since(at).Milliseconds()
			}
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
