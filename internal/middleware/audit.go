package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epiviu-api/internal/service"
)

// AuditResourceIDKey lets handlers name the resource created by a request.
const AuditResourceIDKey = "audit_resource_id"

// AuditRecorder stores audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry service.AuditEntry)
}

// Audit records an audit entry after every successful request of the route.
// The id path parameter, when present, becomes the resource id.
func Audit(recorder AuditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := service.AuditEntry{
			Action:     action,
			Resource:   resource,
			ResourceID: c.Param("id"),
			Payload: map[string]interface{}{
				"path":    c.FullPath(),
				"method":  c.Request.Method,
				"status":  c.Writer.Status(),
				"latency": time.Since(start).Milliseconds(),
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if claims := Claims(c); claims != nil {
			entry.ActorID = claims.StaffID
		}
		if id, ok := c.Get(AuditResourceIDKey); ok {
			if value, ok := id.(string); ok && value != "" {
				entry.ResourceID = value
			}
		}
		recorder.Record(c.Request.Context(), entry)
	}
}
