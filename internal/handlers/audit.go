package handlers

import (
	"time"

	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/gin-gonic/gin"
)

// AuditLogger accepts audit entries without blocking the request
type AuditLogger interface {
	Log(entry models.AuditLog)
}

// recordAudit queues an audit entry for a phone operation. The phone is
// stored masked.
func recordAudit(audit AuditLogger, c *gin.Context, action, resource, phone string, err error) {
	if audit == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = models.KindOf(err)
	}

	audit.Log(models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: observability.MaskPhone(phone),
		Outcome:    outcome,
		RequestID:  c.GetString("RequestID"),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		Timestamp:  time.Now().UTC(),
	})
}
