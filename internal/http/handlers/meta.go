package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "NoteFlow API"
	serviceVersion = "1.0.0"
)

type MetaHandler struct {
	allowedOrigins []string
	now            func() time.Time
}

func NewMetaHandler(allowedOrigins []string) *MetaHandler {
	return &MetaHandler{
		allowedOrigins: allowedOrigins,
		now:            time.Now,
	}
}

// Root is the service banner.
func (h *MetaHandler) Root(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"message": serviceName,
		"version": serviceVersion,
		"status":  "running",
		"cors": gin.H{
			"allowedOrigins": h.allowedOrigins,
		},
	})
}

func (h *MetaHandler) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"message":   "API is working!",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}
