package middlewares

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows credentialed requests from the listed origins only.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()

	origins := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if strings.HasPrefix(o, "http://") || strings.HasPrefix(o, "https://") {
			origins = append(origins, o)
		}
	}

	if len(origins) == 0 {
		// cors.New refuses a config that allows nothing
		cfg.AllowOriginFunc = func(string) bool { return false }
	} else {
		cfg.AllowOrigins = origins
	}

	cfg.AllowCredentials = true
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		"If-None-Match",
		requestIDHeader,
	}
	cfg.ExposeHeaders = []string{"ETag", requestIDHeader}
	cfg.MaxAge = 12 * time.Hour

	return cors.New(cfg)
}
