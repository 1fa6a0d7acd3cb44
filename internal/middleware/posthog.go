package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/finance_sync/internal/utils"
	"github.com/gin-gonic/gin"
)

// PosthogMiddleware records one event per successful authenticated call. The event is named after
// the route template so ids never leak into event names, e.g. "POST /api/v1/resources/:resource"
// becomes "post_api_v1_resources_resource".
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if !posthogClient.IsInitialized() || len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		userID, ok := GetUserIDFromContext(c)
		if !ok {
			return
		}
		if event := routeEventName(c.Request.Method, c.FullPath()); event != "" {
			posthogClient.Enqueue(userID, event, eventProperties(c))
		}
	}
}

func eventProperties(c *gin.Context) map[string]any {
	props := map[string]any{
		"method":      c.Request.Method,
		"status_code": c.Writer.Status(),
		"request_id":  GetRequestID(c.Request.Context()),
	}
	// resource names are a closed set; ids are not sent
	if resource := c.Param("resource"); resource != "" {
		props["resource"] = resource
	}
	return props
}

func routeEventName(method, fullPath string) string {
	path := strings.Trim(fullPath, "/")
	if path == "" {
		return ""
	}
	path = strings.NewReplacer("/", "_", ":", "", "-", "_").Replace(path)
	return strings.ToLower(method) + "_" + path
}
