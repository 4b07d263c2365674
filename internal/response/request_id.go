package response

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key under which the request ID is
// stored for downstream middleware and envelope rendering.
const ContextKeyRequestID = "request_id"

// maxInboundRequestIDLen caps client-supplied IDs so a hostile header cannot
// bloat logs or response envelopes.
const maxInboundRequestIDLen = 64

// RequestIDMiddleware tags every request with an ID that flows into the log
// line and the response envelope. A caller-supplied X-Request-ID is honored
// when sane, which lets upstream proxies correlate across services; otherwise
// a fresh UUID is minted.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" || len(id) > maxInboundRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
