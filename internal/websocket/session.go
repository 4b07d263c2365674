// Package websocket carries a live exam session: autosaves and the final
// submit over one connection instead of per-answer HTTP round trips. The
// HTTP endpoints remain the fallback; the socket is an optimization, not a
// requirement.
package websocket

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/middleware"
	"github.com/certlab/certlab-backend/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 4096
)

// SessionHandler upgrades an attempt's connection and relays actions into
// the attempt service.
type SessionHandler struct {
	attempts *service.AttemptService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewSessionHandler creates a SessionHandler. With no allowed origins every
// origin is accepted.
func NewSessionHandler(attempts *service.AttemptService, allowedOrigins []string, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		attempts: attempts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
		log: log.With().Str("component", "ws_session").Logger(),
	}
}

// Serve handles GET /take/attempts/:attempt_id/ws. RequireJWT must run first.
func (h *SessionHandler) Serve(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	// Reject before upgrading so a bad attempt id fails as plain HTTP.
	if _, err := h.attempts.GetState(c.Request.Context(), attemptID, claims.UserID); err != nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.log.Debug().Str("attempt_id", attemptID.String()).Msg("Session socket opened")
	h.readLoop(c, conn, attemptID, claims.UserID)
}

func (h *SessionHandler) readLoop(c *gin.Context, conn *websocket.Conn, attemptID, userID uuid.UUID) {
	ctx := c.Request.Context()
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("attempt_id", attemptID.String()).Msg("Session socket closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Action {
		case ActionPing:
			h.send(conn, ServerEvent{Type: EventPong})

		case ActionAutosave:
			if err := h.attempts.SaveAnswer(ctx, attemptID, userID, msg.QuestionID, msg.Answer); err != nil {
				h.send(conn, ServerEvent{Type: EventError, Message: wsErrorMessage(err)})
				if errors.Is(err, service.ErrAttemptAlreadyCompleted) {
					return
				}
				continue
			}
			h.send(conn, ServerEvent{Type: EventSaved, Payload: gin.H{"question_id": msg.QuestionID}})

		case ActionSubmit:
			outcome, err := h.attempts.Submit(ctx, attemptID, userID)
			if err != nil {
				h.send(conn, ServerEvent{Type: EventError, Message: wsErrorMessage(err)})
				if errors.Is(err, service.ErrAttemptAlreadyCompleted) {
					return
				}
				continue
			}
			if !outcome.ShowResults {
				h.send(conn, ServerEvent{Type: EventSubmitted, Payload: gin.H{"attempt_id": outcome.AttemptID}})
			} else {
				h.send(conn, ServerEvent{Type: EventSubmitted, Payload: outcome})
			}
			return

		default:
			h.send(conn, ServerEvent{Type: EventError, Message: "unknown action"})
		}
	}
}

func (h *SessionHandler) send(conn *websocket.Conn, ev ServerEvent) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(ev); err != nil {
		h.log.Debug().Err(err).Msg("Socket write failed")
	}
}

func wsErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrAttemptAlreadyCompleted):
		return "attempt already completed"
	case errors.Is(err, service.ErrNotYourAttempt):
		return "attempt belongs to a different account"
	default:
		return "request failed"
	}
}
