package ui

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecgrisk/domain/core"
	"ecgrisk/internal/errors"
	"ecgrisk/internal/session"
)

const sessionKey = "session"

// loadSession resolves :id to a live session, restoring it from its
// snapshot when needed, and aborts with 400 or 404 otherwise.
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseSessionID(c.Param("id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sess, err := s.deps.Sessions.Get(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// abortWithError maps an error code to its status and responds {"error": ...}.
func abortWithError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[UI] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
