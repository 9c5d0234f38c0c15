package httpapi

import (
	"errors"
	"log"
	"net/http"
	"time"

	appauth "huntclub/internal/application/auth"
	authDomain "huntclub/internal/domain/auth"
	"huntclub/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		UserName string `json:"userName"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.metrics.Record("login", metrics.OutcomeRejected)
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}

	res, err := s.flow.Login(c.Request.Context(), appauth.LoginInput{
		UserName: body.UserName,
		Password: body.Password,
	})
	if err != nil {
		if errors.Is(err, appauth.ErrInvalidCredentials) {
			log.Printf("[Auth] login rejected for %s", body.UserName)
			s.metrics.Record("login", metrics.OutcomeRejected)
			writeError(c, http.StatusUnprocessableEntity, errCodeInvalidCredentials, "invalid user name or password")
			return
		}
		log.Printf("[Auth] login error for %s: %v", body.UserName, err)
		s.metrics.Record("login", metrics.OutcomeError)
		writeError(c, http.StatusInternalServerError, errCodeInternal, "login failed")
		return
	}

	writeRefreshCookie(c.Writer, res.Token.RefreshToken, res.Token.RefreshExpiry)
	s.metrics.Record("login", metrics.OutcomeSuccess)
	log.Printf("[Auth] login ok user=%s session=%s", res.User.ID, res.SessionID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":       res.User.ID,
			"userName": res.User.UserName,
			"roles":    authDomain.RoleNames(res.Roles),
		},
		"accessToken": res.Token.AccessToken,
		"token_type":  "Bearer",
		"expiry":      res.Token.AccessExpiry.Format(time.RFC3339),
	})
}

func (s *Server) handleSession(c *gin.Context) {
	token := readRefreshCookie(c.Request)
	if token == "" {
		s.metrics.Record("session", metrics.OutcomeRejected)
		writeError(c, http.StatusUnauthorized, errCodeUnauthorized, "invalid session")
		return
	}
	if err := s.flow.Validate(c.Request.Context(), token); err != nil {
		s.metrics.Record("session", metrics.OutcomeRejected)
		writeError(c, http.StatusUnauthorized, errCodeUnauthorized, "invalid session")
		return
	}
	s.metrics.Record("session", metrics.OutcomeSuccess)
	c.Status(http.StatusOK)
}

func (s *Server) handleAccessToken(c *gin.Context) {
	token := readRefreshCookie(c.Request)
	if token == "" {
		s.metrics.Record("refresh", metrics.OutcomeRejected)
		writeError(c, http.StatusUnauthorized, errCodeUnauthorized, "invalid refresh token")
		return
	}

	pair, err := s.flow.Refresh(c.Request.Context(), token)
	switch {
	case err == nil:
	case errors.Is(err, appauth.ErrInvalidRefreshToken):
		s.metrics.Record("refresh", metrics.OutcomeRejected)
		writeError(c, http.StatusUnauthorized, errCodeUnauthorized, "invalid refresh token")
		return
	case errors.Is(err, appauth.ErrUserUnavailable):
		s.metrics.Record("refresh", metrics.OutcomeRejected)
		writeError(c, http.StatusUnprocessableEntity, errCodeUserUnavailable, "user unavailable")
		return
	default:
		log.Printf("[Auth] refresh error: %v", err)
		s.metrics.Record("refresh", metrics.OutcomeError)
		writeError(c, http.StatusInternalServerError, errCodeInternal, "refresh failed")
		return
	}

	writeRefreshCookie(c.Writer, pair.RefreshToken, pair.RefreshExpiry)
	s.metrics.Record("refresh", metrics.OutcomeSuccess)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"accessToken": pair.AccessToken,
		"token_type":  "Bearer",
		"expiry":      pair.AccessExpiry.Format(time.RFC3339),
	})
}

// handleLogout 一律回 200 並清除 cookie。
func (s *Server) handleLogout(c *gin.Context) {
	s.flow.Logout(c.Request.Context(), readRefreshCookie(c.Request))
	clearRefreshCookie(c.Writer)
	s.metrics.Record("logout", metrics.OutcomeSuccess)
	c.Status(http.StatusOK)
}

func (s *Server) handleMe(c *gin.Context) {
	claims, ok := accessClaims(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, errCodeUnauthorized, "unauthorized")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":       claims.UserID,
			"userName": claims.UserName,
			"roles":    authDomain.RoleNames(claims.Roles),
		},
		"expiry": claims.ExpiresAt.Format(time.RFC3339),
	})
}
