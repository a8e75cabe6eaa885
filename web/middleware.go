// ABOUTME: Request middleware: bearer-token auth, metrics and error translation
// ABOUTME: Lifecycle error kinds map to 404, 400 and 409
package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/harperreed/synchro/lifecycle"
	"github.com/harperreed/synchro/metrics"
)

const userKey = "user_id"

type claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 bearer token for userID that expires after ttl.
func IssueToken(secret, userID string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	if userID == "" {
		return "", errors.New("user id is empty")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

func (s *Server) parseToken(raw string) (string, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	if cl.UserID == "" {
		return "", errors.New("token has no user_id")
	}
	return cl.UserID, nil
}

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}
		userID, err := s.parseToken(strings.TrimSpace(raw))
		if err != nil {
			s.logger.Debug("rejected token", "err", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		c.Set(userKey, userID)
		return next(c)
	}
}

func currentUser(c echo.Context) string {
	id, _ := c.Get(userKey).(string)
	return id
}

func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request().Method
		status := strconv.Itoa(c.Response().Status)
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		s.logger.Debug("request", "method", method, "route", route, "status", status, "took", time.Since(start))
		return nil
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal server error"

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		msg = fmt.Sprint(he.Message)
	case errors.Is(err, lifecycle.ErrNotFound):
		code, msg = http.StatusNotFound, errMessage(err)
	case errors.Is(err, lifecycle.ErrInvalidInput):
		code, msg = http.StatusBadRequest, errMessage(err)
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrConflict):
		code, msg = http.StatusConflict, errMessage(err)
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "err", err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{Detail: msg})
}

func errMessage(err error) string {
	var le *lifecycle.Error
	if errors.As(err, &le) {
		return le.Msg
	}
	return err.Error()
}
