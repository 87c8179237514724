package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"toolcabinet-backend/app"
	"toolcabinet-backend/apperr"
	"toolcabinet-backend/config"
	"toolcabinet-backend/db"
	"toolcabinet-backend/notify"
)

// Srv bundles the dependencies every controller shares.
type Srv struct {
	Repo      *db.Repo
	Authorize app.Authorizer
	Pusher    notify.Pusher
	Mailer    notify.Mailer
	Throttle  notify.Throttle
	Lifecycle config.LifecycleConfig
}

func NewSrv(repo *db.Repo, authorize app.Authorizer, pusher notify.Pusher, mailer notify.Mailer, throttle notify.Throttle, lifecycle config.LifecycleConfig) *Srv {
	return &Srv{
		Repo:      repo,
		Authorize: authorize,
		Pusher:    pusher,
		Mailer:    mailer,
		Throttle:  throttle,
		Lifecycle: lifecycle,
	}
}

// renderErr maps business errors onto their HTTP status and merges the
// machine-readable detail into the body.
func renderErr(c *gin.Context, err error) {
	if e, ok := apperr.As(err); ok {
		body := app.H{"error": string(e.Kind), "message": e.Message}
		for k, v := range e.Detail {
			body[k] = v
		}
		c.JSON(e.HTTPStatus(), body)
		return
	}
	c.JSON(http.StatusInternalServerError, app.H{"error": "unexpected", "message": err.Error()})
}

// requireManager resolves the manager credential for cityID. It writes the
// response itself on failure and reports whether the caller may proceed.
func (s *Srv) requireManager(c *gin.Context, cityID string) bool {
	key := c.GetHeader(app.ManagerKeyHeader)
	if key == "" {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return false
	}
	if err := s.Authorize.Authorize(c.Request.Context(), key, cityID); err != nil {
		if app.IsForbidden(err) {
			c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		} else {
			renderErr(c, err)
		}
		return false
	}
	return true
}
