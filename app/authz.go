package app

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"toolcabinet-backend/db"
)

// Header carrying the per-city manager credential.
const ManagerKeyHeader = "X-Manager-Key"

// Authorizer answers whether a presented credential may manage a city.
// Account provisioning and identity live outside this service; all the
// lifecycle needs is this yes/no gate.
type Authorizer interface {
	Authorize(ctx context.Context, managerKey, cityID string) error
}

// CityKeyAuthorizer checks the credential against the city's configured key.
type CityKeyAuthorizer struct{ Repo *db.Repo }

func (a *CityKeyAuthorizer) Authorize(ctx context.Context, managerKey, cityID string) error {
	city, err := a.Repo.FindCityByID(ctx, cityID)
	if err != nil {
		return err
	}
	if city.ManagerKey == "" ||
		subtle.ConstantTimeCompare([]byte(managerKey), []byte(city.ManagerKey)) != 1 {
		return errForbidden
	}
	return nil
}

var errForbidden = forbiddenError{}

type forbiddenError struct{}

func (forbiddenError) Error() string { return "forbidden" }

// IsForbidden reports whether err is the authorization failure, so handlers
// can map it to 403 instead of 500.
func IsForbidden(err error) bool { return err == errForbidden }

// AdminOnly guards deployment-level endpoints (the sweep trigger) behind a
// single key from the environment.
func AdminOnly() gin.HandlerFunc {
	adminKey := os.Getenv("ADMIN_KEY")
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "admin key not configured"})
			return
		}
		presented := c.GetHeader("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(adminKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
