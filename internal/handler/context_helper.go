package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vtc-gradebook-api/internal/middleware"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
	"github.com/noah-isme/vtc-gradebook-api/pkg/response"
)

// actorFromContext resolves the authenticated caller. It writes a 401 and
// returns false when the request carries no claims.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return claims.Actor(), true
}

func bindError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
