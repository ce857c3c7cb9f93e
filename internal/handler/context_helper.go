package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epiviu-api/internal/middleware"
	"github.com/noah-isme/epiviu-api/internal/models"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

func actorFromContext(c *gin.Context) (models.Actor, error) {
	claims := middleware.Claims(c)
	if claims == nil {
		return models.Actor{}, appErrors.ErrUnauthorized
	}
	return claims.Actor(), nil
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
