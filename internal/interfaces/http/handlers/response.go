// internal/interfaces/http/handlers/response.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch errs.Kind(err) {
	case errs.ErrAuthRequired, errs.ErrWrongCredential:
		return http.StatusUnauthorized
	case errs.ErrForbidden, errs.ErrDisabled:
		return http.StatusForbidden
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrValidation, errs.ErrInvalidEmail, errs.ErrWeakPassword:
		return http.StatusBadRequest
	case errs.ErrDuplicateEmail, errs.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status its kind maps to. Server errors are
// logged with their cause and reported to the client without it.
func respondError(c *gin.Context, log logrus.FieldLogger, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error(fallback)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": fallback})
		return
	}

	message := err.Error()
	if errors.Is(err, errs.ErrConflict) {
		message = "The resource was modified concurrently, reload and try again"
	}
	c.JSON(status, gin.H{"error": message})
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}

// currentIdentity returns the signed-in identity or answers 401
func currentIdentity(c *gin.Context) (*user.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}
	return identity, true
}
