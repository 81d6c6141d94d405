package util

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	apierrors "github.com/maskapp/mask/internal/errors"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err is a unique-constraint failure on
// either postgres or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// HandleDBError handles database errors and sends appropriate HTTP responses.
// Returns true if the error was handled (and a response was sent).
func HandleDBError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		RespondNotFound(c, resourceName)
	case IsUniqueViolation(err):
		RespondConflict(c, resourceName)
	default:
		RespondInternalError(c, "failed to access "+resourceName)
	}
	return true
}

// RespondError maps an error returned by a service: *APIError values are sent
// as-is, database errors go through HandleDBError.
func RespondError(c *gin.Context, err error, resourceName string) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		RespondWithAPIError(c, apiErr)
		return
	}
	HandleDBError(c, err, resourceName)
}
