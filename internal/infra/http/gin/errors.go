package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"motelbook/internal/app/handlers/booking"
	"motelbook/internal/app/handlers/hotels"
	"motelbook/internal/app/handlers/inventory"
	"motelbook/internal/app/handlers/staff"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/middleware"
	authsvc "motelbook/internal/app/services/auth"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/daterange"
	"motelbook/internal/domain/shared/money"
	domainuser "motelbook/internal/domain/user"
	"motelbook/internal/infra/obs"
	"motelbook/internal/infra/validation"
)

var notFoundErrors = []error{
	domainbooking.ErrNotFound,
	domainhotel.ErrNotFound,
	domaininventory.ErrNotFound,
	domaininventory.ErrTypeNotFound,
	domainuser.ErrNotFound,
}

var conflictErrors = []error{
	domainbooking.ErrUnitUnavailable,
	domainbooking.ErrInvalidState,
	booking.ErrUnitBusy,
	domainhotel.ErrHasBookings,
	inventory.ErrUnitInUse,
	domaininventory.ErrNumberTaken,
	domainuser.ErrEmailAlreadyUsed,
	middleware.ErrIdempotencyKeyReused,
}

var badRequestErrors = []error{
	calday.ErrInvalidDay,
	daterange.ErrInvalidRange,
	money.ErrInvalidCurrency,
	money.ErrNegativeAmount,
	domainbooking.ErrHotelRequired,
	domainbooking.ErrUnitRequired,
	domainbooking.ErrClientRequired,
	domainbooking.ErrInvalidPhone,
	domainbooking.ErrAmountRequired,
	domainbooking.ErrPaymentDateRequired,
	domainbooking.ErrInvalidStatus,
	booking.ErrUnitNotInHotel,
	booking.ErrUnitKindMismatch,
	domainhotel.ErrNameRequired,
	domainhotel.ErrAddressRequired,
	domaininventory.ErrNumberRequired,
	domaininventory.ErrHotelRequired,
	domaininventory.ErrInvalidKind,
	domaininventory.ErrInvalidPrice,
	domainuser.ErrEmailRequired,
	domainuser.ErrNameRequired,
	domainuser.ErrInvalidRole,
	authsvc.ErrPasswordTooShort,
	hotels.ErrUnknownStaff,
	hotels.ErrPhotoRequired,
	hotels.ErrUnsupportedMimeType,
	staff.ErrDeleteSelf,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError maps an application error onto the HTTP status and body the
// API documents. Unknown errors are logged and reported as 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var fields validation.Errors
	switch {
	case errors.As(err, &fields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
	case errors.Is(err, support.ErrUnauthenticated), errors.Is(err, authsvc.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, support.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case isAny(err, notFoundErrors):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case isAny(err, conflictErrors):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case isAny(err, badRequestErrors):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, hotels.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		if logger != nil {
			logger.Error("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"request_id", obs.RequestIDFromContext(c.Request.Context()),
				"error", err,
			)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
