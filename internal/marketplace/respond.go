package marketplace

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/peermart/peermart/internal/market"
)

// httpError maps domain errors onto HTTP statuses. Recoverable input and
// transition problems are 400s; custody invariant failures are the one
// case reported as a server fault.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, market.ErrInvalidInput),
		errors.Is(err, market.ErrSelfPurchase),
		errors.Is(err, market.ErrAmountMismatch),
		errors.Is(err, market.ErrInsufficientFunds),
		errors.Is(err, market.ErrInvalidTransition):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, market.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, market.ErrNotFound),
		errors.Is(err, market.ErrProductUnavailable):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, market.ErrCustodyMismatch):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// callerID extracts the authenticated identity set by the JWT middleware.
func callerID(c echo.Context) (string, bool) {
	uid, ok := c.Get("user_id").(string)
	return uid, ok && uid != ""
}

// pathID parses the numeric id path parameter.
func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
