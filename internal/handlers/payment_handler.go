package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himalayatravels/tour-booking-backend/internal/middleware"
	"github.com/himalayatravels/tour-booking-backend/internal/models"
	"github.com/himalayatravels/tour-booking-backend/internal/services"
)

// PaymentHandler handles the return navigation from the payment provider
type PaymentHandler struct {
	booking *services.BookingService
	logger  *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(booking *services.BookingService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{booking: booking, logger: logger}
}

// PaymentSuccess handles GET /api/v1/payment/success. The provider/backend
// re-enters the application here with the booking outcome in the query
// string; incomplete parameters fall back to the persisted handoff state.
func (h *PaymentHandler) PaymentSuccess(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	query := c.Request.URL.Query()

	outcome, err := h.booking.ResumeAfterRedirect(c.Request.Context(), sessionID, query)
	if err != nil {
		if errors.Is(err, models.ErrDetailsNotFound) {
			h.logger.Warn("Payment return with no query parameters and no handoff state")
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Booking details not found. Please contact support with your payment reference.",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to reconstruct payment outcome")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to load booking confirmation",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"ticket_id":  outcome.TicketID,
		"package_id": outcome.Package.PackageID,
	}).Info("Payment outcome rendered")

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"outcome": outcome,
	})
}

// PaymentFailure handles GET /api/v1/payment/failure. Read-only: the
// handoff state is kept so a retry can pre-select the same package.
func (h *PaymentHandler) PaymentFailure(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	info := h.booking.FailureDetails(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{
		"status":  "failed",
		"message": "Your payment could not be completed.",
		"details": info,
	})
}
