package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himalayatravels/tour-booking-backend/internal/middleware"
	"github.com/himalayatravels/tour-booking-backend/internal/models"
	"github.com/himalayatravels/tour-booking-backend/internal/services"
	"github.com/himalayatravels/tour-booking-backend/internal/utils"
)

// redirectFormTemplate renders the provider handoff as an auto-submitting
// form POST. The provider expects POST-encoded fields including a
// server-computed integrity signature, so a GET redirect cannot carry the
// payload.
var redirectFormTemplate = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head><title>Redirecting to payment</title></head>
<body onload="document.forms[0].submit()">
<p>Redirecting you to the payment gateway. Please wait...</p>
<form method="POST" action="{{.URL}}">
{{- range $name, $value := .Fields}}
<input type="hidden" name="{{$name}}" value="{{$value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

// BookingHandler handles booking submissions and the payment handoff
type BookingHandler struct {
	catalog *services.CatalogService
	booking *services.BookingService
	logger  *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(catalog *services.CatalogService, booking *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{catalog: catalog, booking: booking, logger: logger}
}

// SubmitBooking handles POST /api/v1/bookings
// @Summary Submit a booking
// @Description Validates the booking form, registers the booking with the backend and hands the client off to the payment provider
// @Tags Bookings
// @Accept json
// @Produce html
// @Param booking body models.BookingForm true "Booking form"
// @Success 200 {string} string "Auto-submitting payment redirect form"
// @Failure 400 {object} map[string]interface{} "Missing required fields"
// @Failure 404 {object} map[string]interface{} "Unknown package"
// @Router /api/v1/bookings [post]
func (h *BookingHandler) SubmitBooking(c *gin.Context) {
	var form models.BookingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.logger.WithError(err).Warn("Invalid booking request body")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
		})
		return
	}

	device := utils.ParseUserAgent(c.Request.UserAgent())
	h.logger.WithFields(logrus.Fields{
		"package_id": form.PackageID,
		"ip":         c.ClientIP(),
		"device":     device.DeviceType,
		"browser":    device.Browser,
		"os":         device.OS,
	}).Info("Booking submission received")

	pkg, err := h.catalog.GetTourByID(c.Request.Context(), form.PackageID)
	if err != nil {
		if errors.Is(err, models.ErrTourNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Selected tour package not found",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to resolve booked package")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to process booking. Please try again later.",
		})
		return
	}

	sessionID := middleware.SessionID(c)
	redirect, err := h.booking.SubmitBooking(c.Request.Context(), sessionID, *pkg, form)
	if err != nil {
		h.respondSubmitError(c, err)
		return
	}

	// API clients get the redirect descriptor as JSON; browsers get the
	// auto-submitting form page.
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "success",
			"redirect": redirect,
		})
		return
	}

	var page bytes.Buffer
	if err := redirectFormTemplate.Execute(&page, redirect); err != nil {
		h.logger.WithError(err).Error("Failed to render payment redirect form")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to prepare payment redirect",
		})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

func (h *BookingHandler) respondSubmitError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var rejectedErr *models.BookingRejectedError
	var unreachableErr *models.BackendUnreachableError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"status":         "error",
			"message":        "Please fill in all required fields",
			"missing_fields": validationErr.MissingFields,
		})
	case errors.As(err, &rejectedErr):
		h.logger.WithField("reason", rejectedErr.Message).Warn("Booking rejected by backend")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":  "error",
			"message": rejectedErr.Message,
		})
	case errors.As(err, &unreachableErr):
		h.logger.WithError(err).Error("Booking backend unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "Could not reach the booking service. Please check your connection and try again.",
		})
	default:
		h.logger.WithError(err).Error("Booking submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to process booking. Please try again later.",
		})
	}
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
