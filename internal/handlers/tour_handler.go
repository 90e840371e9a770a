package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himalayatravels/tour-booking-backend/internal/models"
	"github.com/himalayatravels/tour-booking-backend/internal/services"
)

// TourHandler handles HTTP requests for the tour catalog
type TourHandler struct {
	catalog *services.CatalogService
	logger  *logrus.Logger
}

// NewTourHandler creates a new tour handler
func NewTourHandler(catalog *services.CatalogService, logger *logrus.Logger) *TourHandler {
	return &TourHandler{catalog: catalog, logger: logger}
}

// ListTours handles GET /api/v1/tours
// @Summary List tour packages
// @Description Returns the normalized tour package catalog
// @Tags Tours
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/tours [get]
func (h *TourHandler) ListTours(c *gin.Context) {
	packages := h.catalog.GetTourPackages(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"count":    len(packages),
		"packages": packages,
	})
}

// GetTour handles GET /api/v1/tours/:id
func (h *TourHandler) GetTour(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid tour id",
		})
		return
	}

	pkg, err := h.catalog.GetTourByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrTourNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Tour package not found",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to resolve tour package")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to load tour package",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"package": pkg,
	})
}

// RefreshTours handles POST /api/v1/tours/refresh. It drops the in-process
// catalog cache and fetches the upstream catalog again.
func (h *TourHandler) RefreshTours(c *gin.Context) {
	packages := h.catalog.Refresh(c.Request.Context())

	h.logger.WithField("count", len(packages)).Info("Tour catalog refreshed")

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"count":  len(packages),
	})
}
