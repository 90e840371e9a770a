package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/himalayatravels/tour-booking-backend/internal/models"
	"github.com/himalayatravels/tour-booking-backend/internal/storage"
	"github.com/himalayatravels/tour-booking-backend/pkg/bookingapi"
)

// BookingAPI is the outbound booking backend client used by the coordinator.
type BookingAPI interface {
	CreateBooking(ctx context.Context, req bookingapi.BookingRequest) (*bookingapi.Result, error)
}

// Transient storage keys for the payment handoff state. Written at submit
// time, read back by the return page and cleared once consumed.
const (
	KeyBookingReference = "booking_reference"
	KeyBookingData      = "booking_data"
	KeyPackageInfo      = "package_info"
	KeyTravelerInfo     = "traveler_info"
)

var handoffKeyNames = []string{KeyBookingReference, KeyBookingData, KeyPackageInfo, KeyTravelerInfo}

const placeholder = "N/A"

// paymentFailureCauses is the static explanation list shown on the payment
// failure page.
var paymentFailureCauses = []string{
	"Insufficient balance in your eSewa account",
	"The payment was cancelled on the eSewa page",
	"The payment session timed out before completion",
	"A network interruption occurred during the transaction",
}

// BookingService coordinates the payment handoff: it validates the booking
// form, obtains the provider redirect from the booking backend, persists the
// state needed to resume after the external redirect, and rebuilds the
// outcome when the client returns.
type BookingService struct {
	api        BookingAPI
	store      storage.Store
	logger     *logrus.Logger
	handoffTTL time.Duration
	now        func() time.Time
}

// NewBookingService creates a booking handoff coordinator. handoffTTL bounds
// how long the persisted state survives while the client is off at the
// payment provider.
func NewBookingService(api BookingAPI, store storage.Store, logger *logrus.Logger, handoffTTL time.Duration) *BookingService {
	return &BookingService{
		api:        api,
		store:      store,
		logger:     logger,
		handoffTTL: handoffTTL,
		now:        time.Now,
	}
}

func handoffKey(sessionID, name string) string {
	return "handoff:" + sessionID + ":" + name
}

// SubmitBooking validates the form, computes the payment amount, submits the
// booking to the backend and, on success, persists the handoff state and
// returns the provider redirect descriptor. Every failure path leaves the
// store untouched so the user can simply retry.
func (s *BookingService) SubmitBooking(ctx context.Context, sessionID string, pkg models.TourPackage, form models.BookingForm) (*models.PaymentRedirect, error) {
	name := strings.TrimSpace(form.FullName)
	email := strings.TrimSpace(form.Email)
	phone := strings.TrimSpace(form.Phone)
	address := strings.TrimSpace(form.Address)

	var missing []string
	if name == "" {
		missing = append(missing, "Full Name")
	}
	if email == "" {
		missing = append(missing, "Email")
	}
	if phone == "" {
		missing = append(missing, "Phone Number")
	}
	if address == "" {
		missing = append(missing, "Address")
	}
	if len(missing) > 0 {
		return nil, &models.ValidationError{MissingFields: missing}
	}

	tickets := form.TicketCount()
	amount := pkg.Price * float64(tickets)

	s.logger.WithFields(logrus.Fields{
		"package_id": pkg.ID,
		"tickets":    tickets,
		"amount":     amount,
	}).Info("Submitting booking to backend")

	result, err := s.api.CreateBooking(ctx, bookingapi.BookingRequest{
		PackageID:       pkg.ID,
		PaymentAmount:   amount,
		TravelerName:    name,
		TravelerEmail:   email,
		TravelerPhone:   phone,
		TravelerAddress: address,
	})
	if err != nil {
		return nil, &models.BackendUnreachableError{Err: err}
	}

	if !result.OK() {
		return nil, &models.BookingRejectedError{Message: rejectionMessage(result.Body, result.Status)}
	}

	body := result.Body
	if !body.Success || body.PaymentURL == "" || len(body.PaymentFormData) == 0 {
		return nil, &models.BookingRejectedError{
			Message: rejectionMessage(body, "Booking could not be processed. Please try again."),
		}
	}

	packageInfo, err := models.MarshalSnapshot(models.PackageSnapshot{
		PackageID: pkg.ID,
		Title:     pkg.Title,
		Price:     pkg.Price,
		Amount:    amount,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize package snapshot: %w", err)
	}
	travelerInfo, err := models.MarshalSnapshot(models.TravelerInfo{
		Name:    name,
		Email:   email,
		Phone:   phone,
		Address: address,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize traveler snapshot: %w", err)
	}

	values := map[string]string{
		KeyBookingReference: body.BookingReference,
		KeyBookingData:      string(body.BookingData),
		KeyPackageInfo:      packageInfo,
		KeyTravelerInfo:     travelerInfo,
	}
	for keyName, value := range values {
		if err := s.store.Set(ctx, handoffKey(sessionID, keyName), value, s.handoffTTL); err != nil {
			// Roll back the partial write so a retry starts clean.
			s.clearHandoff(ctx, sessionID)
			return nil, fmt.Errorf("persist handoff state: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"booking_reference": body.BookingReference,
		"payment_url":       body.PaymentURL,
	}).Info("Booking accepted, redirecting to payment provider")

	return &models.PaymentRedirect{
		URL:              body.PaymentURL,
		Fields:           body.PaymentFormData,
		BookingReference: body.BookingReference,
	}, nil
}

func rejectionMessage(body bookingapi.BookingResponse, fallback string) string {
	if body.Error != "" {
		return body.Error
	}
	if body.Message != "" {
		return body.Message
	}
	return fallback
}

// ResumeAfterRedirect rebuilds the payment outcome when the client returns
// from the provider. Redirect query parameters are the primary source;
// persisted handoff state is the fallback. On success via either path the
// handoff state is cleared: it is single-use. When neither source is
// available the condition is models.ErrDetailsNotFound.
func (s *BookingService) ResumeAfterRedirect(ctx context.Context, sessionID string, query url.Values) (*models.PaymentOutcome, error) {
	ticketID := strings.TrimSpace(query.Get("ticket_id"))
	travelerName := strings.TrimSpace(query.Get("traveler_name"))

	if ticketID != "" && travelerName != "" {
		outcome := s.outcomeFromQuery(ticketID, travelerName, query)
		s.clearHandoff(ctx, sessionID)
		return outcome, nil
	}

	s.logger.Warn("Redirect query incomplete, reconstructing outcome from handoff storage")

	travelerRaw, ok, err := s.store.Get(ctx, handoffKey(sessionID, KeyTravelerInfo))
	if err != nil {
		return nil, fmt.Errorf("read handoff state: %w", err)
	}
	if !ok {
		return nil, models.ErrDetailsNotFound
	}

	var traveler models.TravelerInfo
	if err := json.Unmarshal([]byte(travelerRaw), &traveler); err != nil {
		s.logger.WithError(err).Error("Corrupt traveler snapshot in handoff storage")
		return nil, models.ErrDetailsNotFound
	}

	var pkg models.PackageSnapshot
	if packageRaw, ok, err := s.store.Get(ctx, handoffKey(sessionID, KeyPackageInfo)); err == nil && ok {
		if err := json.Unmarshal([]byte(packageRaw), &pkg); err != nil {
			s.logger.WithError(err).Warn("Corrupt package snapshot in handoff storage")
		}
	}

	reference := placeholder
	if ref, ok, err := s.store.Get(ctx, handoffKey(sessionID, KeyBookingReference)); err == nil && ok && ref != "" {
		reference = ref
	}

	outcome := &models.PaymentOutcome{
		TicketID: reference,
		Traveler: traveler,
		Package:  pkg,
		Payment: models.PaymentInfo{
			Amount:          pkg.Amount,
			Date:            s.now().Format("2006-01-02"),
			ESewaRefID:      placeholder,
			TransactionCode: placeholder,
		},
	}

	s.clearHandoff(ctx, sessionID)
	return outcome, nil
}

// outcomeFromQuery builds the outcome from the provider/backend redirect
// parameters. Missing secondary fields default to a placeholder rather than
// failing.
func (s *BookingService) outcomeFromQuery(ticketID, travelerName string, query url.Values) *models.PaymentOutcome {
	packageID, _ := strconv.Atoi(query.Get("package_id"))
	price, _ := strconv.ParseFloat(query.Get("package_price"), 64)
	amount, _ := strconv.ParseFloat(query.Get("payment_amount"), 64)

	date := strings.TrimSpace(query.Get("payment_date"))
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	return &models.PaymentOutcome{
		TicketID: ticketID,
		Traveler: models.TravelerInfo{
			TravelerID: query.Get("traveler_id"),
			Name:       travelerName,
			Email:      query.Get("traveler_email"),
		},
		Package: models.PackageSnapshot{
			PackageID: packageID,
			Title:     paramOr(query, "package_title", placeholder),
			Price:     price,
			Amount:    amount,
		},
		Payment: models.PaymentInfo{
			Amount:          amount,
			Date:            date,
			ESewaRefID:      paramOr(query, "esewa_ref_id", placeholder),
			TransactionCode: paramOr(query, "transaction_code", placeholder),
		},
	}
}

func paramOr(query url.Values, key, def string) string {
	if value := strings.TrimSpace(query.Get(key)); value != "" {
		return value
	}
	return def
}

// FailureDetails backs the payment failure page. Read-only with respect to
// the handoff state: a retry must still find the package snapshot.
func (s *BookingService) FailureDetails(ctx context.Context, sessionID string) models.FailureInfo {
	info := models.FailureInfo{Causes: paymentFailureCauses}

	raw, ok, err := s.store.Get(ctx, handoffKey(sessionID, KeyPackageInfo))
	if err != nil || !ok {
		return info
	}

	var pkg models.PackageSnapshot
	if err := json.Unmarshal([]byte(raw), &pkg); err != nil || pkg.PackageID == 0 {
		return info
	}

	info.CanRetry = true
	info.RetryPackageID = pkg.PackageID
	return info
}

func (s *BookingService) clearHandoff(ctx context.Context, sessionID string) {
	keys := make([]string, 0, len(handoffKeyNames))
	for _, name := range handoffKeyNames {
		keys = append(keys, handoffKey(sessionID, name))
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		s.logger.WithError(err).Warn("Failed to clear handoff state")
	}
}
