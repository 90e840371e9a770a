package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himalayatravels/tour-booking-backend/internal/middleware"
)

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestPaymentSuccess_FromQueryParameters(t *testing.T) {
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, &fakeBookingAPI{result: acceptedResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/payment/success?ticket_id=42&traveler_name=Jane+Doe&traveler_email=jane%40example.com"+
			"&package_id=1&package_title=Everest&package_price=1200&payment_amount=2400"+
			"&payment_date=2026-08-01&esewa_ref_id=ESW123&transaction_code=TXN456", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status  string `json:"status"`
		Outcome struct {
			TicketID string `json:"ticket_id"`
			Traveler struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			} `json:"traveler"`
			Package struct {
				PackageID int     `json:"package_id"`
				Title     string  `json:"title"`
				Price     float64 `json:"price"`
			} `json:"package"`
			Payment struct {
				Amount          float64 `json:"amount"`
				Date            string  `json:"date"`
				ESewaRefID      string  `json:"esewa_ref_id"`
				TransactionCode string  `json:"transaction_code"`
			} `json:"payment"`
		} `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "42", body.Outcome.TicketID)
	assert.Equal(t, "Jane Doe", body.Outcome.Traveler.Name)
	assert.Equal(t, "jane@example.com", body.Outcome.Traveler.Email)
	assert.Equal(t, 1, body.Outcome.Package.PackageID)
	assert.Equal(t, float64(2400), body.Outcome.Payment.Amount)
	assert.Equal(t, "ESW123", body.Outcome.Payment.ESewaRefID)
	assert.Equal(t, "TXN456", body.Outcome.Payment.TransactionCode)
}

func TestPaymentSuccess_FallbackFromHandoffState(t *testing.T) {
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, &fakeBookingAPI{result: acceptedResult()})

	// Submit a booking to seed the handoff state for this session.
	submit := httptest.NewRecorder()
	submitReq := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(bookingBody()))
	submitReq.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(submit, submitReq)
	require.Equal(t, http.StatusOK, submit.Code)

	cookie := sessionCookie(t, submit)

	// Return from the provider with no query parameters at all.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/success", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Outcome struct {
			TicketID string `json:"ticket_id"`
			Traveler struct {
				Name string `json:"name"`
			} `json:"traveler"`
			Payment struct {
				Amount     float64 `json:"amount"`
				ESewaRefID string  `json:"esewa_ref_id"`
			} `json:"payment"`
		} `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "BK-1001", body.Outcome.TicketID)
	assert.Equal(t, "Jane Doe", body.Outcome.Traveler.Name)
	assert.Equal(t, float64(2400), body.Outcome.Payment.Amount)
	assert.Equal(t, "N/A", body.Outcome.Payment.ESewaRefID)

	// The handoff state is single-use: a repeat visit finds nothing.
	repeat := httptest.NewRecorder()
	repeatReq := httptest.NewRequest(http.MethodGet, "/api/v1/payment/success", nil)
	repeatReq.AddCookie(cookie)
	router.ServeHTTP(repeat, repeatReq)
	assert.Equal(t, http.StatusNotFound, repeat.Code)
}

func TestPaymentSuccess_NothingToResume(t *testing.T) {
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, &fakeBookingAPI{result: acceptedResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/success", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "contact support")
}

func TestPaymentFailure(t *testing.T) {
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, &fakeBookingAPI{result: acceptedResult()})

	submit := httptest.NewRecorder()
	submitReq := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(bookingBody()))
	submitReq.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(submit, submitReq)
	require.Equal(t, http.StatusOK, submit.Code)

	cookie := sessionCookie(t, submit)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/failure", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status  string `json:"status"`
		Details struct {
			Causes         []string `json:"causes"`
			CanRetry       bool     `json:"can_retry"`
			RetryPackageID int      `json:"retry_package_id"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "failed", body.Status)
	assert.NotEmpty(t, body.Details.Causes)
	assert.True(t, body.Details.CanRetry)
	assert.Equal(t, 1, body.Details.RetryPackageID)

	// Failure view is read-only: a success return can still resume.
	resume := httptest.NewRecorder()
	resumeReq := httptest.NewRequest(http.MethodGet, "/api/v1/payment/success", nil)
	resumeReq.AddCookie(cookie)
	router.ServeHTTP(resume, resumeReq)
	assert.Equal(t, http.StatusOK, resume.Code)
}

func TestPaymentFailure_WithoutSubmission(t *testing.T) {
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, &fakeBookingAPI{result: acceptedResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/failure", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Details struct {
			CanRetry bool `json:"can_retry"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Details.CanRetry)
}
