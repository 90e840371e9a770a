package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himalayatravels/tour-booking-backend/internal/middleware"
	"github.com/himalayatravels/tour-booking-backend/internal/services"
	"github.com/himalayatravels/tour-booking-backend/internal/storage"
	"github.com/himalayatravels/tour-booking-backend/pkg/bookingapi"
)

type fakeBookingAPI struct {
	result *bookingapi.Result
	err    error
	calls  int
}

func (f *fakeBookingAPI) CreateBooking(context.Context, bookingapi.BookingRequest) (*bookingapi.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func acceptedResult() *bookingapi.Result {
	return &bookingapi.Result{
		StatusCode: 200,
		Status:     "200 OK",
		Body: bookingapi.BookingResponse{
			Success:          true,
			PaymentURL:       "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
			PaymentFormData:  map[string]string{"total_amount": "2400", "signature": "sig=="},
			BookingReference: "BK-1001",
		},
	}
}

func newBookingRouter(tourAPI *fakeTourAPI, bookingAPI *fakeBookingAPI) (*gin.Engine, *storage.MemoryStore) {
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStore()
	catalog := services.NewCatalogService(tourAPI, services.NewTourCache(), testLogger())
	booking := services.NewBookingService(bookingAPI, store, testLogger(), time.Hour)

	bookingHandler := NewBookingHandler(catalog, booking, testLogger())
	paymentHandler := NewPaymentHandler(booking, testLogger())

	router := gin.New()
	router.Use(middleware.Session(86400, false))
	router.POST("/api/v1/bookings", bookingHandler.SubmitBooking)
	router.GET("/api/v1/payment/success", paymentHandler.PaymentSuccess)
	router.GET("/api/v1/payment/failure", paymentHandler.PaymentFailure)
	return router, store
}

func bookingBody() string {
	return `{
		"package_id": 1,
		"full_name": "Jane Doe",
		"email": "jane@example.com",
		"phone": "9800000000",
		"address": "Kathmandu",
		"tickets": 2
	}`
}

func TestSubmitBooking_HTMLRedirectForm(t *testing.T) {
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, &fakeBookingAPI{result: acceptedResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(bookingBody()))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	page := w.Body.String()
	assert.Contains(t, page, `action="https://rc-epay.esewa.com.np/api/epay/main/v2/form"`)
	assert.Contains(t, page, `name="signature" value="sig=="`)
	assert.Contains(t, page, `name="total_amount" value="2400"`)
	assert.Contains(t, page, "document.forms[0].submit()")
}

func TestSubmitBooking_JSONRedirectDescriptor(t *testing.T) {
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, &fakeBookingAPI{result: acceptedResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(bookingBody()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string `json:"status"`
		Redirect struct {
			URL    string            `json:"payment_url"`
			Fields map[string]string `json:"payment_form_data"`
		} `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "https://rc-epay.esewa.com.np/api/epay/main/v2/form", body.Redirect.URL)
	assert.Equal(t, "sig==", body.Redirect.Fields["signature"])
}

func TestSubmitBooking_SetsSessionCookie(t *testing.T) {
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, &fakeBookingAPI{result: acceptedResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(bookingBody()))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == middleware.SessionCookieName {
			found = true
			assert.NotEmpty(t, cookie.Value)
			assert.True(t, cookie.HttpOnly)
		}
	}
	assert.True(t, found, "first contact must issue the session cookie")
}

func TestSubmitBooking_InvalidBody(t *testing.T) {
	api := &fakeBookingAPI{result: acceptedResult()}
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, api)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, api.calls)
}

func TestSubmitBooking_MissingFields(t *testing.T) {
	api := &fakeBookingAPI{result: acceptedResult()}
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, api)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings",
		strings.NewReader(`{"package_id":1,"full_name":"Jane Doe","tickets":2}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Missing []string `json:"missing_fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Email", "Phone Number", "Address"}, body.Missing)
	assert.Equal(t, 0, api.calls)
}

func TestSubmitBooking_UnknownPackage(t *testing.T) {
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, &fakeBookingAPI{result: acceptedResult()})

	w := httptest.NewRecorder()
	body := strings.Replace(bookingBody(), `"package_id": 1`, `"package_id": 404`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitBooking_BackendRejects(t *testing.T) {
	api := &fakeBookingAPI{result: &bookingapi.Result{
		StatusCode: 200,
		Status:     "200 OK",
		Body:       bookingapi.BookingResponse{Success: false, Error: "Package sold out"},
	}}
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, api)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(bookingBody()))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Package sold out", body.Message)
}

func TestSubmitBooking_BackendUnreachable(t *testing.T) {
	api := &fakeBookingAPI{err: errors.New("dial tcp: connection refused")}
	router, _ := newBookingRouter(&fakeTourAPI{records: catalogRecords()}, api)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(bookingBody()))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
