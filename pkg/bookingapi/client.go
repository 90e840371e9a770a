// Package bookingapi implements the client for the booking backend, which
// records the booking intent and issues the payment-provider redirect
// descriptor (URL plus signed form fields).
package bookingapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// BookingRequest is the payload sent to the booking endpoint.
type BookingRequest struct {
	PackageID       int     `json:"package_id"`
	PaymentAmount   float64 `json:"payment_amount"`
	TravelerName    string  `json:"traveler_name"`
	TravelerEmail   string  `json:"traveler_email"`
	TravelerPhone   string  `json:"traveler_phone"`
	TravelerAddress string  `json:"traveler_address"`
}

// BookingResponse is the booking endpoint's response body. On success the
// backend supplies the provider redirect URL and the POST form fields
// (including the server-computed integrity signature). Error and Message
// carry the server's explanation on rejection.
type BookingResponse struct {
	Success          bool              `json:"success"`
	PaymentURL       string            `json:"payment_url"`
	PaymentFormData  map[string]string `json:"payment_form_data"`
	BookingReference string            `json:"booking_reference"`
	BookingData      json.RawMessage   `json:"booking_data"`
	Error            string            `json:"error,omitempty"`
	Message          string            `json:"message,omitempty"`
}

// Result pairs the decoded response body with the HTTP status it arrived
// with. The client only fails when no response was received at all;
// classifying non-2xx or unsuccessful bodies is the caller's concern.
type Result struct {
	StatusCode int
	Status     string
	Body       BookingResponse
}

// OK reports whether the response arrived with a 2xx status.
func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client talks to the booking backend.
type Client struct {
	baseURL string
	rc      *resty.Client
}

// Config holds settings for the booking backend client.
type Config struct {
	// BaseURL is the full URL of the booking endpoint,
	// e.g. "https://api.example.com/api/bookings/".
	BaseURL string

	// Timeout bounds the booking call. Zero means no client-side timeout:
	// the provider redirect is the effective hard boundary.
	Timeout time.Duration
}

// NewClient creates a booking backend client.
func NewClient(cfg Config) *Client {
	rc := resty.New()
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}
	return &Client{baseURL: cfg.BaseURL, rc: rc}
}

// CreateBooking submits a booking and returns whatever the backend
// answered. An error is returned only on transport failure (no response).
// A response body that fails to decode yields a Result with an empty body,
// so callers can still branch on the HTTP status.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*Result, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("submit booking: %w", err)
	}

	result := &Result{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
	}

	// Tolerate an undecodable body; the status line still tells the story.
	_ = json.Unmarshal(resp.Body(), &result.Body)

	return result, nil
}
