package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	MinTickets = 1
	MaxTickets = 20
)

// FlexInt is an integer that accepts both JSON numbers and numeric strings.
// The booking form's ticket selector submits strings; API clients send
// numbers. Unparseable input decodes to 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Try a float ("2.0" or 2.0) before giving up
		if fl, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			*f = FlexInt(int(fl))
			return nil
		}
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

// BookingForm is the traveler-facing booking submission.
type BookingForm struct {
	PackageID int     `json:"package_id"`
	FullName  string  `json:"full_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
	Tickets   FlexInt `json:"tickets"`
}

// TicketCount returns the ticket count clamped to [MinTickets, MaxTickets].
// Unparseable or missing input defaults to 1.
func (f *BookingForm) TicketCount() int {
	n := int(f.Tickets)
	if n < MinTickets {
		return MinTickets
	}
	if n > MaxTickets {
		return MaxTickets
	}
	return n
}

// PackageSnapshot captures the selected package at submit time. It is
// persisted to transient storage so the return page can rebuild the outcome
// after the external payment redirect.
type PackageSnapshot struct {
	PackageID int     `json:"package_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
}

// TravelerInfo is the trimmed traveler snapshot captured at submit time.
type TravelerInfo struct {
	TravelerID string `json:"traveler_id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

// PaymentRedirect describes the provider handoff returned by the booking
// backend. The provider expects all fields as a POST form submission (the
// payload includes a server-computed integrity signature, so a plain GET
// redirect cannot carry it).
type PaymentRedirect struct {
	URL              string            `json:"payment_url"`
	Fields           map[string]string `json:"payment_form_data"`
	BookingReference string            `json:"booking_reference"`
}

// PaymentInfo is the payment snapshot rendered on the outcome page.
type PaymentInfo struct {
	Amount          float64 `json:"amount"`
	Date            string  `json:"date"`
	ESewaRefID      string  `json:"esewa_ref_id"`
	TransactionCode string  `json:"transaction_code"`
}

// PaymentOutcome is the reconstructed booking result shown after returning
// from the payment provider. Built from redirect query parameters when
// present, otherwise from the persisted handoff snapshots.
type PaymentOutcome struct {
	TicketID string          `json:"ticket_id"`
	Traveler TravelerInfo    `json:"traveler"`
	Package  PackageSnapshot `json:"package"`
	Payment  PaymentInfo     `json:"payment"`
}

// FailureInfo backs the payment-failure page: static likely causes plus a
// retry pointer when the package snapshot is still in transient storage.
type FailureInfo struct {
	Causes         []string `json:"causes"`
	CanRetry       bool     `json:"can_retry"`
	RetryPackageID int      `json:"retry_package_id,omitempty"`
}

// MarshalSnapshot serializes a snapshot value for transient storage.
func MarshalSnapshot(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
