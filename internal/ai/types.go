package ai

import (
	"errors"
	"fmt"
)

// Passenger is one traveler on the document.
type Passenger struct {
	Name    *string `json:"name"`
	Age     *string `json:"age"`
	Primary bool    `json:"primary"`
}

// Record is the canonical structured output extracted from one travel document.
// Every field is nullable: absence means "not found in the source document".
type Record struct {
	DocumentType    *string           `json:"document_type"`
	PNRBookingID    *string           `json:"pnr_booking_id"`
	Route           *string           `json:"route"`
	ServiceProvider *string           `json:"service_provider"`
	VehicleNumber   *string           `json:"vehicle_number"`
	JourneyDate     *string           `json:"journey_date"`
	JourneyTime     *string           `json:"journey_time"`
	ArrivalTime     *string           `json:"arrival_time"`
	TravelClass     *string           `json:"travel_class"`
	BookingAmount   *string           `json:"booking_amount"`
	PassengerList   []Passenger       `json:"passenger_list"`
	AdditionalInfo  map[string]string `json:"additional_info"`
}

// ErrRateLimited signals a 429 from the completion service.
var ErrRateLimited = errors.New("rate_limited")

// ServiceError indicates a network, auth or rate-limit failure from the AI
// completion service. Terminal for the file; retry policy belongs to the caller's
// transport layer, not here.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("AI structuring failed: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ResponseParseError indicates the AI response could not be parsed into a Record
// at all. Missing or malformed individual fields never cause this; only a
// completely unusable response does.
type ResponseParseError struct {
	Err error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("AI response parsing failed: %v", e.Err)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }
