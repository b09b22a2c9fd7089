package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseRecord converts a raw model response into a Record. The model is told to
// return bare JSON but routinely wraps it in code fences or prose; we strip
// fences, cut to the outermost object and decode leniently: unknown keys are
// ignored, missing keys stay nil and scalar fields tolerate non-string values.
func ParseRecord(raw string) (*Record, error) {
	text := stripFences(raw)

	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		// Last resort: the outermost {...} block, in case the model added prose.
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, &ResponseParseError{Err: err}
		}
		if err2 := json.Unmarshal([]byte(text[start:end+1]), &m); err2 != nil {
			return nil, &ResponseParseError{Err: err}
		}
	}

	rec := &Record{
		DocumentType:    asString(m["document_type"]),
		PNRBookingID:    asString(m["pnr_booking_id"]),
		Route:           asString(m["route"]),
		ServiceProvider: asString(m["service_provider"]),
		VehicleNumber:   asString(m["vehicle_number"]),
		JourneyDate:     asString(m["journey_date"]),
		JourneyTime:     asString(m["journey_time"]),
		ArrivalTime:     asString(m["arrival_time"]),
		TravelClass:     asString(m["travel_class"]),
		BookingAmount:   asString(m["booking_amount"]),
		PassengerList:   asPassengers(m["passenger_list"]),
		AdditionalInfo:  asStringMap(m["additional_info"]),
	}
	return rec, nil
}

// stripFences removes markdown code fences the model wraps around JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// asString coerces scalars to a string pointer; null, absent and empty map to nil.
func asString(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") {
			return nil
		}
		return &s
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	case bool:
		s := strconv.FormatBool(t)
		return &s
	default:
		return nil
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	case float64:
		return t != 0
	default:
		return false
	}
}

// asPassengers decodes the passenger list, preserving order and skipping
// entries that are not objects.
func asPassengers(v any) []Passenger {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []Passenger
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Passenger{
			Name:    asString(obj["name"]),
			Age:     asString(obj["age"]),
			Primary: asBool(obj["primary"]),
		})
	}
	return out
}

// asStringMap flattens the open additional_info object into string values.
func asStringMap(v any) map[string]string {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		switch t := val.(type) {
		case nil:
			continue
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			b, err := json.Marshal(t)
			if err != nil {
				out[k] = fmt.Sprintf("%v", t)
				continue
			}
			out[k] = string(b)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
