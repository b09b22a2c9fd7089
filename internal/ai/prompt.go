package ai

// extractionPrompt instructs the model to return only the target schema.
// Recognized document types are listed literally so the model does not invent
// categories.
const extractionPrompt = `Extract travel document information from the following and return ONLY a valid JSON object with these fields:

{
    "document_type": "string (e.g., Flight, Train, Bus, Hotel, Visa, Insurance)",
    "pnr_booking_id": "string (PNR/booking ID)",
    "route": "string (e.g., DEL-BOM, NYC-LAX)",
    "service_provider": "string (e.g., IndiGo, Indian Railways, Marriott)",
    "vehicle_number": "string (Flight/Train number, Room number, etc.)",
    "journey_date": "string (YYYY-MM-DD format)",
    "journey_time": "string (departure/check-in time)",
    "arrival_time": "string (arrival/check-out time)",
    "travel_class": "string (Economy, Business, Deluxe, etc.)",
    "booking_amount": "string (with currency)",
    "passenger_list": [
        {
            "name": "string",
            "age": "string",
            "primary": boolean
        }
    ],
    "additional_info": {}
}

If any field is not found or not applicable, use null. Return ONLY the JSON, no additional text.`

// ExtractionPrompt returns the fixed structuring instruction.
func ExtractionPrompt() string { return extractionPrompt }
