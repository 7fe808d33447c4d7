package duffel

// Request and response shapes of POST /air/offer_requests.

type offerRequestBody struct {
	Data offerRequest `json:"data"`
}

type offerRequest struct {
	Slices         []requestSlice     `json:"slices"`
	Passengers     []requestPassenger `json:"passengers"`
	CabinClass     string             `json:"cabin_class"`
	MaxConnections *int               `json:"max_connections,omitempty"`
}

type requestSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type requestPassenger struct {
	Type string `json:"type,omitempty"`
	Age  *int   `json:"age,omitempty"`
}

// OfferRequestResponse is the top-level response body.
type OfferRequestResponse struct {
	Data struct {
		ID     string  `json:"id"`
		Offers []Offer `json:"offers"`
	} `json:"data"`
}

// Offer is one priced fare of a physical itinerary.
type Offer struct {
	ID             string           `json:"id"`
	Owner          Carrier          `json:"owner"`
	Slices         []Slice          `json:"slices"`
	Passengers     []OfferPassenger `json:"passengers"`
	TotalAmount    string           `json:"total_amount"`
	TotalCurrency  string           `json:"total_currency"`
	BaseAmount     string           `json:"base_amount"`
	TaxAmount      string           `json:"tax_amount"`
	Conditions     *Conditions      `json:"conditions,omitempty"`
	AvailableSeats *int             `json:"available_seats,omitempty"`
}

// Carrier identifies an airline.
type Carrier struct {
	IATACode string `json:"iata_code"`
	Name     string `json:"name,omitempty"`
}

// Place identifies an airport.
type Place struct {
	IATACode string `json:"iata_code"`
}

// Slice is one direction of travel.
type Slice struct {
	Origin        Place     `json:"origin"`
	Destination   Place     `json:"destination"`
	Duration      string    `json:"duration"`
	FareBrandName string    `json:"fare_brand_name"`
	Segments      []Segment `json:"segments"`
}

// Segment is one flown leg.
type Segment struct {
	ID                           string             `json:"id"`
	Origin                       Place              `json:"origin"`
	Destination                  Place              `json:"destination"`
	DepartingAt                  string             `json:"departing_at"`
	ArrivingAt                   string             `json:"arriving_at"`
	Duration                     string             `json:"duration"`
	MarketingCarrier             Carrier            `json:"marketing_carrier"`
	MarketingCarrierFlightNumber string             `json:"marketing_carrier_flight_number"`
	OperatingCarrier             *Carrier           `json:"operating_carrier,omitempty"`
	Aircraft                     *Aircraft          `json:"aircraft,omitempty"`
	Passengers                   []SegmentPassenger `json:"passengers"`
}

// Aircraft identifies the equipment.
type Aircraft struct {
	IATACode string `json:"iata_code"`
}

// SegmentPassenger is the fare of one segment for one passenger.
type SegmentPassenger struct {
	PassengerID   string `json:"passenger_id"`
	CabinClass    string `json:"cabin_class"`
	FareBasisCode string `json:"fare_basis_code"`
	BookingClass  string `json:"booking_class,omitempty"`
}

// OfferPassenger is a passenger of the offer.
type OfferPassenger struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Conditions are the change and refund rules of the fare.
type Conditions struct {
	RefundBeforeDeparture *Condition `json:"refund_before_departure"`
	ChangeBeforeDeparture *Condition `json:"change_before_departure"`
}

// Condition is one rule. PenaltyAmount is null when free or not allowed.
type Condition struct {
	Allowed       bool    `json:"allowed"`
	PenaltyAmount *string `json:"penalty_amount"`
}
