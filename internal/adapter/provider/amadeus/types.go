package amadeus

// Raw response shapes of GET /v2/shopping/flight-offers. Only the fields the
// normalizer reads are modelled.

// FlightOffersResponse is the top-level response body.
type FlightOffersResponse struct {
	Data   []FlightOffer `json:"data"`
	Errors []APIError    `json:"errors,omitempty"`
}

// APIError is one entry of an error response.
type APIError struct {
	Status int    `json:"status"`
	Code   int    `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// FlightOffer is one priced itinerary.
type FlightOffer struct {
	ID                     string            `json:"id"`
	Source                 string            `json:"source"`
	NumberOfBookableSeats  int               `json:"numberOfBookableSeats"`
	Itineraries            []Itinerary       `json:"itineraries"`
	Price                  OfferPrice        `json:"price"`
	PricingOptions         PricingOptions    `json:"pricingOptions"`
	ValidatingAirlineCodes []string          `json:"validatingAirlineCodes"`
	TravelerPricings       []TravelerPricing `json:"travelerPricings"`
}

// Itinerary is one direction of travel.
type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Segment is one flown leg.
type Segment struct {
	ID          string       `json:"id"`
	Departure   FlightPoint  `json:"departure"`
	Arrival     FlightPoint  `json:"arrival"`
	CarrierCode string       `json:"carrierCode"`
	Number      string       `json:"number"`
	Aircraft    AircraftInfo `json:"aircraft"`
	Operating   *Operating   `json:"operating,omitempty"`
	Duration    string       `json:"duration"`
}

// FlightPoint is an airport and local time.
type FlightPoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

// AircraftInfo identifies the equipment.
type AircraftInfo struct {
	Code string `json:"code"`
}

// Operating identifies the operating carrier of a codeshare.
type Operating struct {
	CarrierCode string `json:"carrierCode"`
}

// OfferPrice is the price of the whole offer. Amounts are decimal strings.
type OfferPrice struct {
	Currency   string `json:"currency"`
	Total      string `json:"total"`
	Base       string `json:"base"`
	GrandTotal string `json:"grandTotal"`
}

// PricingOptions lists fare types such as PUBLISHED or NEGOTIATED.
type PricingOptions struct {
	FareType                []string `json:"fareType"`
	IncludedCheckedBagsOnly bool     `json:"includedCheckedBagsOnly"`
}

// TravelerPricing is the price of one traveler.
type TravelerPricing struct {
	TravelerID           string              `json:"travelerId"`
	FareOption           string              `json:"fareOption"`
	TravelerType         string              `json:"travelerType"`
	Price                TravelerPrice       `json:"price"`
	FareDetailsBySegment []FareDetailSegment `json:"fareDetailsBySegment"`
}

// TravelerPrice is the price of one traveler.
type TravelerPrice struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
	Base     string `json:"base"`
}

// FareDetailSegment is the fare of one segment for one traveler.
type FareDetailSegment struct {
	SegmentID   string `json:"segmentId"`
	Cabin       string `json:"cabin"`
	FareBasis   string `json:"fareBasis"`
	BrandedFare string `json:"brandedFare,omitempty"`
	Class       string `json:"class"`
}
