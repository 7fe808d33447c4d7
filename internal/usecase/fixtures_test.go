package usecase

import (
	"context"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// travelDay is the departure date most tests search for.
var travelDay = time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// seg creates a segment departing at dep and lasting minutes.
func seg(carrier, number, from, to string, dep time.Time, minutes int) domain.Segment {
	return domain.Segment{
		MarketingCarrier: carrier,
		OperatingCarrier: carrier,
		FlightNumber:     number,
		Origin:           from,
		Destination:      to,
		DepartureAt:      dep,
		ArrivalAt:        dep.Add(time.Duration(minutes) * time.Minute),
		Cabin:            domain.CabinEconomy,
		DurationMinutes:  minutes,
	}
}

// itin builds an itinerary whose duration spans first departure to last arrival.
func itin(segs ...domain.Segment) domain.Itinerary {
	minutes := int(segs[len(segs)-1].ArrivalAt.Sub(segs[0].DepartureAt).Minutes())
	return domain.Itinerary{Segments: segs, Duration: domain.NewDurationInfo(minutes)}
}

// testOffer creates an unpriced single-adult offer.
func testOffer(id, source string, price float64, its ...domain.Itinerary) domain.Offer {
	return domain.Offer{
		ID:          id,
		Source:      source,
		Itineraries: its,
		Price: domain.Price{
			Base:     price * 0.8,
			Taxes:    price * 0.2,
			Total:    price,
			Currency: "USD",
		},
		PassengerPrices: []domain.PassengerPrice{{
			Type:  domain.PassengerAdult,
			Count: 1,
			Price: domain.Price{Base: price * 0.8, Taxes: price * 0.2, Total: price, Currency: "USD"},
		}},
		PassengerCount: 1,
		Net:            price,
	}
}

// oneWay creates a direct one-way offer JFK-MIA on travelDay.
func oneWay(id, carrier, number string, price float64, hour int) domain.Offer {
	return testOffer(id, "amadeus", price,
		itin(seg(carrier, number, "JFK", "MIA", at(travelDay, hour, 0), 180)))
}

// setupMockProvider creates a mock provider with standard behavior.
func setupMockProvider(ctrl *gomock.Controller, name string, offers []domain.Offer, err error) *domain.MockOfferProvider {
	mock := domain.NewMockOfferProvider(ctrl)
	mock.EXPECT().Name().Return(name).AnyTimes()
	mock.EXPECT().Search(gomock.Any(), gomock.Any()).Return(offers, err).AnyTimes()
	return mock
}

// setupMockProviderWithDelay creates a mock provider that simulates network delay.
func setupMockProviderWithDelay(ctrl *gomock.Controller, name string, offers []domain.Offer, delay time.Duration) *domain.MockOfferProvider {
	mock := domain.NewMockOfferProvider(ctrl)
	mock.EXPECT().Name().Return(name).AnyTimes()
	mock.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.SubSearch) ([]domain.Offer, error) {
			select {
			case <-time.After(delay):
				return offers, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	).AnyTimes()
	return mock
}

// setupMockProviderWithPanic creates a mock provider that panics.
func setupMockProviderWithPanic(ctrl *gomock.Controller, name string, panicMsg string) *domain.MockOfferProvider {
	mock := domain.NewMockOfferProvider(ctrl)
	mock.EXPECT().Name().Return(name).AnyTimes()
	mock.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.SubSearch) ([]domain.Offer, error) {
			panic(panicMsg)
		},
	).AnyTimes()
	return mock
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
