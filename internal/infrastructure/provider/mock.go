package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"travel-search/internal/domain/search"
	"travel-search/internal/usecase"
)

var (
	airlines     = []string{"IndiGo", "Air India", "SpiceJet", "Vistara", "GoAir"}
	flightTimes  = []string{"06:00", "09:30", "12:15", "15:45", "18:20", "21:00"}
	hotelNames   = []string{"Grand Hotel", "Royal Palace", "City View Inn", "Luxury Suites", "Comfort Stay", "Paradise Resort", "Sunset Hotel", "Ocean View", "Mountain Lodge", "Garden Plaza"}
	hotelPerks   = [][]string{{"WiFi", "Pool", "Gym"}, {"WiFi", "Restaurant", "Spa"}, {"WiFi", "Parking", "Breakfast"}, {"WiFi", "Pool", "Restaurant", "Gym"}, {"WiFi", "Spa", "Room Service"}}
	busOperators = []string{"RedBus", "Volvo", "SRS Travels", "KPN Travels", "Orange Travels", "Parveen Travels", "Neeta Travels", "Kallada Travels", "VRL Travels", "Sharma Travels"}
	busTypes     = []string{"Sleeper", "Semi-Sleeper", "AC Sleeper", "Non-AC", "Volvo Multi-Axle"}
	busTimes     = []string{"08:00", "10:30", "14:00", "18:30", "22:00", "23:30"}
	busPerks     = [][]string{{"WiFi", "AC", "Charging Point"}, {"AC", "Reclining Seats", "Water"}, {"WiFi", "AC", "Blanket", "Charging Point"}, {"AC", "Snacks"}, {"WiFi", "AC", "Entertainment", "Charging Point", "Blanket"}}
)

const (
	mockFlightCount = 10
	mockHotelCount  = 10
	mockBusCount    = 12
)

// MockFlights generates randomized fares so every refresh moves prices.
type MockFlights struct{ now func() time.Time }

type MockHotels struct{ now func() time.Time }

type MockBuses struct{ now func() time.Time }

func NewMockFlights() *MockFlights { return &MockFlights{now: time.Now} }
func NewMockHotels() *MockHotels   { return &MockHotels{now: time.Now} }
func NewMockBuses() *MockBuses     { return &MockBuses{now: time.Now} }

func (p *MockFlights) Search(ctx context.Context, q usecase.ProviderQuery) ([]search.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	date := orToday(q.DepartureDate, p.now)
	out := make([]search.Item, 0, mockFlightCount)
	for i := 0; i < mockFlightCount; i++ {
		dep := pick(flightTimes)
		f := search.Flight{
			ID:             fmt.Sprintf("mock_flight_%d", i),
			Airline:        pick(airlines),
			FlightNumber:   strconv.Itoa(rand.IntN(9000) + 1000),
			From:           orDefault(q.Origin, "DEL"),
			To:             orDefault(q.Destination, "BOM"),
			DepartureTime:  dep,
			ArrivalTime:    arrival(dep, 2+rand.IntN(3)),
			DepartureDate:  date,
			ArrivalDate:    date,
			Duration:       fmt.Sprintf("%dh %dm", rand.IntN(3)+1, rand.IntN(60)),
			Price:          (rand.IntN(5000) + 3000) * adults(q),
			Currency:       "INR",
			SeatsAvailable: rand.IntN(10) + 1,
			Cabin:          "ECONOMY",
		}
		item, err := encode(f)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (p *MockHotels) Search(ctx context.Context, q usecase.ProviderQuery) ([]search.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	checkIn := orToday(q.CheckInDate, p.now)
	checkOut := orToday(q.CheckOutDate, p.now)
	n := nights(q.CheckInDate, q.CheckOutDate)

	out := make([]search.Item, 0, mockHotelCount)
	for i := 0; i < mockHotelCount; i++ {
		h := search.Hotel{
			ID:             fmt.Sprintf("mock_hotel_%d", i),
			Name:           pick(hotelNames),
			City:           orDefault(q.City, "Mumbai"),
			Location:       fmt.Sprintf("%d Main Street", rand.IntN(100)),
			Country:        "IN",
			Price:          (rand.IntN(3000) + 2000) * n * adults(q),
			Currency:       "INR",
			Rating:         rand.IntN(3) + 3,
			Amenities:      pick(hotelPerks),
			RoomsAvailable: rand.IntN(5) + 1,
			CheckInDate:    checkIn,
			CheckOutDate:   checkOut,
		}
		item, err := encode(h)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (p *MockBuses) Search(ctx context.Context, q usecase.ProviderQuery) ([]search.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	date := orToday(q.DepartureDate, p.now)
	out := make([]search.Item, 0, mockBusCount)
	for i := 0; i < mockBusCount; i++ {
		dep := pick(busTimes)
		hours := 6 + rand.IntN(8)
		b := search.Bus{
			ID:             fmt.Sprintf("mock_bus_%d", i),
			Operator:       pick(busOperators),
			BusNumber:      strconv.Itoa(rand.IntN(9000) + 1000),
			BusType:        pick(busTypes),
			From:           orDefault(q.Origin, "Delhi"),
			To:             orDefault(q.Destination, "Mumbai"),
			DepartureTime:  dep,
			ArrivalTime:    arrival(dep, hours),
			DepartureDate:  date,
			ArrivalDate:    date,
			Duration:       fmt.Sprintf("%dh %dm", hours, rand.IntN(60)),
			Price:          (rand.IntN(2000) + 800) * adults(q),
			Currency:       "INR",
			SeatsAvailable: rand.IntN(20) + 5,
			Amenities:      pick(busPerks),
		}
		item, err := encode(b)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func pick[T any](xs []T) T {
	return xs[rand.IntN(len(xs))]
}

func arrival(departure string, plusHours int) string {
	t, err := time.Parse("15:04", departure)
	if err != nil {
		return departure
	}
	h := (t.Hour() + plusHours) % 24
	return fmt.Sprintf("%02d:%02d", h, rand.IntN(60))
}

// nights is at least one; unparseable or inverted dates count as one night.
func nights(checkIn, checkOut string) int {
	in, err1 := time.Parse(time.DateOnly, checkIn)
	out, err2 := time.Parse(time.DateOnly, checkOut)
	if err1 != nil || err2 != nil {
		return 1
	}
	n := int(out.Sub(in).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

func adults(q usecase.ProviderQuery) int {
	if q.Adults < 1 {
		return 1
	}
	return q.Adults
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orToday(v string, now func() time.Time) string {
	if v != "" {
		return v
	}
	return now().Format(time.DateOnly)
}

func encode(v any) (search.Item, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return search.Item(b), nil
}
