package search

type Flight struct {
	ID             string `json:"id"`
	Airline        string `json:"airline"`
	FlightNumber   string `json:"flightNumber"`
	From           string `json:"from"`
	To             string `json:"to"`
	DepartureTime  string `json:"departureTime"`
	ArrivalTime    string `json:"arrivalTime"`
	DepartureDate  string `json:"departureDate"`
	ArrivalDate    string `json:"arrivalDate"`
	Duration       string `json:"duration"`
	Price          int    `json:"price"`
	Currency       string `json:"currency"`
	SeatsAvailable int    `json:"seatsAvailable"`
	Cabin          string `json:"cabin"`
}

type Hotel struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	City           string   `json:"city"`
	Location       string   `json:"location"`
	Country        string   `json:"country"`
	Price          int      `json:"price"`
	Currency       string   `json:"currency"`
	Rating         int      `json:"rating"`
	Amenities      []string `json:"amenities"`
	RoomsAvailable int      `json:"roomsAvailable"`
	CheckInDate    string   `json:"checkInDate"`
	CheckOutDate   string   `json:"checkOutDate"`
}

type Bus struct {
	ID             string   `json:"id"`
	Operator       string   `json:"operator"`
	BusNumber      string   `json:"busNumber"`
	BusType        string   `json:"busType"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	DepartureTime  string   `json:"departureTime"`
	ArrivalTime    string   `json:"arrivalTime"`
	DepartureDate  string   `json:"departureDate"`
	ArrivalDate    string   `json:"arrivalDate"`
	Duration       string   `json:"duration"`
	Price          int      `json:"price"`
	Currency       string   `json:"currency"`
	SeatsAvailable int      `json:"seatsAvailable"`
	Amenities      []string `json:"amenities"`
}
