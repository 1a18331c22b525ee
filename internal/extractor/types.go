package extractor

import (
	"math"
	"time"
)

// UnknownProductName is used when a product node carries no readable title
const UnknownProductName = "Unknown Product"

var (
	// NoPrice is larger than any real price so it never wins a minimization
	NoPrice = math.MaxFloat64

	// NoDeliveryDate is later than any real delivery date
	NoDeliveryDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// ProductRecord is one parsed search result.
// Absent values are explicit; sentinels are only used when records are compared.
type ProductRecord struct {
	Name string
	URL  string

	Price    float64
	HasPrice bool

	Rating    float64
	HasRating bool

	// DeliveryDate is the zero time when no delivery date is known
	DeliveryDate time.Time
}

func (r ProductRecord) priceKey() float64 {
	if !r.HasPrice {
		return NoPrice
	}
	return r.Price
}

func (r ProductRecord) ratingKey() float64 {
	if !r.HasRating {
		return 0
	}
	return r.Rating
}

func (r ProductRecord) deliveryKey() time.Time {
	if r.DeliveryDate.IsZero() {
		return NoDeliveryDate
	}
	return r.DeliveryDate
}

// Winner is the name and link of a product that won one comparison
type Winner struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// IsEmpty reports whether no product won this comparison
func (w Winner) IsEmpty() bool {
	return w.Name == "" && w.URL == ""
}

// WinnerSet holds the three independently selected winners.
// The winners may reference the same product.
type WinnerSet struct {
	Cheapest     Winner `json:"cheapest"`
	HighestRated Winner `json:"highest_rated"`
	Fastest      Winner `json:"fastest"`

	// Products is the number of product nodes scanned
	Products int `json:"products"`
}

// Message returns the flat payload delivered to the presenter
func (w WinnerSet) Message() Message {
	return Message{
		CheapestProductName:     w.Cheapest.Name,
		CheapestProductURL:      w.Cheapest.URL,
		HighestRatedProductName: w.HighestRated.Name,
		HighestRatedProductURL:  w.HighestRated.URL,
		FastestProductName:      w.Fastest.Name,
		FastestProductURL:       w.Fastest.URL,
	}
}

// Message is the payload sent from the extractor to the presenter
type Message struct {
	CheapestProductName     string `json:"cheapestProductName"`
	CheapestProductURL      string `json:"cheapestProductUrl"`
	HighestRatedProductName string `json:"highestRatedProductName"`
	HighestRatedProductURL  string `json:"highestRatedProductUrl"`
	FastestProductName      string `json:"fastestProductName"`
	FastestProductURL       string `json:"fastestProductUrl"`
}
