package extractor

import "time"

// reducer keeps the running best record for each of the three comparisons
type reducer struct {
	cheapest     Winner
	cheapestKey  float64
	rated        Winner
	ratedKey     float64
	fastest      Winner
	fastestKey   time.Time
	productCount int
}

func newReducer() *reducer {
	return &reducer{
		cheapestKey: NoPrice,
		ratedKey:    0,
		fastestKey:  NoDeliveryDate,
	}
}

// add compares one record against all three accumulators.
// Comparisons are strict so ties keep the earlier record.
func (r *reducer) add(record ProductRecord) {
	r.productCount++
	winner := Winner{Name: record.Name, URL: record.URL}

	if price := record.priceKey(); price < r.cheapestKey {
		r.cheapest, r.cheapestKey = winner, price
	}
	if rating := record.ratingKey(); rating > r.ratedKey {
		r.rated, r.ratedKey = winner, rating
	}
	if date := record.deliveryKey(); date.Before(r.fastestKey) {
		r.fastest, r.fastestKey = winner, date
	}
}

func (r *reducer) result() WinnerSet {
	return WinnerSet{
		Cheapest:     r.cheapest,
		HighestRated: r.rated,
		Fastest:      r.fastest,
		Products:     r.productCount,
	}
}

// Reduce picks the cheapest, highest-rated and fastest records in a single pass
func Reduce(records []ProductRecord) WinnerSet {
	r := newReducer()
	for _, record := range records {
		r.add(record)
	}
	return r.result()
}
