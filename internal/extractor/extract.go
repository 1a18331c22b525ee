package extractor

import (
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/bestpick/helpers"
	"sjsage522/bestpick/logger"
	apperrors "sjsage522/bestpick/pkg/errors"
)

// Extractor parses product nodes into records and picks the winners.
// It works on an already loaded markup tree and performs no I/O.
type Extractor struct {
	selectors *compiledSelectors
	now       func() time.Time
	log       *logger.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithClock sets the function returning the reference date for delivery parsing
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithLogger sets the logger used for per-record debug output
func WithLogger(log *logger.Logger) Option {
	return func(e *Extractor) {
		e.log = log
	}
}

// New creates an Extractor for the given selector contract
func New(selectors Selectors, opts ...Option) (*Extractor, error) {
	compiled, err := selectors.compile()
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		selectors: compiled,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.ForExtractor()
	}
	return e, nil
}

// ExtractRecord builds a ProductRecord from one product node.
// Missing sub-fields fall back to their defaults instead of failing.
func (e *Extractor) ExtractRecord(node *goquery.Selection, base *url.URL) ProductRecord {
	return e.extractRecord(node, base, e.now())
}

func (e *Extractor) extractRecord(node *goquery.Selection, base *url.URL, ref time.Time) ProductRecord {
	sel := e.selectors

	record := ProductRecord{Name: visibleText(node.FindMatcher(sel.title))}
	if record.Name == "" {
		record.Name = UnknownProductName
	}

	if price, ok := ParsePrice(visibleText(node.FindMatcher(sel.price))); ok {
		record.Price, record.HasPrice = price, true
	}
	if rating, ok := ParseRating(visibleText(node.FindMatcher(sel.rating))); ok {
		record.Rating, record.HasRating = rating, true
	}
	if date, ok := ParseDeliveryDate(node.FindMatcher(sel.deliveryDate), ref); ok {
		record.DeliveryDate = date
	}

	if href, exists := node.FindMatcher(sel.link).First().Attr(sel.linkAttr); exists {
		record.URL = helpers.ResolveURL(base, href)
	}

	return record
}

// Extract scans every product node under root and returns the three winners.
// Zero product nodes is not an error; a missing root or a failed traversal is.
func (e *Extractor) Extract(root *goquery.Selection, baseURL string) (result WinnerSet, err error) {
	if root == nil || root.Length() == 0 {
		return WinnerSet{}, apperrors.NewStructure(baseURL, "page root is missing", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			result = WinnerSet{}
			err = apperrors.NewStructure(baseURL, "product traversal failed", fmt.Errorf("%v", r))
		}
	}()

	base := helpers.ParseBaseURL(baseURL)
	ref := e.now()
	acc := newReducer()

	root.FindMatcher(e.selectors.productList).Each(func(i int, node *goquery.Selection) {
		record := e.extractRecord(node, base, ref)
		e.log.Debug().
			Int("index", i).
			Str("name", record.Name).
			Bool("has_price", record.HasPrice).
			Float64("price", record.Price).
			Bool("has_rating", record.HasRating).
			Float64("rating", record.Rating).
			Time("delivery_date", record.DeliveryDate).
			Msg("Extracted product")
		acc.add(record)
	})

	return acc.result(), nil
}
