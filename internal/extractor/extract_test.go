package extractor

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sjsage522/bestpick/pkg/errors"
)

const searchResultsHTML = `
<html>
<body>
  <div class="s-main-slot">
    <div data-component-type="s-search-result" data-asin="A1">
      <h2><a class="a-link-normal a-text-normal" href="/Budget-Kettle/dp/A1">
        <span class="a-size-medium a-color-base a-text-normal">Budget  Kettle</span>
      </a></h2>
      <span class="a-icon-alt">3.9 out of 5 stars</span>
      <span class="a-price"><span class="a-offscreen">$12.49</span><span aria-hidden="true">$12<sup>49</sup></span></span>
      <span class="a-color-base a-badge-text a-text-bold">Best Seller</span>
      <span class="a-color-base a-text-bold">Friday, March 8</span>
    </div>
    <div data-component-type="s-search-result" data-asin="A2">
      <h2><a class="a-link-normal a-text-normal" href="https://shop.example/Premium-Kettle/dp/A2">
        <span class="a-size-medium a-color-base a-text-normal">Premium Kettle</span>
      </a></h2>
      <span class="a-icon-alt">4.8 out of 5 stars</span>
      <span class="a-price"><span class="a-offscreen">$1,049.00</span></span>
      <span class="a-size-medium-plus a-color-base a-text-bold">Overall Pick</span>
      <span class="a-color-base a-text-bold">March 12</span>
    </div>
    <div data-component-type="s-search-result" data-asin="A3">
      <h2><a class="a-link-normal a-text-normal" href="/Express-Kettle/dp/A3">
        <span class="a-size-medium a-color-base a-text-normal">Express Kettle</span>
      </a></h2>
      <span class="a-icon-alt">4.1 out of 5 stars</span>
      <span class="a-price"><span class="a-offscreen">$29.99</span></span>
      <span class="a-size-base a-color-base a-text-bold">Save 5%</span>
      <span class="a-color-base a-text-bold">Tomorrow, March 6</span>
    </div>
    <div data-component-type="s-search-result" data-asin="A4">
      <span class="a-price"><span class="a-offscreen">See options</span></span>
    </div>
    <div class="s-result-item">
      <span class="a-size-medium a-color-base a-text-normal">Sponsored Kettle</span>
      <span class="a-price"><span class="a-offscreen">$1.00</span></span>
    </div>
  </div>
</body>
</html>`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	ref := time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC)
	e, err := New(DefaultSelectors(), WithClock(func() time.Time { return ref }))
	require.NoError(t, err)
	return e
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestExtractor_ExtractRecord(t *testing.T) {
	e := newTestExtractor(t)
	doc := parseHTML(t, searchResultsHTML)
	base := mustParseURL(t, "https://shop.example/s?k=kettle")

	nodes := doc.Find(`div[data-component-type="s-search-result"]`)
	require.Equal(t, 4, nodes.Length())

	first := e.ExtractRecord(nodes.Eq(0), base)
	assert.Equal(t, "Budget Kettle", first.Name)
	assert.Equal(t, "https://shop.example/Budget-Kettle/dp/A1", first.URL)
	assert.True(t, first.HasPrice)
	assert.Equal(t, 12.49, first.Price)
	assert.True(t, first.HasRating)
	assert.Equal(t, 3.9, first.Rating)
	assert.Equal(t, time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC), first.DeliveryDate)

	second := e.ExtractRecord(nodes.Eq(1), base)
	assert.Equal(t, 1049.0, second.Price)
	assert.Equal(t, time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC), second.DeliveryDate)

	third := e.ExtractRecord(nodes.Eq(2), base)
	assert.Equal(t, time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), third.DeliveryDate)
}

func TestExtractor_ExtractRecord_MissingFields(t *testing.T) {
	e := newTestExtractor(t)
	doc := parseHTML(t, searchResultsHTML)

	record := e.ExtractRecord(doc.Find(`div[data-asin="A4"]`), nil)
	assert.Equal(t, UnknownProductName, record.Name)
	assert.Equal(t, "", record.URL)
	assert.False(t, record.HasPrice)
	assert.False(t, record.HasRating)
	assert.True(t, record.DeliveryDate.IsZero())
}

func TestExtractor_Extract(t *testing.T) {
	e := newTestExtractor(t)
	doc := parseHTML(t, searchResultsHTML)

	winners, err := e.Extract(doc.Selection, "https://shop.example/s?k=kettle")
	require.NoError(t, err)

	assert.Equal(t, 4, winners.Products)
	assert.Equal(t, Winner{Name: "Budget Kettle", URL: "https://shop.example/Budget-Kettle/dp/A1"}, winners.Cheapest)
	assert.Equal(t, Winner{Name: "Premium Kettle", URL: "https://shop.example/Premium-Kettle/dp/A2"}, winners.HighestRated)
	assert.Equal(t, Winner{Name: "Express Kettle", URL: "https://shop.example/Express-Kettle/dp/A3"}, winners.Fastest)
}

func TestExtractor_Extract_Idempotent(t *testing.T) {
	e := newTestExtractor(t)
	doc := parseHTML(t, searchResultsHTML)

	first, err := e.Extract(doc.Selection, "https://shop.example/s?k=kettle")
	require.NoError(t, err)
	second, err := e.Extract(doc.Selection, "https://shop.example/s?k=kettle")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractor_Extract_NoProducts(t *testing.T) {
	e := newTestExtractor(t)
	doc := parseHTML(t, `<html><body><p>No results for "kettle".</p></body></html>`)

	winners, err := e.Extract(doc.Selection, "https://shop.example/s?k=kettle")
	require.NoError(t, err)
	assert.Equal(t, 0, winners.Products)

	msg := winners.Message()
	assert.Empty(t, msg.CheapestProductName)
	assert.Empty(t, msg.CheapestProductURL)
	assert.Empty(t, msg.HighestRatedProductName)
	assert.Empty(t, msg.HighestRatedProductURL)
	assert.Empty(t, msg.FastestProductName)
	assert.Empty(t, msg.FastestProductURL)
}

func TestExtractor_Extract_MissingRoot(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.Extract(nil, "https://shop.example/s?k=kettle")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeStructure, apperrors.TypeOf(err))

	doc := parseHTML(t, searchResultsHTML)
	_, err = e.Extract(doc.Find("section.does-not-exist"), "")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeStructure, apperrors.TypeOf(err))
}

func TestExtractor_Extract_RecoversPanic(t *testing.T) {
	e, err := New(DefaultSelectors(), WithClock(func() time.Time { panic("boom") }))
	require.NoError(t, err)

	doc := parseHTML(t, searchResultsHTML)
	winners, err := e.Extract(doc.Selection, "https://shop.example/s?k=kettle")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeStructure, apperrors.TypeOf(err))
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, WinnerSet{}, winners)
}

func TestNew_InvalidSelectors(t *testing.T) {
	selectors := DefaultSelectors()
	selectors.Price = ".a-price >>> .a-offscreen["

	_, err := New(selectors)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeConfiguration, apperrors.TypeOf(err))

	selectors = DefaultSelectors()
	selectors.Title = ""
	_, err = New(selectors)
	require.Error(t, err)
}

func TestMessage_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Message{CheapestProductName: "Kettle"})
	require.NoError(t, err)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.ElementsMatch(t, []string{
		"cheapestProductName", "cheapestProductUrl",
		"highestRatedProductName", "highestRatedProductUrl",
		"fastestProductName", "fastestProductUrl",
	}, keys(fields))
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
