package trigger

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/bestpick/internal/extractor"
	"sjsage522/bestpick/internal/page"
	"sjsage522/bestpick/logger"
	apperrors "sjsage522/bestpick/pkg/errors"
	"sjsage522/bestpick/services/publisher"
)

// Trigger runs one extraction against a page and publishes the winners
type Trigger struct {
	source    page.Source
	extractor *extractor.Extractor
	publisher publisher.Publisher
	now       func() time.Time
	log       *logger.Logger
}

// New creates a new trigger
func New(src page.Source, ext *extractor.Extractor, pub publisher.Publisher) *Trigger {
	return &Trigger{
		source:    src,
		extractor: ext,
		publisher: pub,
		now:       time.Now,
		log:       logger.ForTrigger().WithField("source", src.Name()),
	}
}

// Run loads target, picks its winners and publishes them.
// An extraction failure is returned and nothing is published.
// A publishing failure is only logged.
func (t *Trigger) Run(ctx context.Context, target string) (*extractor.WinnerSet, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, apperrors.NewValidation(t.source.Name(), "target is empty")
	}

	start := time.Now()
	set, err := t.extract(ctx, target)
	if err != nil {
		t.log.Error().Err(err).Str("target", target).Msg("Extraction failed")
		return nil, err
	}

	t.log.Info().
		Str("target", target).
		Int("products", set.Products).
		Str("cheapest", set.Cheapest.Name).
		Str("highest_rated", set.HighestRated.Name).
		Str("fastest", set.Fastest.Name).
		Dur("elapsed", time.Since(start)).
		Msg("Winners picked")

	t.publish(ctx, target, set)
	return &set, nil
}

func (t *Trigger) extract(ctx context.Context, target string) (extractor.WinnerSet, error) {
	body, err := t.source.Load(ctx, target)
	if err != nil {
		return extractor.WinnerSet{}, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return extractor.WinnerSet{}, apperrors.NewParsing(target, "failed to parse page markup", err)
	}

	return t.extractor.Extract(doc.Selection, target)
}

func (t *Trigger) publish(ctx context.Context, target string, set extractor.WinnerSet) {
	if t.publisher == nil {
		return
	}

	payload, err := publisher.NewEnvelope(target, set, t.now()).Encode()
	if err != nil {
		t.log.Error().Err(err).Msg("Failed to encode result")
		return
	}

	if err := t.publisher.Publish(ctx, publisher.MessageKey, payload); err != nil {
		t.log.Warn().Err(err).Str("target", target).Msg("Result not delivered")
	}
}
