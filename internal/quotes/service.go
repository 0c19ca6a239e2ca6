package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
	"github.com/angelmondragon/relacksation-backend/pkg/metrics"
)

type productLister interface {
	ListActive(ctx context.Context) ([]models.Product, error)
}

// quoteCache keeps issued quotes readable until they expire.
type quoteCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	QuoteKey(quoteID string) string
}

// Service prices quote requests against the live catalog.
type Service interface {
	Quote(ctx context.Context, req Request) (QuoteDTO, error)
	Lookup(ctx context.Context, quoteID string) (QuoteDTO, error)
}

type service struct {
	engine   *Engine
	products productLister
	cache    quoteCache
	metrics  *metrics.BookingMetrics
	logg     *logger.Logger
}

// NewService builds a quote service. cache may be nil, in which case issued
// quotes are not retrievable later.
func NewService(engine *Engine, products productLister, cache quoteCache, m *metrics.BookingMetrics, logg *logger.Logger) (Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("quote engine required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		engine:   engine,
		products: products,
		cache:    cache,
		metrics:  m,
		logg:     logg,
	}, nil
}

func (s *service) Quote(ctx context.Context, req Request) (QuoteDTO, error) {
	catalog, err := s.products.ListActive(ctx)
	if err != nil {
		return QuoteDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	quote, err := s.engine.Compute(req, catalog)
	if err != nil {
		return QuoteDTO{}, err
	}
	s.metrics.IncQuote(string(quote.Mode))

	dto := ToDTO(quote)
	s.store(ctx, dto)
	return dto, nil
}

func (s *service) Lookup(ctx context.Context, quoteID string) (QuoteDTO, error) {
	quoteID = strings.TrimSpace(quoteID)
	if quoteID == "" {
		return QuoteDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quote id is required")
	}
	if s.cache == nil {
		return QuoteDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	raw, err := s.cache.Get(ctx, s.cache.QuoteKey(quoteID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return QuoteDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found or expired")
		}
		return QuoteDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	var dto QuoteDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return QuoteDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode quote")
	}
	return dto, nil
}

// store is best effort; a cache outage must not fail quoting.
func (s *service) store(ctx context.Context, dto QuoteDTO) {
	if s.cache == nil {
		return
	}
	ttl := s.engine.Policy().TTL
	if ttl <= 0 {
		return
	}
	body, err := json.Marshal(dto)
	if err != nil {
		s.logg.Error(ctx, "encode quote for cache", err)
		return
	}
	if err := s.cache.Set(ctx, s.cache.QuoteKey(dto.QuoteID), string(body), ttl); err != nil {
		warnCtx := s.logg.WithFields(ctx, map[string]any{"quote_id": dto.QuoteID, "error": err.Error()})
		s.logg.Warn(warnCtx, "quote cache write failed")
	}
}
