package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dipiu-foods/dipiu-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidMarket marks input rejected before it reaches the store.
// Handlers map it to a client error; anything else is a server-side failure.
var ErrInvalidMarket = errors.New("invalid market data")

type MarketService struct {
	marketRepo models.MarketRepo
	utcOffset  int
	now        func() time.Time
}

func NewMarketService(marketRepo models.MarketRepo, utcOffsetHours int) *MarketService {
	return &MarketService{
		marketRepo: marketRepo,
		utcOffset:  utcOffsetHours,
		now:        time.Now,
	}
}

// TodayBoundary returns the inclusive lower bound of the upcoming view.
func (ms *MarketService) TodayBoundary() time.Time {
	return models.StartOfDay(ms.now(), ms.utcOffset)
}

func (ms *MarketService) ListUpcomingMarkets(ctx context.Context) ([]*models.Market, error) {
	return ms.marketRepo.ListUpcomingMarkets(ctx, ms.TodayBoundary())
}

func (ms *MarketService) ListAllMarkets(ctx context.Context) ([]*models.Market, error) {
	return ms.marketRepo.ListAllMarkets(ctx)
}

// AddMarket stamps both timestamps to the same instant and submits the
// record. No dedupe: calling twice creates two independent records.
func (ms *MarketService) AddMarket(ctx context.Context, market *models.Market) (*models.Market, error) {
	if err := models.Validate.Struct(market); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMarket, err)
	}

	now := ms.now().UTC()
	market.CreatedAt = now
	market.UpdatedAt = now

	return ms.marketRepo.CreateMarket(ctx, market)
}

// UpdateMarket applies a partial field replacement. updated_at is always
// refreshed regardless of which fields changed; a missing id propagates the
// store's error.
func (ms *MarketService) UpdateMarket(ctx context.Context, id primitive.ObjectID, update models.MarketUpdate) error {
	if id.IsZero() {
		return fmt.Errorf("%w: market id is required", ErrInvalidMarket)
	}
	return ms.marketRepo.UpdateMarket(ctx, id, update.SetDocument(ms.now().UTC()))
}

// DeleteMarket permanently removes the record. The caller must have already
// confirmed destructive intent; deleting a missing id is a no-op success.
func (ms *MarketService) DeleteMarket(ctx context.Context, id primitive.ObjectID) error {
	if id.IsZero() {
		return fmt.Errorf("%w: market id is required", ErrInvalidMarket)
	}
	return ms.marketRepo.DeleteMarket(ctx, id)
}

// CreateFromForm expands a create-mode submission into one independent
// record per date, sharing every other field. Creates run sequentially and
// are not rolled back on failure: the returned count says how many records
// were committed before the error.
func (ms *MarketService) CreateFromForm(ctx context.Context, form *models.MarketForm) (int, error) {
	if err := models.Validate.Struct(form); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMarket, err)
	}

	created := 0
	for _, date := range form.Dates {
		if _, err := ms.AddMarket(ctx, form.Market(date)); err != nil {
			return created, fmt.Errorf("created %d of %d markets: %w", created, len(form.Dates), err)
		}
		created++
	}
	return created, nil
}

// EditFromForm applies an edit-mode submission to an existing record. The
// form's date collection may carry several dates but only the first one is
// applied; the rest are discarded.
func (ms *MarketService) EditFromForm(ctx context.Context, id primitive.ObjectID, form *models.MarketForm) error {
	if err := models.Validate.Struct(form); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMarket, err)
	}
	return ms.UpdateMarket(ctx, id, form.Update())
}
