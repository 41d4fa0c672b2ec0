package services

import (
	"context"

	"github.com/vsinha/stockcast/pkg/domain/entities"
)

// Forecaster fits one item's series and predicts its history dates plus
// horizon future days. Implementations must not retain or mutate the series.
type Forecaster interface {
	Forecast(ctx context.Context, series *entities.ItemSeries, horizon int) ([]entities.ForecastPoint, error)
}

// NameLookup resolves a display name for an item code
type NameLookup interface {
	ProductName(code entities.ItemCode) (string, bool)
}
