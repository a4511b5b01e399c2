package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	RecentLimit    = 10
	TopBrandsLimit = 10
)

type DailyStat struct {
	Day          string
	Count        int
	AveragePrice float64
}

type GroupCount struct {
	Label string
	Count int
}

// Insights summarises a user's history for the dashboard.
type Insights struct {
	Daily     []DailyStat
	TopBrands []GroupCount
	Types     []GroupCount
	Prices    []float64
	Recent    []Prediction
}

func (h *HistoryStore) Insights(ctx context.Context, userId uuid.UUID) (Insights, error) {
	recent, err := h.ListRecent(ctx, userId, RecentLimit)
	if err != nil {
		return Insights{}, err
	}

	var points []struct {
		Date       time.Time
		PriceValue float64
	}
	if err := h.db.WithContext(ctx).Model(&Prediction{}).
		Select("date", "price_value").
		Where("user_id = ?", userId).
		Order("date").
		Scan(&points).Error; err != nil {
		slog.Error("error loading prediction prices", "user_id", userId, "error", err)
		return Insights{}, fmt.Errorf("error loading prediction prices: %w", err)
	}

	brands, err := h.groupCounts(ctx, userId, "brand", TopBrandsLimit)
	if err != nil {
		return Insights{}, err
	}

	types, err := h.groupCounts(ctx, userId, "type", 0)
	if err != nil {
		return Insights{}, err
	}

	prices := make([]float64, 0, len(points))
	days := make(map[string]*DailyStat)
	var order []string
	for _, p := range points {
		prices = append(prices, p.PriceValue)

		// Days are bucketed in UTC so sqlite and postgres agree.
		day := p.Date.UTC().Format(time.DateOnly)
		stat, ok := days[day]
		if !ok {
			stat = &DailyStat{Day: day}
			days[day] = stat
			order = append(order, day)
		}
		stat.Count++
		stat.AveragePrice += p.PriceValue
	}

	sort.Strings(order)
	daily := make([]DailyStat, 0, len(order))
	for _, day := range order {
		stat := days[day]
		stat.AveragePrice /= float64(stat.Count)
		daily = append(daily, *stat)
	}

	return Insights{
		Daily:     daily,
		TopBrands: brands,
		Types:     types,
		Prices:    prices,
		Recent:    recent,
	}, nil
}

func (h *HistoryStore) groupCounts(ctx context.Context, userId uuid.UUID, column string, limit int) ([]GroupCount, error) {
	query := h.db.WithContext(ctx).Model(&Prediction{}).
		Select(column+" AS label, COUNT(*) AS count").
		Where("user_id = ?", userId).
		Group(column).
		Order("count DESC, label")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var counts []GroupCount
	if err := query.Scan(&counts).Error; err != nil {
		slog.Error("error grouping predictions", "user_id", userId, "column", column, "error", err)
		return nil, fmt.Errorf("error grouping predictions by %s: %w", column, err)
	}
	return counts, nil
}
