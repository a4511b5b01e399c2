package api

import (
	"resale-backend/internal/database"
	"resale-backend/pkg/api"
)

func convertPrediction(p database.Prediction) api.Prediction {
	return api.Prediction{
		Id:             p.Id,
		Type:           p.Type,
		Brand:          p.Brand,
		Model:          p.Model,
		Mileage:        p.Mileage,
		PredictedPrice: p.PredictedPrice,
		Fuel:           p.Fuel.String,
		Transmission:   p.Transmission.String,
		Seller:         p.Seller.String,
		Date:           p.Date,
	}
}

func convertPredictions(ps []database.Prediction) []api.Prediction {
	predictions := make([]api.Prediction, 0, len(ps))
	for _, p := range ps {
		predictions = append(predictions, convertPrediction(p))
	}
	return predictions
}

func convertGroupCounts(gs []database.GroupCount) []api.LabelCount {
	counts := make([]api.LabelCount, 0, len(gs))
	for _, g := range gs {
		counts = append(counts, api.LabelCount{Label: g.Label, Count: g.Count})
	}
	return counts
}

func convertInsights(i database.Insights) api.Insights {
	perDay := make([]api.DailyCount, 0, len(i.Daily))
	averages := make([]api.DailyAverage, 0, len(i.Daily))
	for _, d := range i.Daily {
		perDay = append(perDay, api.DailyCount{Date: d.Day, Count: d.Count})
		averages = append(averages, api.DailyAverage{Date: d.Day, AveragePrice: d.AveragePrice})
	}

	prices := i.Prices
	if prices == nil {
		prices = []float64{}
	}

	return api.Insights{
		PerDay:        perDay,
		AveragePerDay: averages,
		TopBrands:     convertGroupCounts(i.TopBrands),
		Prices:        prices,
		Types:         convertGroupCounts(i.Types),
		Recent:        convertPredictions(i.Recent),
	}
}
