package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"resale-backend/internal/database"

	"gorm.io/gorm"
)

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)

	insights, err := s.history.Insights(r.Context(), user.Id)
	if err != nil {
		return CodedErrorf(http.StatusInternalServerError, "unable to load dashboard")
	}

	s.render(w, r, http.StatusOK, "dashboard", "Dashboard", convertInsights(insights))
	return nil
}

func (s *Server) DeletePrediction(w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)

	predictionId, err := URLParamUUID(r, "prediction_id")
	if err != nil {
		return err
	}

	if err := s.history.Delete(r.Context(), user.Id, predictionId); err != nil {
		switch {
		case errors.Is(err, database.ErrNotOwner):
			s.flashRedirect(w, r, flashDanger, "You are not authorized to delete this prediction.", "/dashboard")
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return CodedErrorf(http.StatusNotFound, "prediction not found")
		default:
			return CodedErrorf(http.StatusInternalServerError, "unable to delete prediction")
		}
	}

	s.flashRedirect(w, r, flashSuccess, "Prediction deleted successfully.", "/dashboard")
	return nil
}

func (s *Server) ListPredictions(r *http.Request) (any, error) {
	user := currentUser(r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, CodedErrorf(http.StatusBadRequest, "invalid limit '%s'", raw)
		}
		limit = n
	}

	predictions, err := s.history.ListRecent(r.Context(), user.Id, limit)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "unable to list predictions")
	}
	return convertPredictions(predictions), nil
}

func (s *Server) GetPrediction(r *http.Request) (any, error) {
	user := currentUser(r)

	predictionId, err := URLParamUUID(r, "prediction_id")
	if err != nil {
		return nil, err
	}

	prediction, err := s.history.Get(r.Context(), user.Id, predictionId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "prediction not found")
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "unable to load prediction")
	}
	return convertPrediction(prediction), nil
}

func (s *Server) DeletePredictionAPI(r *http.Request) (any, error) {
	user := currentUser(r)

	predictionId, err := URLParamUUID(r, "prediction_id")
	if err != nil {
		return nil, err
	}

	if err := s.history.Delete(r.Context(), user.Id, predictionId); err != nil {
		switch {
		case errors.Is(err, database.ErrNotOwner):
			return nil, CodedErrorf(http.StatusForbidden, "prediction belongs to another user")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, CodedErrorf(http.StatusNotFound, "prediction not found")
		default:
			return nil, CodedErrorf(http.StatusInternalServerError, "unable to delete prediction")
		}
	}
	return nil, nil
}

func (s *Server) ClearPredictions(r *http.Request) (any, error) {
	user := currentUser(r)

	if err := s.history.DeleteForUser(r.Context(), user.Id); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "unable to clear predictions")
	}
	slog.Info("cleared prediction history", "user_id", user.Id)
	return nil, nil
}

func (s *Server) GetInsights(r *http.Request) (any, error) {
	user := currentUser(r)

	insights, err := s.history.Insights(r.Context(), user.Id)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "unable to load insights")
	}
	return convertInsights(insights), nil
}
