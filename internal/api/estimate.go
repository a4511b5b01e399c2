package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"resale-backend/internal/auth"
	"resale-backend/internal/core"
	"resale-backend/internal/database"
	"resale-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const historyWriteTimeout = 5 * time.Second

// estimateError carries a pipeline failure whose text is safe to show to the
// user.
type estimateError struct {
	cause error
}

func (e *estimateError) Error() string {
	return core.UserMessage(e.cause)
}

func (e *estimateError) Unwrap() error {
	return e.cause
}

func estimateFailure(err error) error {
	code := http.StatusUnprocessableEntity
	if errors.Is(err, core.ErrParse) || errors.Is(err, core.ErrValidation) {
		code = http.StatusBadRequest
	}
	return CodedError(code, &estimateError{cause: err})
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, core.ErrParse):
		return outcomeParseError
	case errors.Is(err, core.ErrValidation):
		return outcomeValidationError
	default:
		return outcomeInferenceError
	}
}

type estimateOutcome struct {
	form   api.EstimateForm
	req    core.EstimationRequest
	result core.EstimationResult
	saved  bool
}

// runEstimate parses, validates and prices the submitted form, then records
// the estimate in the caller's history if they are signed in. A failed
// history write is logged and does not fail the estimate.
func (s *Server) runEstimate(r *http.Request) (estimateOutcome, error) {
	start := time.Now()

	form, err := ParseForm[api.EstimateForm](r)
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrParse, err)
		s.metrics.ObserveEstimate(outcomeParseError, "", time.Since(start))
		return estimateOutcome{}, estimateFailure(err)
	}

	req, err := core.NewEstimationRequest(form)
	if err != nil {
		s.metrics.ObserveEstimate(outcomeOf(err), "", time.Since(start))
		return estimateOutcome{}, estimateFailure(err)
	}

	result, err := s.pipeline.Estimate(req)
	if err != nil {
		slog.Info("estimate rejected", "vehicle", req.Vehicle, "error", err)
		s.metrics.ObserveEstimate(outcomeOf(err), "", time.Since(start))
		return estimateOutcome{}, estimateFailure(err)
	}
	s.metrics.ObserveEstimate(outcomeSuccess, result.Category, time.Since(start))

	out := estimateOutcome{form: form, req: req, result: result}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		out.saved = s.record(r.Context(), user.Id, req, result)
	}
	return out, nil
}

func (s *Server) record(ctx context.Context, userId uuid.UUID, req core.EstimationRequest, result core.EstimationResult) bool {
	// The estimate is already computed, so the write should outlive a client
	// that disconnects right after submitting.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	features, err := json.Marshal(result.Features)
	if err != nil {
		slog.Error("error serializing features", "error", err)
		features = nil
	}

	kind := result.CategoryLabel
	if kind == "" {
		kind = result.Category
	}

	prediction := &database.Prediction{
		UserId:         userId,
		Type:           kind,
		Brand:          result.Brand,
		Model:          result.Vehicle,
		Mileage:        strconv.Itoa(req.OdometerKm),
		PredictedPrice: result.Formatted,
		PriceValue:     result.Price,
		Fuel:           sql.NullString{String: string(req.Fuel), Valid: true},
		Transmission:   sql.NullString{String: string(req.Transmission), Valid: true},
		Seller:         sql.NullString{String: string(req.Seller), Valid: true},
		Features:       datatypes.JSON(features),
	}

	if err := s.history.Append(ctx, prediction); err != nil {
		slog.Warn("unable to save estimate to history", "user_id", userId, "error", err)
		s.metrics.HistoryWriteFailures.Inc()
		return false
	}
	return true
}

func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		s.redirect(w, r, "/home")
		return
	}
	s.redirect(w, r, "/login")
}

func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home", "Home", nil)
}

func (s *Server) vehicles() api.Vehicles {
	estimator := s.pipeline.Estimator()
	return api.Vehicles{
		Vehicles: estimator.Vehicles(),
		Owners:   core.OwnerLabels(),
		Unit:     estimator.Unit(),
	}
}

func (s *Server) PredictionPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "prediction", "Estimate", s.vehicles())
}

// EstimatedResult handles the estimation form. Failures are answered with the
// plain-text user message; successes redirect to the results page.
func (s *Server) EstimatedResult(w http.ResponseWriter, r *http.Request) {
	out, err := s.runEstimate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := s.cacheResult(out)
	s.redirect(w, r, "/results?id="+id.String())
}

// cacheResult keeps the estimate with the inputs echoed as submitted.
func (s *Server) cacheResult(out estimateOutcome) uuid.UUID {
	return s.results.Put(api.EstimateView{
		Result:        out.result.Formatted,
		Vehicle:       out.form.Vehicle,
		Year:          out.form.Year,
		ShowroomPrice: out.form.ShowRoomPrice,
		Kilometers:    out.form.Kilometers,
		Owner:         out.form.Owner,
		Fuel:          out.form.Fuel,
		Seller:        out.form.Seller,
		Transmission:  out.form.Transmission,
	})
}

func (s *Server) Results(w http.ResponseWriter, r *http.Request) error {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		return CodedErrorf(http.StatusBadRequest, "invalid result id")
	}

	view, ok := s.results.Get(id)
	if !ok {
		return CodedErrorf(http.StatusNotFound, "result not found or expired, please estimate again")
	}

	s.render(w, r, http.StatusOK, "results", "Result", view)
	return nil
}

func (s *Server) ListVehicles(r *http.Request) (any, error) {
	return s.vehicles(), nil
}

func (s *Server) Estimate(r *http.Request) (any, error) {
	out, err := s.runEstimate(r)
	if err != nil {
		return nil, err
	}

	return api.EstimateResponse{
		ResultId: s.cacheResult(out),
		Result:   out.result.Formatted,
		Price:    out.result.Price,
		Unit:     out.result.Unit,
		Category: out.result.Category,
		Vehicle:  out.result.Vehicle,
		Brand:    out.result.Brand,
		Saved:    out.saved,
	}, nil
}
