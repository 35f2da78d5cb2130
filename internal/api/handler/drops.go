package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/osrsbingo/internal/api/middleware"
	"github.com/mcoot/osrsbingo/internal/api/request"
	"github.com/mcoot/osrsbingo/internal/api/response"
	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/services/dink"
	"github.com/mcoot/osrsbingo/internal/services/history"
	"github.com/mcoot/osrsbingo/internal/services/valuefilter"
)

// DropHandler handles drop ingestion, the drop history and analytics
type DropHandler struct {
	historyService history.ServiceInterface
	logger         *slog.Logger
}

// NewDropHandler creates a new drop handler
func NewDropHandler(historyService history.ServiceInterface, logger *slog.Logger) *DropHandler {
	return &DropHandler{
		historyService: historyService,
		logger:         logger,
	}
}

// Record handles POST /api/v1/drops
func (h *DropHandler) Record(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, model.SourceAPI, h.historyService.RecordDrop)
}

// Import handles POST /api/v1/drops/import
func (h *DropHandler) Import(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, model.SourceImport, h.historyService.ImportDrop)
}

// Manual handles POST /api/v1/drops/manual
func (h *DropHandler) Manual(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, model.SourceManual, h.historyService.RecordDrop)
}

func (h *DropHandler) record(
	w http.ResponseWriter,
	r *http.Request,
	source string,
	fn func(ctx context.Context, input history.DropInput) (*history.DropResult, error),
) {
	var req request.DropRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	input := history.DropInput{
		Player:   req.Player,
		Item:     req.Item,
		Value:    req.Value,
		Quantity: req.Quantity,
		DropType: req.DropType,
		Source:   source,
		NPC:      req.NPC,
	}
	if req.Timestamp != nil {
		input.Timestamp = *req.Timestamp
	}

	result, err := fn(r.Context(), input)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Drop(w, dropResult(result))
}

// Dink handles POST /api/v1/webhooks/dink. Every item in every loot embed
// is recorded as its own drop.
func (h *DropHandler) Dink(w http.ResponseWriter, r *http.Request) {
	body, err := dink.ReadPayload(r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	loots, err := dink.ParsePayload(body)
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid webhook payload"))
		return
	}

	result := response.WebhookResult{TilesCompleted: []model.CompletedTile{}}
	for _, loot := range loots {
		for _, item := range loot.ValuedItems() {
			res, err := h.historyService.RecordDrop(r.Context(), history.DropInput{
				Player:   loot.Player,
				Item:     item.Name,
				Value:    item.Value,
				Quantity: item.Quantity,
				DropType: model.DefaultDropType,
				Source:   model.SourceDink,
				NPC:      loot.Source,
			})
			if err != nil {
				WriteError(w, err)
				return
			}
			if res.Duplicate {
				result.Duplicates++
				continue
			}
			result.Recorded++
			result.TilesCompleted = append(result.TilesCompleted, res.TilesCompleted...)
		}
	}

	h.logger.Info("dink webhook processed",
		slog.Int("embeds", len(loots)),
		slog.Int("recorded", result.Recorded),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("tiles_completed", len(result.TilesCompleted)))
	response.JSON(w, http.StatusOK, result)
}

// List handles GET /api/v1/history
func (h *DropHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := dropQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	drops, err := h.historyService.ListDrops(r.Context(), history.ListQuery{
		DropQuery: query,
		Value:     valuefilter.Parse(r.URL.Query().Get("value")),
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.History{Drops: drops, Count: len(drops)})
}

// Delete handles DELETE /api/v1/history
func (h *DropHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req request.DeleteDropsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	n, err := h.historyService.DeleteDrops(r.Context(), middleware.IsAdmin(r.Context()), req.Player, req.Item, req.Timestamp)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Deleted{Deleted: n})
}

// Analytics handles GET /api/v1/analytics
func (h *DropHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	query, err := dropQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	analytics, err := h.historyService.Analytics(r.Context(), query)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, analytics)
}

func dropResult(result *history.DropResult) response.DropResult {
	tiles := result.TilesCompleted
	if tiles == nil {
		tiles = []model.CompletedTile{}
	}
	return response.DropResult{
		Drop:           result.Drop,
		Duplicate:      result.Duplicate,
		TilesCompleted: tiles,
	}
}

// dropQuery reads the player, item, start_date, end_date and limit query parameters
func dropQuery(r *http.Request) (model.DropQuery, error) {
	q := r.URL.Query()
	query := model.DropQuery{Player: q.Get("player"), Item: q.Get("item")}

	var err error
	if query.Start, err = parseDate(q.Get("start_date"), false); err != nil {
		return query, NewInvalidRequestError("start_date must be YYYY-MM-DD or RFC 3339")
	}
	if query.End, err = parseDate(q.Get("end_date"), true); err != nil {
		return query, NewInvalidRequestError("end_date must be YYYY-MM-DD or RFC 3339")
	}
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		return query, err
	}
	return query, nil
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}
