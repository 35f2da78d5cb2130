package handler

import (
	"net/http"

	"github.com/mcoot/osrsbingo/internal/api/request"
	"github.com/mcoot/osrsbingo/internal/api/response"
	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/services/history"
	"github.com/mcoot/osrsbingo/internal/services/rank"
)

// StatsHandler handles death and rank endpoints
type StatsHandler struct {
	historyService history.ServiceInterface
	rankService    rank.ServiceInterface
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(historyService history.ServiceInterface, rankService rank.ServiceInterface) *StatsHandler {
	return &StatsHandler{
		historyService: historyService,
		rankService:    rankService,
	}
}

// RecordDeath handles POST /api/v1/deaths
func (h *StatsHandler) RecordDeath(w http.ResponseWriter, r *http.Request) {
	var req request.DeathRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	input := history.DeathInput{Player: req.Player, NPC: req.NPC}
	if req.Timestamp != nil {
		input.Timestamp = *req.Timestamp
	}

	death, err := h.historyService.RecordDeath(r.Context(), input)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, death)
}

// DeathStats handles GET /api/v1/deaths
func (h *StatsHandler) DeathStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.historyService.DeathStats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

// DeathsByNPC handles GET /api/v1/deaths/by-npc
func (h *StatsHandler) DeathsByNPC(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteError(w, err)
		return
	}

	stats, err := h.historyService.DeathsByNPC(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

// DeathsByPlayerNPC handles GET /api/v1/deaths/by-player-npc
func (h *StatsHandler) DeathsByPlayerNPC(w http.ResponseWriter, r *http.Request) {
	counts, err := h.historyService.DeathsByPlayerNPC(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, counts)
}

// RecordRank handles POST /api/v1/rank/snapshot
func (h *StatsHandler) RecordRank(w http.ResponseWriter, r *http.Request) {
	var req request.RankSnapshotRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	input := rank.SnapshotInput{
		Rank:         req.Rank,
		PrestigeRank: req.PrestigeRank,
		TotalXP:      req.TotalXP,
	}
	if req.Timestamp != nil {
		input.Timestamp = *req.Timestamp
	}

	snapshot, err := h.rankService.RecordSnapshot(r.Context(), input)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, snapshot)
}

// LatestRank handles GET /api/v1/rank
func (h *StatsHandler) LatestRank(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.rankService.Latest(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, snapshot)
}

// RankHistory handles GET /api/v1/rank/history
func (h *StatsHandler) RankHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteError(w, err)
		return
	}

	snapshots, err := h.rankService.History(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	if snapshots == nil {
		snapshots = []*model.RankSnapshot{}
	}
	response.JSON(w, http.StatusOK, response.RankHistory{Snapshots: snapshots})
}
