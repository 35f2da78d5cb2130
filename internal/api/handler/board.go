package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/osrsbingo/internal/api/middleware"
	"github.com/mcoot/osrsbingo/internal/api/request"
	"github.com/mcoot/osrsbingo/internal/api/response"
	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/services/board"
	"github.com/mcoot/osrsbingo/internal/services/scoring"
)

// BoardHandler handles board, leaderboard and line endpoints
type BoardHandler struct {
	boardService   board.ServiceInterface
	scoringService scoring.ServiceInterface
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boardService board.ServiceInterface, scoringService scoring.ServiceInterface) *BoardHandler {
	return &BoardHandler{
		boardService:   boardService,
		scoringService: scoringService,
	}
}

// Get handles GET /api/v1/board
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardService.Get(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// Replace handles PUT /api/v1/board
func (h *BoardHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var replacement model.Board
	if err := decodeJSON(r, &replacement, false); err != nil {
		WriteError(w, err)
		return
	}

	b, err := h.boardService.Replace(r.Context(), middleware.IsAdmin(r.Context()), &replacement)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// Resize handles POST /api/v1/board/resize
func (h *BoardHandler) Resize(w http.ResponseWriter, r *http.Request) {
	var req request.ResizeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	b, err := h.boardService.Resize(r.Context(), middleware.IsAdmin(r.Context()), req.Size)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// Clear handles POST /api/v1/board/clear
func (h *BoardHandler) Clear(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardService.Clear(r.Context(), middleware.IsAdmin(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// Shuffle handles POST /api/v1/board/shuffle
func (h *BoardHandler) Shuffle(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardService.Shuffle(r.Context(), middleware.IsAdmin(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// UndoShuffle handles POST /api/v1/board/shuffle/undo
func (h *BoardHandler) UndoShuffle(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardService.UndoShuffle(r.Context(), middleware.IsAdmin(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// EditTile handles PUT /api/v1/board/tiles/{index}
func (h *BoardHandler) EditTile(w http.ResponseWriter, r *http.Request) {
	index, err := tileIndex(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.EditTileRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	items := req.Items
	if len(items) == 0 && req.ItemsText != "" {
		items = board.SplitItems(req.ItemsText)
	}

	b, err := h.boardService.EditTile(r.Context(), middleware.IsAdmin(r.Context()), index, model.TileEdit{
		Items:        items,
		Value:        req.Value,
		DisplayTitle: req.Title,
		RequireAll:   req.RequireAll,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// SetLineBonuses handles PUT /api/v1/board/bonuses
func (h *BoardHandler) SetLineBonuses(w http.ResponseWriter, r *http.Request) {
	var req request.LineBonusesRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	b, err := h.boardService.SetLineBonuses(r.Context(), middleware.IsAdmin(r.Context()), model.LineBonuses{
		Rows:  req.Rows,
		Cols:  req.Cols,
		Diags: req.Diags,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// AddCompletion handles POST /api/v1/board/tiles/{index}/completions
func (h *BoardHandler) AddCompletion(w http.ResponseWriter, r *http.Request) {
	index, err := tileIndex(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.CompletionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	b, err := h.boardService.OverrideCompletion(r.Context(), middleware.IsAdmin(r.Context()), index, req.Player, model.OverrideAdd)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// RemoveCompletion handles DELETE /api/v1/board/tiles/{index}/completions/{player}
func (h *BoardHandler) RemoveCompletion(w http.ResponseWriter, r *http.Request) {
	index, err := tileIndex(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	player := mux.Vars(r)["player"]
	b, err := h.boardService.OverrideCompletion(r.Context(), middleware.IsAdmin(r.Context()), index, player, model.OverrideRemove)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *BoardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardService.Get(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	scores, err := h.scoringService.ComputeLeaderboard(b)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Leaderboard{
		Leader:  h.scoringService.DetermineLeader(scores),
		Players: scores,
	})
}

// Lines handles GET /api/v1/players/{player}/lines
func (h *BoardHandler) Lines(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardService.Get(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	score, err := h.scoringService.PlayerScore(b, mux.Vars(r)["player"])
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, score)
}
