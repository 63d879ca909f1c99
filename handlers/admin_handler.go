package handlers

import (
	"net/http"

	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/services"
)

type AdminHandler struct {
	finalizeService services.FinalizeService
	userService     services.UserService
	judgingService  services.JudgingService
}

func NewAdminHandler(finalizeService services.FinalizeService, userService services.UserService, judgingService services.JudgingService) *AdminHandler {
	return &AdminHandler{
		finalizeService: finalizeService,
		userService:     userService,
		judgingService:  judgingService,
	}
}

// FinalizeBattle переводит матч в терминальный статус; публичные
// агрегаты обновляются внутри сервиса. Повторная финализация — 409.
func (h *AdminHandler) FinalizeBattle(w http.ResponseWriter, r *http.Request) {
	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.finalizeService.FinalizeMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := getUUIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Role models.UserRole `json:"role"`
		Op   services.RoleOp `json:"op"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.SetRole(r.Context(), targetID, input.Role, input.Op)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"user": user,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) AddJudgeToPool(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getUUIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.judgingService.AddToPool(r.Context(), tournamentID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) RemoveJudgeFromPool(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getUUIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.judgingService.RemoveFromPool(r.Context(), tournamentID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListJudgePool(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	members, err := h.judgingService.ListPool(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"judges": members,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
