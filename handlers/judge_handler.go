package handlers

import (
	"net/http"

	"github.com/flowclash/battle-system/middleware"
	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/services"
)

type JudgeHandler struct {
	judgingService    services.JudgingService
	evaluationService services.EvaluationService
}

func NewJudgeHandler(judgingService services.JudgingService, evaluationService services.EvaluationService) *JudgeHandler {
	return &JudgeHandler{
		judgingService:    judgingService,
		evaluationService: evaluationService,
	}
}

func (h *JudgeHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	judgeID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	assignments, err := h.judgingService.ListAssignments(r.Context(), judgeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"assignments": assignments,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// NextAssignment выдаёт судье следующий матч на оценку. Повторный вызов
// возвращает уже выданное назначение; если подходящих матчей нет — 204.
func (h *JudgeHandler) NextAssignment(w http.ResponseWriter, r *http.Request) {
	judgeID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	assignment, err := h.judgingService.NextAssignment(r.Context(), judgeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if assignment == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	response := jsonResponse{
		"assignment": assignment,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *JudgeHandler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	judgeID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	assignmentID, err := getUUIDFromURL(r, "assignmentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.AssignmentStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	assignment, err := h.judgingService.UpdateAssignmentStatus(r.Context(), assignmentID, judgeID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"assignment": assignment,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *JudgeHandler) GetBattle(w http.ResponseWriter, r *http.Request) {
	judgeID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	details, err := h.judgingService.BattleDetails(r.Context(), judgeID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, details, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *JudgeHandler) SubmitScores(w http.ResponseWriter, r *http.Request) {
	judgeID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.EvaluationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.evaluationService.UpsertEvaluation(r.Context(), judgeID, matchID, input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"ok": true,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
