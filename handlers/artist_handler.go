package handlers

import (
	"net/http"

	"github.com/flowclash/battle-system/middleware"
	"github.com/flowclash/battle-system/services"
)

type ArtistHandler struct {
	submissionService services.SubmissionService
}

func NewArtistHandler(submissionService services.SubmissionService) *ArtistHandler {
	return &ArtistHandler{
		submissionService: submissionService,
	}
}

// UpsertTrack создаёт или заменяет трек вызывающего участника в матче.
func (h *ArtistHandler) UpsertTrack(w http.ResponseWriter, r *http.Request) {
	participantID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.TrackInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	track, err := h.submissionService.UpsertTrack(r.Context(), matchID, participantID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"track": track,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitTrack переводит черновик в submitted; после этого трек виден судьям.
func (h *ArtistHandler) SubmitTrack(w http.ResponseWriter, r *http.Request) {
	participantID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	trackID, err := getUUIDFromURL(r, "trackID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	track, err := h.submissionService.SubmitTrack(r.Context(), trackID, participantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"track": track,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
