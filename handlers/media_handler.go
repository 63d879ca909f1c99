package handlers

import (
	"net/http"

	"github.com/flowclash/battle-system/services"
)

type MediaHandler struct {
	mediaService services.MediaService
}

func NewMediaHandler(mediaService services.MediaService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
	}
}

// CreateUpload выдаёт presigned PUT для прямой загрузки файла в хранилище.
func (h *MediaHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Filename string             `json:"filename"`
		Mime     string             `json:"mime"`
		Kind     services.MediaKind `json:"kind"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	upload, err := h.mediaService.CreatePresignedUpload(r.Context(), input.Filename, input.Mime, input.Kind)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, upload, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
