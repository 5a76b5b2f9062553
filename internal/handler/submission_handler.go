package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/parisxmas/icpform/internal/models"
	"github.com/parisxmas/icpform/internal/schema"
	"github.com/parisxmas/icpform/internal/service"
)

const (
	msgInvalidForm  = "Invalid form data"
	msgSubmitFailed = "Failed to submit form"
	msgFetchFailed  = "Failed to fetch submissions"
	msgSubmitted    = "Form submitted successfully"
)

type SubmissionHandler struct {
	svc *service.SubmissionService
}

func NewSubmissionHandler(svc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{svc: svc}
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Submit handles POST /api/submit-form.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if err := readJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidForm)
		return
	}

	sub, err := h.svc.Create(r.Context(), &p)
	var fieldErrs schema.FieldErrors
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingCompanyName):
		writeError(w, http.StatusBadRequest, msgInvalidForm)
		return
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: msgInvalidForm, Errors: fieldErrs})
		return
	default:
		log.Printf("Error submitting form: %v", err)
		writeError(w, http.StatusInternalServerError, msgSubmitFailed)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{Success: true, Message: msgSubmitted, ID: sub.ID})
}

// List handles GET /api/submissions?limit=&page=.
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	res, err := h.svc.List(r.Context(), page, limit)
	if err != nil {
		log.Printf("Error fetching submissions: %v", err)
		writeError(w, http.StatusInternalServerError, msgFetchFailed)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: res})
}

