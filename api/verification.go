package api

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/garnizeh/jobboard/internal/uploads"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const multipartMemory = 8 << 20

type VerificationHandler struct {
	repo  repository.VerificationRepo
	store *uploads.Store
}

func NewVerificationHandler(vr repository.VerificationRepo, store *uploads.Store) *VerificationHandler {
	return &VerificationHandler{repo: vr, store: store}
}

type submitResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type statusResponse struct {
	Status      string `json:"status"`
	SubmittedAt string `json:"submittedAt,omitempty"`
	VerifiedAt  string `json:"verifiedAt"`
}

type notStartedResponse struct {
	Status string `json:"status"`
}

type reviewRequest struct {
	ContractorID string `json:"contractorId"`
	Status       string `json:"status"`
}

// Submit stores both photos and records a pending submission for the
// contractor, replacing any earlier one.
func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.store.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, 2*h.store.MaxBytes+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "Photo too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Missing required photos")
		return
	}
	defer r.MultipartForm.RemoveAll()

	idPhoto, idOK := formFile(r, "idPhoto")
	selfie, selfieOK := formFile(r, "selfiePhoto")
	if !idOK || !selfieOK {
		writeError(w, http.StatusBadRequest, "Missing required photos")
		return
	}
	contractorID := r.FormValue("contractorId")
	if contractorID == "" {
		writeError(w, http.StatusBadRequest, "Missing contractorId")
		return
	}

	idPath, err := h.savePhoto(contractorID, "id", idPhoto)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}
	selfiePath, err := h.savePhoto(contractorID, "selfie", selfie)
	if err != nil {
		h.store.Remove(idPath)
		h.writeUploadError(w, r, err)
		return
	}

	_, replaced, err := h.repo.UpsertSubmission(r.Context(), &models.VerificationSubmission{
		ContractorID: contractorID,
		IDPhotoURL:   idPath,
		SelfieURL:    selfiePath,
	})
	if err != nil {
		h.store.Remove(idPath, selfiePath)
		writeRepoError(w, r, err, "Submission not found")
		return
	}
	if replaced != nil {
		h.store.Remove(replaced.IDPhotoURL, replaced.SelfieURL)
	}

	logger.Info("verification submitted",
		slog.String("contractor_id", contractorID),
		slog.String("request_id", RequestIDFromContext(r.Context())),
	)
	writeJSON(w, submitResponse{Message: "KYC submission received", Status: models.VerificationPending}, http.StatusCreated)
}

// Status reports not_started for a contractor who never submitted.
func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	contractorID := r.URL.Query().Get("contractorId")
	if contractorID == "" {
		writeError(w, http.StatusBadRequest, "Missing contractorId")
		return
	}

	s, err := h.repo.GetSubmission(r.Context(), contractorID)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, notStartedResponse{Status: models.VerificationNotStarted}, http.StatusOK)
		return
	}
	if err != nil {
		writeRepoError(w, r, err, "Submission not found")
		return
	}
	writeJSON(w, statusResponse{Status: s.Status, SubmittedAt: s.SubmittedAt, VerifiedAt: s.VerifiedAt}, http.StatusOK)
}

func (h *VerificationHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := repository.MissingFields([]string{"contractorId", "status"}, map[string]string{
		"contractorId": req.ContractorID,
		"status":       req.Status,
	}); err != nil {
		writeRepoError(w, r, err, "")
		return
	}

	s, err := h.repo.ReviewSubmission(r.Context(), req.ContractorID, req.Status)
	if err != nil {
		writeRepoError(w, r, err, "Submission not found")
		return
	}
	writeJSON(w, s, http.StatusOK)
}

func (h *VerificationHandler) savePhoto(contractorID, kind string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.store.SaveKYC(contractorID, kind, f)
}

func (h *VerificationHandler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, uploads.ErrTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Photo too large")
		return
	}
	writeRepoError(w, r, err, "")
}

func formFile(r *http.Request, name string) (*multipart.FileHeader, bool) {
	if r.MultipartForm == nil {
		return nil, false
	}
	fhs := r.MultipartForm.File[name]
	if len(fhs) == 0 || fhs[0].Filename == "" {
		return nil, false
	}
	return fhs[0], true
}
