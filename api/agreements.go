package api

import (
	"net/http"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

type AgreementsHandler struct {
	repo repository.AgreementRepo
}

func NewAgreementsHandler(ar repository.AgreementRepo) *AgreementsHandler {
	return &AgreementsHandler{repo: ar}
}

type signRequest struct {
	ContractorID string `json:"contractorId"`
	AgreementID  string `json:"agreementId"`
	Version      string `json:"version"`
	SignedName   string `json:"signedName"`
}

type signResponse struct {
	Message     string `json:"message"`
	AgreementID string `json:"agreementId"`
	SignedAt    string `json:"signedAt"`
}

func (h *AgreementsHandler) Status(w http.ResponseWriter, r *http.Request) {
	contractorID := r.URL.Query().Get("contractorId")
	if contractorID == "" {
		writeError(w, http.StatusBadRequest, "Missing contractorId")
		return
	}

	sigs, err := h.repo.ListSignatures(r.Context(), contractorID)
	if err != nil {
		writeRepoError(w, r, err, "")
		return
	}
	if sigs == nil {
		sigs = []models.AgreementSignature{}
	}
	writeJSON(w, sigs, http.StatusOK)
}

// Sign records a signature; signing the same agreement again replaces the
// earlier one.
func (h *AgreementsHandler) Sign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	s, err := h.repo.SignAgreement(r.Context(), &models.AgreementSignature{
		ContractorID: req.ContractorID,
		AgreementID:  req.AgreementID,
		Version:      req.Version,
		SignedName:   req.SignedName,
	})
	if err != nil {
		writeRepoError(w, r, err, "")
		return
	}
	writeJSON(w, signResponse{
		Message:     "Agreement signed successfully",
		AgreementID: s.AgreementID,
		SignedAt:    s.SignedAt,
	}, http.StatusCreated)
}
