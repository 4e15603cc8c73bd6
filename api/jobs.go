package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// Assigner runs the assignment transition.
type Assigner interface {
	Assign(ctx context.Context, jobID, contractorID string) (*models.Job, error)
}

type JobsHandler struct {
	jobRepo  repository.JobRepo
	assigner Assigner
}

func NewJobsHandler(jr repository.JobRepo, a Assigner) *JobsHandler {
	return &JobsHandler{jobRepo: jr, assigner: a}
}

type jobResponse struct {
	Message string      `json:"message"`
	Job     *models.Job `json:"job"`
}

type assignRequest struct {
	ContractorID string `json:"contractorId"`
}

func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := h.jobRepo.ListJobs(r.Context(), models.JobFilter{
		ProfileID:            q.Get("profileID"),
		Status:               q.Get("status"),
		AssignedContractorID: q.Get("assignedContractorId"),
	})
	if err != nil {
		writeRepoError(w, r, err, "Job not found")
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	writeJSON(w, jobs, http.StatusOK)
}

func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var in models.JobInput
	if !decodeValidated(w, r, createJobSchema, &in) {
		return
	}

	j, err := h.jobRepo.CreateJob(r.Context(), &in)
	if err != nil {
		writeRepoError(w, r, err, "Job not found")
		return
	}
	writeJSON(w, jobResponse{Message: "Job created successfully", Job: j}, http.StatusCreated)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobRepo.GetJob(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepoError(w, r, err, "Job not found")
		return
	}
	writeJSON(w, j, http.StatusOK)
}

func (h *JobsHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var p models.JobPatch
	if !decodeValidated(w, r, updateJobSchema, &p) {
		return
	}

	j, err := h.jobRepo.UpdateJob(r.Context(), mux.Vars(r)["id"], &p)
	if err != nil {
		writeRepoError(w, r, err, "Job not found")
		return
	}
	writeJSON(w, jobResponse{Message: "Job updated successfully", Job: j}, http.StatusOK)
}

func (h *JobsHandler) AssignJob(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.ContractorID == "" {
		writeError(w, http.StatusBadRequest, "Missing contractorId")
		return
	}

	j, err := h.assigner.Assign(r.Context(), mux.Vars(r)["id"], req.ContractorID)
	if err != nil {
		writeRepoError(w, r, err, "Job not found")
		return
	}
	writeJSON(w, jobResponse{Message: "Job assigned successfully", Job: j}, http.StatusOK)
}

// decodeValidated reads the body, checks it against rs and decodes it into
// v rejecting unknown keys. It writes the 400 itself and reports false on
// any failure.
func decodeValidated(w http.ResponseWriter, r *http.Request, rs *jsonschema.Schema, v any) bool {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return false
	}
	if err := validateBody(r.Context(), rs, body); err != nil {
		writeRepoError(w, r, err, "")
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return false
	}
	return true
}
