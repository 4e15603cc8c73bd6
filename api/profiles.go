package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

type ProfilesHandler struct {
	profileRepo repository.ProfileRepo
}

func NewProfilesHandler(pr repository.ProfileRepo) *ProfilesHandler {
	return &ProfilesHandler{profileRepo: pr}
}

// ListProfiles returns every profile. Passwords never leave the server.
func (h *ProfilesHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	ps, err := h.profileRepo.ListProfiles(r.Context())
	if err != nil {
		writeRepoError(w, r, err, "Profile not found")
		return
	}
	if ps == nil {
		ps = []models.Profile{}
	}
	writeJSON(w, ps, http.StatusOK)
}

func (h *ProfilesHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profileRepo.GetProfile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepoError(w, r, err, "Profile not found")
		return
	}
	writeJSON(w, p, http.StatusOK)
}
