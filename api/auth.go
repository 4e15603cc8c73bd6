package api

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

type AuthHandler struct {
	profileRepo repository.ProfileRepo
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(pr repository.ProfileRepo) *AuthHandler {
	return &AuthHandler{profileRepo: pr}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserRole string `json:"user_role"`
}

type signupResponse struct {
	Message   string `json:"message"`
	ProfileID string `json:"profileID"`
	Email     string `json:"email"`
	UserRole  string `json:"user_role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string          `json:"message"`
	Profile *models.Profile `json:"profile"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Email == "" || req.Password == "" || req.UserRole == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: email, password, user_role")
		return
	}

	p, err := h.profileRepo.CreateProfile(r.Context(), &models.Profile{
		Email:    req.Email,
		Password: req.Password,
		UserRole: req.UserRole,
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		writeError(w, http.StatusBadRequest, "Email already exists")
		return
	}
	if err != nil {
		writeRepoError(w, r, err, "Profile not found")
		return
	}

	writeJSON(w, signupResponse{
		Message:   "User created successfully",
		ProfileID: p.ProfileID,
		Email:     p.Email,
		UserRole:  p.UserRole,
	}, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing email or password")
		return
	}

	p, err := h.authenticate(r, req.Email, req.Password)
	if err != nil {
		writeRepoError(w, r, err, "Invalid credentials")
		return
	}
	writeJSON(w, loginResponse{Message: "Login successful", Profile: p}, http.StatusOK)
}

// authenticate returns ErrInvalidCredentials for an unknown email or a
// wrong password alike.
func (h *AuthHandler) authenticate(r *http.Request, email, password string) (*models.Profile, error) {
	p, err := h.profileRepo.GetProfileByEmail(r.Context(), email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(p.Password), []byte(password)) != 1 {
		logger.Debug("login rejected", slog.String("profile_id", p.ProfileID))
		return nil, repository.ErrInvalidCredentials
	}
	return p, nil
}
