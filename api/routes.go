package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/jobboard/internal/uploads"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Jobs          repository.JobRepo
	Profiles      repository.ProfileRepo
	Verifications repository.VerificationRepo
	Agreements    repository.AgreementRepo
	Assigner      Assigner
	Uploads       *uploads.Store

	Version   string
	BuildTime string

	CORSOrigins []string
	RateLimit   RateLimitConfig
	Timeout     time.Duration
}

func SetupRoutes(d Deps) http.Handler {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(RequestID)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	if d.RateLimit.RequestsPerSecond > 0 {
		r.Use(RateLimiter(d.RateLimit))
	}
	r.Use(Timeout(d.Timeout))

	// Create handlers
	systemHandler := NewSystemHandler(d.Version, d.BuildTime)
	authHandler := NewAuthHandler(d.Profiles)
	profilesHandler := NewProfilesHandler(d.Profiles)
	jobsHandler := NewJobsHandler(d.Jobs, d.Assigner)
	verificationHandler := NewVerificationHandler(d.Verifications, d.Uploads)
	agreementsHandler := NewAgreementsHandler(d.Agreements)

	r.HandleFunc("/version", systemHandler.VersionHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")

	// Profiles and auth
	api.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/profiles", profilesHandler.ListProfiles).Methods("GET")
	api.HandleFunc("/profiles/{id}", profilesHandler.GetProfile).Methods("GET")

	// Jobs
	api.HandleFunc("/jobs", jobsHandler.ListJobs).Methods("GET")
	api.HandleFunc("/jobs", jobsHandler.CreateJob).Methods("POST")
	api.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}", jobsHandler.UpdateJob).Methods("PUT")
	api.HandleFunc("/jobs/{id}/assign", jobsHandler.AssignJob).Methods("POST")

	// Contractor verification
	api.HandleFunc("/kyc/submit", verificationHandler.Submit).Methods("POST")
	api.HandleFunc("/kyc/status", verificationHandler.Status).Methods("GET")
	api.HandleFunc("/kyc/review", verificationHandler.Review).Methods("POST")

	// Agreements
	api.HandleFunc("/agreements/status", agreementsHandler.Status).Methods("GET")
	api.HandleFunc("/agreements/sign", agreementsHandler.Sign).Methods("POST")

	// CORS wraps the router so preflight requests are answered even though
	// no route matches OPTIONS.
	return CORSMiddleware(d.CORSOrigins)(r)
}
