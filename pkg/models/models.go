package models

import "time"

// Entity types shared by the repositories and the HTTP layer. JSON keys match
// the stored column names.

// Job statuses modeled by the lifecycle. Other values may be set by update.
const (
	StatusOpen       = "Open"
	StatusInProgress = "InProgress"
)

type Job struct {
	JobID                string `json:"jobID"`
	ProfileID            string `json:"profileID"`
	JobName              string `json:"jobName"`
	PropertyAddress      string `json:"propertyAddress"`
	City                 string `json:"city"`
	CustomerName         string `json:"customerName"`
	CustomerEmail        string `json:"customerEmail"`
	Trade                string `json:"trade"`
	EstimatedPay         string `json:"estimatedPay"`
	Description          string `json:"description"`
	ScheduledTime        string `json:"scheduledTime"`
	SquareFootage        string `json:"squareFootage"`
	Status               string `json:"status"`
	AssignedContractorID string `json:"assignedContractorId"`
	MaterialStatus       string `json:"materialStatus"`
	CreatedAt            string `json:"createdAt"`
	ProgressCurrentStep  string `json:"contractorProgress_currentStep"`
	ProgressAcknowledged string `json:"contractorProgress_acknowledged"`
	ProgressLastUpdated  string `json:"contractorProgress_lastUpdated"`
}

// JobInput carries the fields accepted when a job is created.
type JobInput struct {
	ProfileID            string `json:"profileID"`
	JobName              string `json:"jobName"`
	PropertyAddress      string `json:"propertyAddress"`
	City                 string `json:"city"`
	CustomerName         string `json:"customerName"`
	CustomerEmail        string `json:"customerEmail"`
	Trade                string `json:"trade"`
	EstimatedPay         string `json:"estimatedPay"`
	Description          string `json:"description"`
	ScheduledTime        string `json:"scheduledTime,omitempty"`
	SquareFootage        string `json:"squareFootage,omitempty"`
	MaterialStatus       string `json:"materialStatus,omitempty"`
	AssignedContractorID string `json:"assignedContractorId,omitempty"`
}

// JobPatch lists every field an update may touch. Nil means unchanged.
// JobID, ProfileID and CreatedAt are immutable and only accepted when they
// repeat the stored value.
type JobPatch struct {
	JobID     *string `json:"jobID,omitempty"`
	ProfileID *string `json:"profileID,omitempty"`
	CreatedAt *string `json:"createdAt,omitempty"`

	JobName              *string `json:"jobName,omitempty"`
	PropertyAddress      *string `json:"propertyAddress,omitempty"`
	City                 *string `json:"city,omitempty"`
	CustomerName         *string `json:"customerName,omitempty"`
	CustomerEmail        *string `json:"customerEmail,omitempty"`
	Trade                *string `json:"trade,omitempty"`
	EstimatedPay         *string `json:"estimatedPay,omitempty"`
	Description          *string `json:"description,omitempty"`
	ScheduledTime        *string `json:"scheduledTime,omitempty"`
	SquareFootage        *string `json:"squareFootage,omitempty"`
	Status               *string `json:"status,omitempty"`
	AssignedContractorID *string `json:"assignedContractorId,omitempty"`
	MaterialStatus       *string `json:"materialStatus,omitempty"`
	ProgressCurrentStep  *string `json:"contractorProgress_currentStep,omitempty"`
	ProgressAcknowledged *string `json:"contractorProgress_acknowledged,omitempty"`
	ProgressLastUpdated  *string `json:"contractorProgress_lastUpdated,omitempty"`

	// ContractorProgress replaces all three progress columns at once.
	ContractorProgress *ProgressPatch `json:"contractorProgress,omitempty"`
}

// ProgressPatch is the composite progress value. A nil sub-field clears the
// matching column.
type ProgressPatch struct {
	CurrentStep  *int    `json:"currentStep,omitempty"`
	Acknowledged *bool   `json:"acknowledged,omitempty"`
	LastUpdated  *string `json:"lastUpdated,omitempty"`
}

// JobFilter is a conjunction of exact matches; empty fields do not constrain.
type JobFilter struct {
	ProfileID            string
	Status               string
	AssignedContractorID string
}

// Match reports whether j satisfies every set predicate.
func (f JobFilter) Match(j Job) bool {
	if f.ProfileID != "" && j.ProfileID != f.ProfileID {
		return false
	}
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.AssignedContractorID != "" && j.AssignedContractorID != f.AssignedContractorID {
		return false
	}
	return true
}

type Profile struct {
	ProfileID string `json:"profileID"`
	Email     string `json:"email"`
	Password  string `json:"-"`
	UserRole  string `json:"user_role"`
}

// Verification submission statuses.
const (
	VerificationNotStarted = "not_started"
	VerificationPending    = "pending"
	VerificationVerified   = "verified"
	VerificationRejected   = "rejected"
)

type VerificationSubmission struct {
	ContractorID string `json:"contractorId"`
	IDPhotoURL   string `json:"idPhotoUrl"`
	SelfieURL    string `json:"selfieUrl"`
	Status       string `json:"status"`
	SubmittedAt  string `json:"submittedAt"`
	VerifiedAt   string `json:"verifiedAt"`
}

type AgreementSignature struct {
	ContractorID string `json:"contractorId"`
	AgreementID  string `json:"agreementId"`
	Version      string `json:"version"`
	SignedName   string `json:"signedName"`
	SignedAt     string `json:"signedAt"`
}

// Timestamp renders t the way every stored timestamp is written.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
