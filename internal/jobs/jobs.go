// Package jobs holds the job lifecycle: the assignment transition and the
// rule tying a job's status to its assigned contractor.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// FirstStep is the progress step every fresh assignment starts from.
const FirstStep = "1"

// Assign moves j to InProgress under contractorID and restarts its progress.
// Re-assigning an assigned job is the same transition.
func Assign(j *models.Job, contractorID string, now time.Time) error {
	if strings.TrimSpace(contractorID) == "" {
		return &repository.ValidationError{Fields: []string{"contractorId"}, Reason: "contractor id is required"}
	}
	j.AssignedContractorID = contractorID
	j.Status = models.StatusInProgress
	j.ProgressCurrentStep = FirstStep
	j.ProgressAcknowledged = "false"
	j.ProgressLastUpdated = models.Timestamp(now)
	return nil
}

// InitCreated sets the status and progress defaults of a job being created.
// A job created with a contractor starts assigned, any other job starts Open
// with empty progress.
func InitCreated(j *models.Job, now time.Time) {
	if strings.TrimSpace(j.AssignedContractorID) != "" {
		_ = Assign(j, j.AssignedContractorID, now)
		return
	}
	j.AssignedContractorID = ""
	j.Status = models.StatusOpen
	j.ProgressCurrentStep = ""
	j.ProgressAcknowledged = ""
	j.ProgressLastUpdated = ""
}

// CheckAssignment enforces that an Open job has no contractor and an
// InProgress job has one, and that progress only exists on an assigned job.
func CheckAssignment(j models.Job) error {
	if j.AssignedContractorID == "" {
		var fields []string
		if j.ProgressCurrentStep != "" {
			fields = append(fields, "contractorProgress_currentStep")
		}
		if j.ProgressAcknowledged != "" {
			fields = append(fields, "contractorProgress_acknowledged")
		}
		if j.ProgressLastUpdated != "" {
			fields = append(fields, "contractorProgress_lastUpdated")
		}
		if len(fields) > 0 {
			return &repository.ValidationError{
				Fields: fields,
				Reason: "progress requires an assigned contractor",
			}
		}
	}
	switch j.Status {
	case models.StatusOpen:
		if j.AssignedContractorID != "" {
			return &repository.ValidationError{
				Fields: []string{"status", "assignedContractorId"},
				Reason: "an Open job cannot have an assigned contractor",
			}
		}
	case models.StatusInProgress:
		if j.AssignedContractorID == "" {
			return &repository.ValidationError{
				Fields: []string{"status", "assignedContractorId"},
				Reason: "an InProgress job needs an assigned contractor",
			}
		}
	}
	return nil
}

// Manager runs lifecycle transitions against a job repository.
type Manager struct {
	repo   repository.JobRepo
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(repo repository.JobRepo, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{repo: repo, logger: logger, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// Assign assigns the job to contractorID in a single read-modify-write cycle.
func (m *Manager) Assign(ctx context.Context, jobID, contractorID string) (*models.Job, error) {
	if strings.TrimSpace(contractorID) == "" {
		return nil, &repository.ValidationError{Fields: []string{"contractorId"}, Reason: "contractor id is required"}
	}
	j, err := m.repo.ModifyJob(ctx, jobID, func(j *models.Job) error {
		return Assign(j, contractorID, m.now())
	})
	if err != nil {
		return nil, fmt.Errorf("assign job %s: %w", jobID, err)
	}
	m.logger.Info("job assigned", slog.String("job_id", jobID), slog.String("contractor_id", contractorID))
	return j, nil
}
