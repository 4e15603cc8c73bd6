package tabular

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/garnizeh/jobboard/internal/jobs"
	"github.com/garnizeh/jobboard/internal/recordstore"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

var requiredJobFields = []string{
	"profileID", "jobName", "propertyAddress", "city", "customerName",
	"customerEmail", "trade", "estimatedPay", "description",
}

func jobRecord(j *models.Job) recordstore.Record {
	return recordstore.Record{
		"jobID":                           j.JobID,
		"profileID":                       j.ProfileID,
		"jobName":                         j.JobName,
		"propertyAddress":                 j.PropertyAddress,
		"city":                            j.City,
		"customerName":                    j.CustomerName,
		"customerEmail":                   j.CustomerEmail,
		"trade":                           j.Trade,
		"estimatedPay":                    j.EstimatedPay,
		"description":                     j.Description,
		"scheduledTime":                   j.ScheduledTime,
		"squareFootage":                   j.SquareFootage,
		"status":                          j.Status,
		"assignedContractorId":            j.AssignedContractorID,
		"materialStatus":                  j.MaterialStatus,
		"createdAt":                       j.CreatedAt,
		"contractorProgress_currentStep":  j.ProgressCurrentStep,
		"contractorProgress_acknowledged": j.ProgressAcknowledged,
		"contractorProgress_lastUpdated":  j.ProgressLastUpdated,
	}
}

func recordJob(rec recordstore.Record) models.Job {
	return models.Job{
		JobID:                rec["jobID"],
		ProfileID:            rec["profileID"],
		JobName:              rec["jobName"],
		PropertyAddress:      rec["propertyAddress"],
		City:                 rec["city"],
		CustomerName:         rec["customerName"],
		CustomerEmail:        rec["customerEmail"],
		Trade:                rec["trade"],
		EstimatedPay:         rec["estimatedPay"],
		Description:          rec["description"],
		ScheduledTime:        rec["scheduledTime"],
		SquareFootage:        rec["squareFootage"],
		Status:               rec["status"],
		AssignedContractorID: rec["assignedContractorId"],
		MaterialStatus:       rec["materialStatus"],
		CreatedAt:            rec["createdAt"],
		ProgressCurrentStep:  rec["contractorProgress_currentStep"],
		ProgressAcknowledged: rec["contractorProgress_acknowledged"],
		ProgressLastUpdated:  rec["contractorProgress_lastUpdated"],
	}
}

func (r *Repo) CreateJob(ctx context.Context, in *models.JobInput) (*models.Job, error) {
	if in == nil {
		return nil, &repository.ValidationError{Fields: requiredJobFields, Reason: "missing required fields"}
	}
	if err := repository.MissingFields(requiredJobFields, map[string]string{
		"profileID":       in.ProfileID,
		"jobName":         in.JobName,
		"propertyAddress": in.PropertyAddress,
		"city":            in.City,
		"customerName":    in.CustomerName,
		"customerEmail":   in.CustomerEmail,
		"trade":           in.Trade,
		"estimatedPay":    in.EstimatedPay,
		"description":     in.Description,
	}); err != nil {
		return nil, err
	}

	now := r.now()
	j := models.Job{
		ProfileID:            in.ProfileID,
		JobName:              in.JobName,
		PropertyAddress:      in.PropertyAddress,
		City:                 in.City,
		CustomerName:         in.CustomerName,
		CustomerEmail:        in.CustomerEmail,
		Trade:                in.Trade,
		EstimatedPay:         in.EstimatedPay,
		Description:          in.Description,
		ScheduledTime:        in.ScheduledTime,
		SquareFootage:        in.SquareFootage,
		MaterialStatus:       in.MaterialStatus,
		AssignedContractorID: in.AssignedContractorID,
		CreatedAt:            models.Timestamp(now),
	}
	jobs.InitCreated(&j, now)

	err := r.jobs.Update(ctx, func(recs []recordstore.Record) ([]recordstore.Record, error) {
		// ids are random, but a clash must never replace an existing job
		for {
			j.JobID = uuid.NewString()
			if !containsKey(JobSchema, recs, j.JobID) {
				break
			}
		}
		return append(recs, jobRecord(&j)), nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("job created", slog.String("job_id", j.JobID), slog.String("status", j.Status))
	return &j, nil
}

func (r *Repo) ListJobs(ctx context.Context, f models.JobFilter) ([]models.Job, error) {
	recs, err := r.jobs.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Job{}
	for _, rec := range recs {
		j := recordJob(rec)
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *Repo) GetJob(ctx context.Context, id string) (*models.Job, error) {
	rec, ok, err := r.jobs.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("job", id)
	}
	j := recordJob(rec)
	return &j, nil
}

func (r *Repo) UpdateJob(ctx context.Context, id string, p *models.JobPatch) (*models.Job, error) {
	return r.ModifyJob(ctx, id, func(j *models.Job) error {
		if p == nil {
			return nil
		}
		if err := applyPatch(j, p); err != nil {
			return err
		}
		return jobs.CheckAssignment(*j)
	})
}

func (r *Repo) ModifyJob(ctx context.Context, id string, fn func(j *models.Job) error) (*models.Job, error) {
	var out models.Job
	err := r.jobs.Update(ctx, func(recs []recordstore.Record) ([]recordstore.Record, error) {
		for i, rec := range recs {
			if !JobSchema.Matches(rec, []string{id}) {
				continue
			}
			j := recordJob(rec)
			if err := fn(&j); err != nil {
				return nil, err
			}
			if j.JobID != id {
				return nil, repository.Invalid("jobID", "job id is immutable")
			}
			next := jobRecord(&j)
			// keep columns this repository does not know about
			for k, v := range rec {
				if _, ok := next[k]; !ok {
					next[k] = v
				}
			}
			recs[i] = next
			out = j
			return recs, nil
		}
		return nil, notFound("job", id)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// applyPatch merges p into j. Flat progress columns go first so that the
// composite contractorProgress value wins when both are present.
func applyPatch(j *models.Job, p *models.JobPatch) error {
	immutable := []struct {
		name   string
		patch  *string
		stored string
	}{
		{"jobID", p.JobID, j.JobID},
		{"profileID", p.ProfileID, j.ProfileID},
		{"createdAt", p.CreatedAt, j.CreatedAt},
	}
	var changed []string
	for _, f := range immutable {
		if f.patch != nil && *f.patch != f.stored {
			changed = append(changed, f.name)
		}
	}
	if len(changed) > 0 {
		return &repository.ValidationError{Fields: changed, Reason: "fields are immutable"}
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&j.JobName, p.JobName)
	set(&j.PropertyAddress, p.PropertyAddress)
	set(&j.City, p.City)
	set(&j.CustomerName, p.CustomerName)
	set(&j.CustomerEmail, p.CustomerEmail)
	set(&j.Trade, p.Trade)
	set(&j.EstimatedPay, p.EstimatedPay)
	set(&j.Description, p.Description)
	set(&j.ScheduledTime, p.ScheduledTime)
	set(&j.SquareFootage, p.SquareFootage)
	set(&j.Status, p.Status)
	set(&j.AssignedContractorID, p.AssignedContractorID)
	if p.AssignedContractorID != nil && j.AssignedContractorID == "" {
		// Unassigning drops the progress that belonged to the old contractor.
		j.ProgressCurrentStep = ""
		j.ProgressAcknowledged = ""
		j.ProgressLastUpdated = ""
	}
	set(&j.MaterialStatus, p.MaterialStatus)
	set(&j.ProgressCurrentStep, p.ProgressCurrentStep)
	set(&j.ProgressAcknowledged, p.ProgressAcknowledged)
	set(&j.ProgressLastUpdated, p.ProgressLastUpdated)

	if cp := p.ContractorProgress; cp != nil {
		j.ProgressCurrentStep = ""
		if cp.CurrentStep != nil {
			j.ProgressCurrentStep = strconv.Itoa(*cp.CurrentStep)
		}
		j.ProgressAcknowledged = ""
		if cp.Acknowledged != nil {
			j.ProgressAcknowledged = strconv.FormatBool(*cp.Acknowledged)
		}
		j.ProgressLastUpdated = ""
		if cp.LastUpdated != nil {
			j.ProgressLastUpdated = *cp.LastUpdated
		}
	}
	return nil
}

func containsKey(s recordstore.Schema, recs []recordstore.Record, key ...string) bool {
	for _, rec := range recs {
		if s.Matches(rec, key) {
			return true
		}
	}
	return false
}
