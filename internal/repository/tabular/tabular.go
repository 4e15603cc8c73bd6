// Package tabular implements the repository interfaces on record-store
// tables, one table per entity.
package tabular

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/jobboard/internal/recordstore"
	"github.com/garnizeh/jobboard/pkg/repository"
)

var (
	ProfileSchema = recordstore.Schema{
		Name:   "profiles",
		Fields: []string{"profileID", "email", "password", "user_role"},
		Key:    []string{"profileID"},
	}

	JobSchema = recordstore.Schema{
		Name: "jobs",
		Fields: []string{
			"jobID", "profileID", "jobName", "propertyAddress", "city",
			"customerName", "customerEmail", "trade", "estimatedPay", "description",
			"scheduledTime", "squareFootage", "status", "assignedContractorId",
			"materialStatus", "createdAt",
			"contractorProgress_currentStep", "contractorProgress_acknowledged",
			"contractorProgress_lastUpdated",
		},
		Key: []string{"jobID"},
	}

	VerificationSchema = recordstore.Schema{
		Name:   "kyc_submissions",
		Fields: []string{"contractorId", "idPhotoUrl", "selfieUrl", "status", "submittedAt", "verifiedAt"},
		Key:    []string{"contractorId"},
	}

	AgreementSchema = recordstore.Schema{
		Name:   "agreements_signed",
		Fields: []string{"contractorId", "agreementId", "version", "signedName", "signedAt"},
		Key:    []string{"contractorId", "agreementId"},
	}
)

// Schemas lists every table the repository owns.
func Schemas() []recordstore.Schema {
	return []recordstore.Schema{ProfileSchema, JobSchema, VerificationSchema, AgreementSchema}
}

// Repo implements the repository interfaces on one record-store backend.
type Repo struct {
	profiles      *recordstore.Table
	jobs          *recordstore.Table
	verifications *recordstore.Table
	agreements    *recordstore.Table

	logger *slog.Logger
	now    func() time.Time
}

// Ensure Repo implements the public interfaces.
var _ repository.JobRepo = (*Repo)(nil)
var _ repository.ProfileRepo = (*Repo)(nil)
var _ repository.VerificationRepo = (*Repo)(nil)
var _ repository.AgreementRepo = (*Repo)(nil)

func New(b recordstore.Backend, logger *slog.Logger) (*Repo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repo{logger: logger, now: time.Now}
	for _, t := range []struct {
		dst **recordstore.Table
		s   recordstore.Schema
	}{
		{&r.profiles, ProfileSchema},
		{&r.jobs, JobSchema},
		{&r.verifications, VerificationSchema},
		{&r.agreements, AgreementSchema},
	} {
		tbl, err := recordstore.NewTable(t.s, b, logger)
		if err != nil {
			return nil, err
		}
		*t.dst = tbl
	}
	return r, nil
}

// Initialize creates every missing table.
func (r *Repo) Initialize(ctx context.Context) error {
	for _, t := range r.Tables() {
		if err := t.Initialize(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Tables returns the underlying tables in schema order.
func (r *Repo) Tables() []*recordstore.Table {
	return []*recordstore.Table{r.profiles, r.jobs, r.verifications, r.agreements}
}

// SetClock replaces the time source. Used by tests.
func (r *Repo) SetClock(now func() time.Time) { r.now = now }

// errNoChange aborts an Update without writing.
var errNoChange = errors.New("no change")

// update runs fn in the table's critical section. fn returning errNoChange
// leaves the table as it was and is not an error.
func update(ctx context.Context, t *recordstore.Table, fn func([]recordstore.Record) ([]recordstore.Record, error)) error {
	err := t.Update(ctx, fn)
	if errors.Is(err, errNoChange) {
		return nil
	}
	return err
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, repository.ErrNotFound)
}
