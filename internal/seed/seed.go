// Package seed installs the demo accounts used on a fresh install.
package seed

import (
	"context"
	"log/slog"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// DemoPassword is shared by every demo account.
const DemoPassword = "demo123"

// DemoProfiles returns one account per role plus a second contractor.
func DemoProfiles() []models.Profile {
	return []models.Profile{
		{ProfileID: "customer-001", Email: "customer@demo.com", Password: DemoPassword, UserRole: "customer"},
		{ProfileID: "contractor-001", Email: "contractor@demo.com", Password: DemoPassword, UserRole: "contractor"},
		{ProfileID: "contractor-002", Email: "contractor2@demo.com", Password: DemoPassword, UserRole: "contractor"},
		{ProfileID: "admin-001", Email: "admin@demo.com", Password: DemoPassword, UserRole: "admin"},
	}
}

// Demo seeds the demo profiles when the profile table is empty.
func Demo(ctx context.Context, repo repository.ProfileRepo, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	seeded, err := repo.SeedProfiles(ctx, DemoProfiles())
	if err != nil {
		return false, err
	}
	if seeded {
		logger.Info("demo profiles created", slog.Int("count", len(DemoProfiles())))
	} else {
		logger.Debug("profiles present, demo seeding skipped")
	}
	return seeded, nil
}
