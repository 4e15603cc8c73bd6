package tabular

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/garnizeh/jobboard/internal/recordstore"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

func profileRecord(p *models.Profile) recordstore.Record {
	return recordstore.Record{
		"profileID": p.ProfileID,
		"email":     p.Email,
		"password":  p.Password,
		"user_role": p.UserRole,
	}
}

func recordProfile(rec recordstore.Record) models.Profile {
	return models.Profile{
		ProfileID: rec["profileID"],
		Email:     rec["email"],
		Password:  rec["password"],
		UserRole:  rec["user_role"],
	}
}

// CreateProfile stores a new profile. The email uniqueness check runs in the
// same critical section as the write.
func (r *Repo) CreateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if p == nil {
		p = &models.Profile{}
	}
	if err := repository.MissingFields([]string{"email", "password", "user_role"}, map[string]string{
		"email":     p.Email,
		"password":  p.Password,
		"user_role": p.UserRole,
	}); err != nil {
		return nil, err
	}

	out := *p
	err := r.profiles.Update(ctx, func(recs []recordstore.Record) ([]recordstore.Record, error) {
		for _, rec := range recs {
			if rec["email"] == out.Email {
				return nil, fmt.Errorf("email %s: %w", out.Email, repository.ErrDuplicateKey)
			}
		}
		if out.ProfileID == "" {
			for {
				out.ProfileID = uuid.NewString()
				if !containsKey(ProfileSchema, recs, out.ProfileID) {
					break
				}
			}
		} else if containsKey(ProfileSchema, recs, out.ProfileID) {
			return nil, fmt.Errorf("profile %s: %w", out.ProfileID, repository.ErrDuplicateKey)
		}
		return append(recs, profileRecord(&out)), nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("profile created", slog.String("profile_id", out.ProfileID), slog.String("role", out.UserRole))
	return &out, nil
}

func (r *Repo) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	recs, err := r.profiles.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Profile, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recordProfile(rec))
	}
	return out, nil
}

func (r *Repo) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	rec, ok, err := r.profiles.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("profile", id)
	}
	p := recordProfile(rec)
	return &p, nil
}

func (r *Repo) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	recs, err := r.profiles.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec["email"] == email {
			p := recordProfile(rec)
			return &p, nil
		}
	}
	return nil, notFound("profile with email", email)
}

func (r *Repo) SeedProfiles(ctx context.Context, ps []models.Profile) (bool, error) {
	seeded := false
	err := update(ctx, r.profiles, func(recs []recordstore.Record) ([]recordstore.Record, error) {
		if len(recs) > 0 || len(ps) == 0 {
			return nil, errNoChange
		}
		for i := range ps {
			recs = append(recs, profileRecord(&ps[i]))
		}
		seeded = true
		return recs, nil
	})
	if err != nil {
		return false, err
	}
	if seeded {
		r.logger.Info("profiles seeded", slog.Int("count", len(ps)))
	}
	return seeded, nil
}
