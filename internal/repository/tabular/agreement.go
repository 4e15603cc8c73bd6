package tabular

import (
	"context"

	"github.com/garnizeh/jobboard/internal/recordstore"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

func agreementRecord(s *models.AgreementSignature) recordstore.Record {
	return recordstore.Record{
		"contractorId": s.ContractorID,
		"agreementId":  s.AgreementID,
		"version":      s.Version,
		"signedName":   s.SignedName,
		"signedAt":     s.SignedAt,
	}
}

func recordAgreement(rec recordstore.Record) models.AgreementSignature {
	return models.AgreementSignature{
		ContractorID: rec["contractorId"],
		AgreementID:  rec["agreementId"],
		Version:      rec["version"],
		SignedName:   rec["signedName"],
		SignedAt:     rec["signedAt"],
	}
}

// SignAgreement records a signature. Signing the same agreement again
// replaces the earlier row in place.
func (r *Repo) SignAgreement(ctx context.Context, s *models.AgreementSignature) (*models.AgreementSignature, error) {
	if s == nil {
		s = &models.AgreementSignature{}
	}
	if err := repository.MissingFields([]string{"contractorId", "agreementId", "version", "signedName"}, map[string]string{
		"contractorId": s.ContractorID,
		"agreementId":  s.AgreementID,
		"version":      s.Version,
		"signedName":   s.SignedName,
	}); err != nil {
		return nil, err
	}

	out := *s
	out.SignedAt = models.Timestamp(r.now())
	err := r.agreements.Update(ctx, func(recs []recordstore.Record) ([]recordstore.Record, error) {
		for i, rec := range recs {
			if AgreementSchema.Matches(rec, []string{out.ContractorID, out.AgreementID}) {
				recs[i] = agreementRecord(&out)
				return recs, nil
			}
		}
		return append(recs, agreementRecord(&out)), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) ListSignatures(ctx context.Context, contractorID string) ([]models.AgreementSignature, error) {
	recs, err := r.agreements.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.AgreementSignature{}
	for _, rec := range recs {
		if rec["contractorId"] == contractorID {
			out = append(out, recordAgreement(rec))
		}
	}
	return out, nil
}
