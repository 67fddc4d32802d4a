package seeder

import (
	"context"
	"errors"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// ExitCauseCatalogue is the fixed set of exit causes and their display labels.
// Codes are immutable; labels are what the presentation layer shows.
var ExitCauseCatalogue = []domain.ExitCauseInfo{
	{Code: domain.ExitCauseSale, Label: "Ventas"},
	{Code: domain.ExitCauseDeath, Label: "Muerte"},
	{Code: domain.ExitCauseTheft, Label: "Robo"},
}

// CauseSeeder handles seeding of the exit cause catalogue
type CauseSeeder struct {
	repo domain.ExitCauseRepository
}

// NewCauseSeeder creates a new CauseSeeder instance
func NewCauseSeeder(repo domain.ExitCauseRepository) *CauseSeeder {
	return &CauseSeeder{
		repo: repo,
	}
}

// Seed ensures every catalogue entry exists in the database.
// Missing entries are created; existing ones are left untouched.
func (s *CauseSeeder) Seed(ctx context.Context) error {
	for _, entry := range ExitCauseCatalogue {
		_, err := s.repo.Get(ctx, entry.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		info := entry
		if err := s.repo.Create(ctx, &info); err != nil {
			return err
		}
	}

	return nil
}
