// Package feed holds the feed record use cases.
package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
)

// ErrValidation marks input rejected before it reaches the backend.
var ErrValidation = errors.New("invalid feed record")

type validationError struct{ msg string }

func (e *validationError) Error() string        { return e.msg }
func (e *validationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &validationError{msg: msg} }

// Service implements the feed use cases.
type Service struct {
	feed     repository.FeedRepository
	barns    repository.BarnRepository
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

// NewService wires the feed service.
func NewService(feed repository.FeedRepository, barns repository.BarnRepository, profiles repository.ProfileRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{feed: feed, barns: barns, profiles: profiles, logger: logger}
}

// List returns feed records newest first.
func (s *Service) List(ctx context.Context, filter models.FeedFilter) ([]models.FeedRecord, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if strings.EqualFold(filter.Type, "all") {
		filter.Type = ""
	}
	records, err := s.feed.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list feed records: %w", err)
	}
	return records, nil
}

// ForBarn returns the feed records of one barn.
func (s *Service) ForBarn(ctx context.Context, barnID string) ([]models.FeedRecord, error) {
	return s.List(ctx, models.FeedFilter{BarnID: barnID})
}

// Get returns a single feed record.
func (s *Service) Get(ctx context.Context, id string) (models.FeedRecord, error) {
	record, err := s.feed.Get(ctx, id)
	if err != nil {
		return models.FeedRecord{}, fmt.Errorf("get feed record: %w", err)
	}
	return record, nil
}

// Validate checks a feed form submission.
func Validate(in models.FeedInput) error {
	switch {
	case strings.TrimSpace(in.ProfileID) == "":
		return invalid("Please select a profile")
	case strings.TrimSpace(in.BarnID) == "":
		return invalid("Please select a barn")
	case strings.TrimSpace(in.Type) == "":
		return invalid("Feed type is required")
	case in.Amount < 0:
		return invalid("Amount cannot be negative")
	case in.EstimatedDaysRemaining != nil && *in.EstimatedDaysRemaining < 0:
		return invalid("Estimated days remaining cannot be negative")
	}
	return nil
}

// Create validates and stores a feed record.
func (s *Service) Create(ctx context.Context, in models.FeedInput) (models.FeedRecord, error) {
	if err := Validate(in); err != nil {
		return models.FeedRecord{}, err
	}
	in.Type = strings.TrimSpace(in.Type)
	record, err := s.feed.Create(ctx, in)
	if err != nil {
		return models.FeedRecord{}, fmt.Errorf("create feed record: %w", err)
	}
	s.logger.Info("feed record created", zap.String("id", record.ID), zap.String("barn_id", record.BarnID))
	return record, nil
}

// Update validates and replaces a feed record.
func (s *Service) Update(ctx context.Context, id string, in models.FeedInput) (models.FeedRecord, error) {
	if err := Validate(in); err != nil {
		return models.FeedRecord{}, err
	}
	in.Type = strings.TrimSpace(in.Type)
	record, err := s.feed.Update(ctx, id, in)
	if err != nil {
		return models.FeedRecord{}, fmt.Errorf("update feed record: %w", err)
	}
	s.logger.Info("feed record updated", zap.String("id", id))
	return record, nil
}

// Save creates the record when id is empty and updates it otherwise.
func (s *Service) Save(ctx context.Context, id string, in models.FeedInput) (models.FeedRecord, bool, error) {
	if id == "" {
		record, err := s.Create(ctx, in)
		return record, true, err
	}
	record, err := s.Update(ctx, id, in)
	return record, false, err
}

// Delete removes a feed record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.feed.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete feed record: %w", err)
	}
	s.logger.Info("feed record deleted", zap.String("id", id))
	return nil
}

// DeleteConfirmation is the prompt shown before a delete.
func DeleteConfirmation(record models.FeedRecord) string {
	name := record.BarnName()
	if name == "" {
		name = "Unknown Barn"
	}
	return fmt.Sprintf("Are you sure you want to delete this feed record for %q? This action cannot be undone.", name)
}

// Statistics recomputes the feed totals from the full collection.
func (s *Service) Statistics(ctx context.Context) (models.FeedStatistics, error) {
	records, err := s.feed.List(ctx, models.FeedFilter{})
	if err != nil {
		return models.FeedStatistics{}, fmt.Errorf("feed statistics: %w", err)
	}
	return models.ComputeFeedStatistics(records), nil
}

// Types returns the distinct feed types in use, for the type filter.
func (s *Service) Types(ctx context.Context) ([]string, error) {
	records, err := s.feed.List(ctx, models.FeedFilter{})
	if err != nil {
		return nil, fmt.Errorf("list feed types: %w", err)
	}
	seen := make(map[string]bool)
	types := []string{}
	for _, r := range records {
		if r.Type != "" && !seen[r.Type] {
			seen[r.Type] = true
			types = append(types, r.Type)
		}
	}
	return types, nil
}

// Profiles lists the profiles offered in the feed form.
func (s *Service) Profiles(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// BarnsForProfile fills the barn dropdown once a profile is chosen.
func (s *Service) BarnsForProfile(ctx context.Context, profileID string) ([]models.Barn, error) {
	if profileID == "" {
		return []models.Barn{}, nil
	}
	barns, err := s.barns.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list barns for profile: %w", err)
	}
	return barns, nil
}
