// Package barns holds the barn use cases behind the barns pages and the
// dashboard: listing, editing, statistics, paging, and the audit trail.
package barns

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
var ErrValidation = errors.New("invalid barn")

type validationError struct{ msg string }

func (e *validationError) Error() string        { return e.msg }
func (e *validationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &validationError{msg: msg} }

// QuickEdit is the dashboard's inline edit of the counters and status.
type QuickEdit struct {
	Chickens  int               `json:"chickens"`
	EggsToday int               `json:"eggs_today"`
	Status    models.BarnStatus `json:"status"`
}

// ChangeFunc is told about every successful write.
type ChangeFunc func(ctx context.Context, barnID string, op models.Operation)

// Service implements the barn use cases on top of the repositories.
type Service struct {
	barns    repository.BarnRepository
	audit    repository.AuditRepository
	profiles repository.ProfileRepository
	logger   *zap.Logger
	onChange ChangeFunc
}

// NewService wires the barn service.
func NewService(barns repository.BarnRepository, audit repository.AuditRepository, profiles repository.ProfileRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{barns: barns, audit: audit, profiles: profiles, logger: logger}
}

// OnChange registers fn to run after creates, updates, and deletes.
func (s *Service) OnChange(fn ChangeFunc) {
	s.onChange = fn
}

func (s *Service) changed(ctx context.Context, id string, op models.Operation) {
	if s.onChange != nil {
		s.onChange(ctx, id, op)
	}
}

// ParseStatusFilter maps the status filter control to a filter value.
// "all" and the empty string mean no filter.
func ParseStatusFilter(value string) models.BarnStatus {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "all" {
		return ""
	}
	return models.BarnStatus(value)
}

// List returns barns newest first. A blank search term is the same as no search.
func (s *Service) List(ctx context.Context, filter models.BarnFilter) ([]models.Barn, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	barns, err := s.barns.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list barns: %w", err)
	}
	return barns, nil
}

// Get returns a single barn.
func (s *Service) Get(ctx context.Context, id string) (models.Barn, error) {
	barn, err := s.barns.Get(ctx, id)
	if err != nil {
		return models.Barn{}, fmt.Errorf("get barn: %w", err)
	}
	return barn, nil
}

// Validate checks a create or edit form.
func Validate(in models.BarnInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("Barn name is required")
	}
	if strings.TrimSpace(in.ProfileID) == "" {
		return invalid("Please select a profile")
	}
	if in.Status != "" && !in.Status.Known() {
		return invalid(fmt.Sprintf("Invalid status %q", in.Status))
	}
	if in.Chickens < 0 || in.EggsToday < 0 {
		return invalid("Values cannot be negative")
	}
	return nil
}

func normalize(in models.BarnInput) models.BarnInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Status == "" {
		in.Status = models.StatusOK
	}
	return in
}

// Create validates and stores a new barn.
func (s *Service) Create(ctx context.Context, in models.BarnInput) (models.Barn, error) {
	if err := Validate(in); err != nil {
		return models.Barn{}, err
	}
	barn, err := s.barns.Create(ctx, normalize(in))
	if err != nil {
		return models.Barn{}, fmt.Errorf("create barn: %w", err)
	}
	s.logger.Info("barn created", zap.String("id", barn.ID), zap.String("name", barn.Name))
	s.changed(ctx, barn.ID, models.OperationCreate)
	return barn, nil
}

// Update validates and replaces the editable fields of a barn.
func (s *Service) Update(ctx context.Context, id string, in models.BarnInput) (models.Barn, error) {
	if err := Validate(in); err != nil {
		return models.Barn{}, err
	}
	barn, err := s.barns.Update(ctx, id, normalize(in).Patch())
	if err != nil {
		return models.Barn{}, fmt.Errorf("update barn: %w", err)
	}
	s.logger.Info("barn updated", zap.String("id", id))
	s.changed(ctx, id, models.OperationUpdate)
	return barn, nil
}

// Save creates the barn when id is empty and updates it otherwise.
func (s *Service) Save(ctx context.Context, id string, in models.BarnInput) (models.Barn, bool, error) {
	if id == "" {
		barn, err := s.Create(ctx, in)
		return barn, true, err
	}
	barn, err := s.Update(ctx, id, in)
	return barn, false, err
}

// ApplyQuickEdit updates the counters and status of a barn.
func (s *Service) ApplyQuickEdit(ctx context.Context, id string, edit QuickEdit) (models.Barn, error) {
	if edit.Chickens < 0 || edit.EggsToday < 0 {
		return models.Barn{}, invalid("Values cannot be negative")
	}
	if !edit.Status.Known() {
		return models.Barn{}, invalid(fmt.Sprintf("Invalid status %q", edit.Status))
	}
	status := edit.Status
	patch := models.BarnPatch{
		Chickens:  models.Int(edit.Chickens),
		EggsToday: models.Int(edit.EggsToday),
		Status:    &status,
	}
	barn, err := s.barns.Update(ctx, id, patch)
	if err != nil {
		return models.Barn{}, fmt.Errorf("quick edit barn: %w", err)
	}
	s.logger.Info("barn quick-edited", zap.String("id", id))
	s.changed(ctx, id, models.OperationUpdate)
	return barn, nil
}

// Delete removes a barn. A barn that is already gone yields repository.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.barns.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete barn: %w", err)
	}
	s.logger.Info("barn deleted", zap.String("id", id))
	s.changed(ctx, id, models.OperationDelete)
	return nil
}

// DeleteConfirmation is the prompt shown before a delete.
func DeleteConfirmation(name string) string {
	return fmt.Sprintf("Are you sure you want to delete %q? This action cannot be undone.", name)
}

// Statistics recomputes the barn totals from the full collection.
func (s *Service) Statistics(ctx context.Context) (models.BarnStatistics, error) {
	barns, err := s.barns.List(ctx, models.BarnFilter{})
	if err != nil {
		return models.BarnStatistics{}, fmt.Errorf("barn statistics: %w", err)
	}
	return models.ComputeBarnStatistics(barns), nil
}

// RecentPage returns one page of barns, newest first, with the exact total.
func (s *Service) RecentPage(ctx context.Context, page, limit int) (models.Page[models.Barn], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}
	total, err := s.barns.Count(ctx)
	if err != nil {
		return models.Page[models.Barn]{}, fmt.Errorf("count barns: %w", err)
	}
	items, err := s.barns.List(ctx, models.BarnFilter{Offset: models.Offset(page, limit), Limit: limit})
	if err != nil {
		return models.Page[models.Barn]{}, fmt.Errorf("list barns page %d: %w", page, err)
	}
	return models.NewPage(items, total, page, limit), nil
}

// Attention returns the barns in alert or warning state.
func (s *Service) Attention(ctx context.Context) ([]models.Barn, error) {
	barns, err := s.barns.ListByStatus(ctx, models.StatusAlert, models.StatusWarning)
	if err != nil {
		return nil, fmt.Errorf("list barns needing attention: %w", err)
	}
	return barns, nil
}

// ForProfile returns the barns owned by a profile, ordered by name.
func (s *Service) ForProfile(ctx context.Context, profileID string) ([]models.Barn, error) {
	if profileID == "" {
		return []models.Barn{}, nil
	}
	barns, err := s.barns.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list barns for profile: %w", err)
	}
	return barns, nil
}

// AuditLog returns the change history of a barn, newest first.
func (s *Service) AuditLog(ctx context.Context, id string) ([]models.AuditEntry, error) {
	entries, err := s.audit.ListByBarn(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("barn audit log: %w", err)
	}
	return entries, nil
}

// Profiles lists the owners offered in the barn form.
func (s *Service) Profiles(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}
