package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/facility-planner/internal/persistence"
)

// LocationService orchestrates validation and persistence for locations.
type LocationService struct {
	locations   persistence.LocationRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewLocationService constructs a location service with the provided dependencies.
func NewLocationService(locations persistence.LocationRepository, idGenerator func() string, now func() time.Time) *LocationService {
	return NewLocationServiceWithLogger(locations, idGenerator, now, nil)
}

// NewLocationServiceWithLogger constructs a location service with a specified logger.
func NewLocationServiceWithLogger(locations persistence.LocationRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LocationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &LocationService{locations: locations, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *LocationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LocationService", operation, attrs...)
}

// CreateLocation validates input and persists a new location.
func (s *LocationService) CreateLocation(ctx context.Context, input LocationInput) (location persistence.Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateLocation")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create location", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("location_id", location.ID).InfoContext(ctx, "location created")
	}()

	vErr := validateLocationInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	location = persistence.Location{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(input.Name),
		FloorAreaM2: input.FloorAreaM2,
		Description: normalizeOptionalString(input.Description),
		CreatedAt:   s.now(),
	}
	location.UpdatedAt = location.CreatedAt

	if s.locations == nil {
		return
	}
	if err = s.locations.CreateLocation(ctx, location); err != nil {
		err = mapLocationRepoError(err)
	}
	return
}

// UpdateLocation validates input and updates an existing location.
func (s *LocationService) UpdateLocation(ctx context.Context, id string, input LocationInput) (location persistence.Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}
	if s.locations == nil {
		err = fmt.Errorf("location repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateLocation", "location_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update location", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "location updated")
	}()

	location, err = s.locations.GetLocation(ctx, id)
	if err != nil {
		err = mapLocationRepoError(err)
		return
	}

	vErr := validateLocationInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	location.Name = strings.TrimSpace(input.Name)
	location.FloorAreaM2 = input.FloorAreaM2
	location.Description = normalizeOptionalString(input.Description)
	location.UpdatedAt = s.now()

	if err = s.locations.UpdateLocation(ctx, location); err != nil {
		err = mapLocationRepoError(err)
	}
	return
}

// GetLocation returns one location.
func (s *LocationService) GetLocation(ctx context.Context, id string) (persistence.Location, error) {
	if s == nil || s.locations == nil {
		return persistence.Location{}, fmt.Errorf("location repository not configured")
	}
	location, err := s.locations.GetLocation(ctx, id)
	if err != nil {
		return persistence.Location{}, mapLocationRepoError(err)
	}
	return location, nil
}

// DeleteLocation removes a location that no template or occurrence references.
func (s *LocationService) DeleteLocation(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("LocationService is nil")
	}
	if s.locations == nil {
		return fmt.Errorf("location repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteLocation", "location_id", id)

	if err := s.locations.DeleteLocation(ctx, id); err != nil {
		err = mapLocationRepoError(err)
		logger.ErrorContext(ctx, "failed to delete location", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "location deleted")
	return nil
}

// ListLocations returns the catalog of locations sorted by name then ID.
func (s *LocationService) ListLocations(ctx context.Context) (locations []persistence.Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}
	if s.locations == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListLocations")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list locations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(locations)).DebugContext(ctx, "locations listed")
	}()

	var raw []persistence.Location
	raw, err = s.locations.ListLocations(ctx)
	if err != nil {
		return
	}

	locations = make([]persistence.Location, len(raw))
	copy(locations, raw)
	sort.SliceStable(locations, func(i, j int) bool {
		return byNameThenID(locations[i].Name, locations[i].ID, locations[j].Name, locations[j].ID)
	})
	return
}

func validateLocationInput(input LocationInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.FloorAreaM2 < 0 {
		vErr.add("floor_area_m2", "floor area must not be negative")
	}

	return vErr
}

func mapLocationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fmt.Errorf("%w: location is referenced by tasks", ErrConflict)
	}
	return err
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func byNameThenID(nameA, idA, nameB, idB string) bool {
	if strings.EqualFold(nameA, nameB) {
		return idA < idB
	}
	return strings.ToLower(nameA) < strings.ToLower(nameB)
}
