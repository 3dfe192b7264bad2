package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/facility-planner/internal/application"
	"github.com/example/facility-planner/internal/persistence"
)

type locationService interface {
	CreateLocation(ctx context.Context, input application.LocationInput) (persistence.Location, error)
	UpdateLocation(ctx context.Context, id string, input application.LocationInput) (persistence.Location, error)
	GetLocation(ctx context.Context, id string) (persistence.Location, error)
	DeleteLocation(ctx context.Context, id string) error
	ListLocations(ctx context.Context) ([]persistence.Location, error)
}

type activityService interface {
	CreateActivity(ctx context.Context, input application.ActivityInput) (persistence.Activity, error)
	UpdateActivity(ctx context.Context, id string, input application.ActivityInput) (persistence.Activity, error)
	GetActivity(ctx context.Context, id string) (persistence.Activity, error)
	DeleteActivity(ctx context.Context, id string) error
	ListActivities(ctx context.Context) ([]persistence.Activity, error)
}

type staffService interface {
	CreateStaff(ctx context.Context, input application.StaffInput) (persistence.StaffMember, error)
	UpdateStaff(ctx context.Context, id string, input application.StaffInput) (persistence.StaffMember, error)
	GetStaff(ctx context.Context, id string) (persistence.StaffMember, error)
	DeleteStaff(ctx context.Context, id string) error
	ListStaff(ctx context.Context) ([]persistence.StaffMember, error)
	ListEligible(ctx context.Context, sector string) ([]persistence.StaffMember, error)
}

// CatalogHandler serves the location, activity and staff catalogs.
type CatalogHandler struct {
	handlerBase
	locations  locationService
	activities activityService
	staff      staffService
}

func NewCatalogHandler(locations locationService, activities activityService, staff staffService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		handlerBase: newHandlerBase("CatalogHandler", logger),
		locations:   locations,
		activities:  activities,
		staff:       staff,
	}
}

func (h *CatalogHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.locations == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "CreateLocation")

	var req locationRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	location, err := h.locations.CreateLocation(ctx, req.toInput())
	if err != nil {
		h.fail(ctx, w, logger, "location creation failed", err)
		return
	}

	logger.With("location_id", location.ID).InfoContext(ctx, "location created")
	h.responder.writeJSON(ctx, w, http.StatusCreated, toLocationDTO(location))
}

func (h *CatalogHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.locations == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "UpdateLocation")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "UpdateLocation", "location_id", id)

	var req locationRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	location, err := h.locations.UpdateLocation(ctx, id, req.toInput())
	if err != nil {
		h.fail(ctx, w, logger, "location update failed", err)
		return
	}

	logger.InfoContext(ctx, "location updated")
	h.responder.writeJSON(ctx, w, http.StatusOK, toLocationDTO(location))
}

func (h *CatalogHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.locations == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "GetLocation")
	if !ok {
		return
	}
	ctx := r.Context()

	location, err := h.locations.GetLocation(ctx, id)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "GetLocation", "location_id", id), "location lookup failed", err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toLocationDTO(location))
}

func (h *CatalogHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.locations == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "DeleteLocation")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "DeleteLocation", "location_id", id)

	if err := h.locations.DeleteLocation(ctx, id); err != nil {
		h.fail(ctx, w, logger, "location delete failed", err)
		return
	}

	logger.InfoContext(ctx, "location deleted")
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.locations == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "ListLocations")

	locations, err := h.locations.ListLocations(ctx)
	if err != nil {
		h.fail(ctx, w, logger, "location list failed", err)
		return
	}

	out := make([]locationDTO, 0, len(locations))
	for _, location := range locations {
		out = append(out, toLocationDTO(location))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, listLocationsResponse{Locations: out})
}

func (h *CatalogHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.activities == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "CreateActivity")

	var req activityRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	activity, err := h.activities.CreateActivity(ctx, req.toInput())
	if err != nil {
		h.fail(ctx, w, logger, "activity creation failed", err)
		return
	}

	logger.With("activity_id", activity.ID).InfoContext(ctx, "activity created")
	h.responder.writeJSON(ctx, w, http.StatusCreated, toActivityDTO(activity))
}

func (h *CatalogHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.activities == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "UpdateActivity")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "UpdateActivity", "activity_id", id)

	var req activityRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	activity, err := h.activities.UpdateActivity(ctx, id, req.toInput())
	if err != nil {
		h.fail(ctx, w, logger, "activity update failed", err)
		return
	}

	logger.InfoContext(ctx, "activity updated")
	h.responder.writeJSON(ctx, w, http.StatusOK, toActivityDTO(activity))
}

func (h *CatalogHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.activities == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "GetActivity")
	if !ok {
		return
	}
	ctx := r.Context()

	activity, err := h.activities.GetActivity(ctx, id)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "GetActivity", "activity_id", id), "activity lookup failed", err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toActivityDTO(activity))
}

func (h *CatalogHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.activities == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "DeleteActivity")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "DeleteActivity", "activity_id", id)

	if err := h.activities.DeleteActivity(ctx, id); err != nil {
		h.fail(ctx, w, logger, "activity delete failed", err)
		return
	}

	logger.InfoContext(ctx, "activity deleted")
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

func (h *CatalogHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.activities == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()

	activities, err := h.activities.ListActivities(ctx)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "ListActivities"), "activity list failed", err)
		return
	}

	out := make([]activityDTO, 0, len(activities))
	for _, activity := range activities {
		out = append(out, toActivityDTO(activity))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, listActivitiesResponse{Activities: out})
}

func (h *CatalogHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.staff == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "CreateStaff")

	var req staffRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	member, err := h.staff.CreateStaff(ctx, req.toInput())
	if err != nil {
		h.fail(ctx, w, logger, "staff creation failed", err)
		return
	}

	logger.With("staff_id", member.ID).InfoContext(ctx, "staff member created")
	h.responder.writeJSON(ctx, w, http.StatusCreated, toStaffDTO(member))
}

func (h *CatalogHandler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.staff == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "UpdateStaff")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "UpdateStaff", "staff_id", id)

	var req staffRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	member, err := h.staff.UpdateStaff(ctx, id, req.toInput())
	if err != nil {
		h.fail(ctx, w, logger, "staff update failed", err)
		return
	}

	logger.InfoContext(ctx, "staff member updated")
	h.responder.writeJSON(ctx, w, http.StatusOK, toStaffDTO(member))
}

func (h *CatalogHandler) GetStaff(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.staff == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "GetStaff")
	if !ok {
		return
	}
	ctx := r.Context()

	member, err := h.staff.GetStaff(ctx, id)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "GetStaff", "staff_id", id), "staff lookup failed", err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toStaffDTO(member))
}

func (h *CatalogHandler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.staff == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "DeleteStaff")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "DeleteStaff", "staff_id", id)

	if err := h.staff.DeleteStaff(ctx, id); err != nil {
		h.fail(ctx, w, logger, "staff delete failed", err)
		return
	}

	logger.InfoContext(ctx, "staff member deleted")
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

// ListStaff returns the roster. ?eligible=true&sector=X narrows it to the
// suggestion roster of a sector.
func (h *CatalogHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.staff == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()
	query := r.URL.Query()
	logger := h.log(ctx, "ListStaff")

	var (
		members []persistence.StaffMember
		err     error
	)
	if strings.EqualFold(query.Get("eligible"), "true") {
		members, err = h.staff.ListEligible(ctx, query.Get("sector"))
	} else {
		members, err = h.staff.ListStaff(ctx)
	}
	if err != nil {
		h.fail(ctx, w, logger, "staff list failed", err)
		return
	}

	out := make([]staffDTO, 0, len(members))
	for _, member := range members {
		out = append(out, toStaffDTO(member))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, listStaffResponse{Staff: out})
}

type locationRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	FloorAreaM2 float64 `json:"floor_area_m2" validate:"gte=0"`
	Description *string `json:"description"`
}

func (r locationRequest) toInput() application.LocationInput {
	return application.LocationInput{
		Name:        strings.TrimSpace(r.Name),
		FloorAreaM2: r.FloorAreaM2,
		Description: r.Description,
	}
}

type locationDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	FloorAreaM2 float64 `json:"floor_area_m2"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type listLocationsResponse struct {
	Locations []locationDTO `json:"locations"`
}

func toLocationDTO(l persistence.Location) locationDTO {
	return locationDTO{
		ID:          l.ID,
		Name:        l.Name,
		FloorAreaM2: l.FloorAreaM2,
		Description: l.Description,
		CreatedAt:   formatTimestamp(l.CreatedAt),
		UpdatedAt:   formatTimestamp(l.UpdatedAt),
	}
}

type activityRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	FixedMinutes  float64  `json:"fixed_minutes" validate:"gte=0"`
	MinutesPerM2  float64  `json:"minutes_per_m2" validate:"gte=0"`
	RequiredTools []string `json:"required_tools" validate:"omitempty,dive,required"`
}

func (r activityRequest) toInput() application.ActivityInput {
	return application.ActivityInput{
		Name:          strings.TrimSpace(r.Name),
		FixedMinutes:  r.FixedMinutes,
		MinutesPerM2:  r.MinutesPerM2,
		RequiredTools: r.RequiredTools,
	}
}

type activityDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	FixedMinutes  float64  `json:"fixed_minutes"`
	MinutesPerM2  float64  `json:"minutes_per_m2"`
	RequiredTools []string `json:"required_tools"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

type listActivitiesResponse struct {
	Activities []activityDTO `json:"activities"`
}

func toActivityDTO(a persistence.Activity) activityDTO {
	tools := a.RequiredTools
	if tools == nil {
		tools = []string{}
	}
	return activityDTO{
		ID:            a.ID,
		Name:          a.Name,
		FixedMinutes:  a.FixedMinutes,
		MinutesPerM2:  a.MinutesPerM2,
		RequiredTools: tools,
		CreatedAt:     formatTimestamp(a.CreatedAt),
		UpdatedAt:     formatTimestamp(a.UpdatedAt),
	}
}

type staffRequest struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Sector          string   `json:"sector" validate:"max=100"`
	ContractType    string   `json:"contract_type" validate:"required"`
	IsActive        *bool    `json:"is_active"`
	UnavailableDays []string `json:"unavailable_days" validate:"omitempty,max=7,dive,required"`
	MaxWeeklyHours  float64  `json:"max_weekly_hours" validate:"gte=0,lte=168"`
}

func (r staffRequest) toInput() application.StaffInput {
	return application.StaffInput{
		Name:            strings.TrimSpace(r.Name),
		Sector:          strings.TrimSpace(r.Sector),
		ContractType:    strings.TrimSpace(r.ContractType),
		IsActive:        r.IsActive,
		UnavailableDays: r.UnavailableDays,
		MaxWeeklyHours:  r.MaxWeeklyHours,
	}
}

type staffDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Sector          string   `json:"sector"`
	ContractType    string   `json:"contract_type"`
	IsActive        bool     `json:"is_active"`
	UnavailableDays []string `json:"unavailable_days"`
	MaxWeeklyHours  float64  `json:"max_weekly_hours"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type listStaffResponse struct {
	Staff []staffDTO `json:"staff"`
}

func toStaffDTO(m persistence.StaffMember) staffDTO {
	days := m.UnavailableDays
	if days == nil {
		days = []string{}
	}
	return staffDTO{
		ID:              m.ID,
		Name:            m.Name,
		Sector:          m.Sector,
		ContractType:    m.ContractType,
		IsActive:        m.IsActive,
		UnavailableDays: days,
		MaxWeeklyHours:  m.MaxWeeklyHours,
		CreatedAt:       formatTimestamp(m.CreatedAt),
		UpdatedAt:       formatTimestamp(m.UpdatedAt),
	}
}
