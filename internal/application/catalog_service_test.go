package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocationService_CreateAndList(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	svc := NewLocationServiceWithLogger(store, sequentialIDs("loc"), fixedNow(now), discardLogger())
	ctx := context.Background()

	blank := "   "
	lobby, err := svc.CreateLocation(ctx, LocationInput{Name: "  lobby ", FloorAreaM2: 40, Description: &blank})
	if err != nil {
		t.Fatalf("CreateLocation returned error: %v", err)
	}
	if lobby.ID != "loc-1" || lobby.Name != "lobby" || lobby.Description != nil || !lobby.CreatedAt.Equal(now) {
		t.Fatalf("unexpected location %+v", lobby)
	}
	if _, err := svc.CreateLocation(ctx, LocationInput{Name: "Atrium", FloorAreaM2: 120}); err != nil {
		t.Fatalf("CreateLocation returned error: %v", err)
	}

	list, err := svc.ListLocations(ctx)
	if err != nil {
		t.Fatalf("ListLocations returned error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Atrium" || list[1].Name != "lobby" {
		t.Fatalf("expected case-insensitive name order, got %+v", list)
	}
}

func TestLocationService_Validation(t *testing.T) {
	t.Parallel()

	svc := NewLocationService(newMemoryStore(), nil, nil)
	_, err := svc.CreateLocation(context.Background(), LocationInput{FloorAreaM2: -1})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "floor_area_m2"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestLocationService_DeleteReferencedLocation(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := NewLocationServiceWithLogger(store, sequentialIDs("loc"), nil, discardLogger())
	ctx := context.Background()

	loc, err := svc.CreateLocation(ctx, LocationInput{Name: "Kitchen", FloorAreaM2: 30})
	if err != nil {
		t.Fatalf("CreateLocation returned error: %v", err)
	}
	store.templates["tpl-1"] = templateFor(loc.ID, "act-1", "Weekly")

	if err := svc.DeleteLocation(ctx, loc.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := svc.DeleteLocation(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActivityService_ToolsAndEstimate(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := NewActivityServiceWithLogger(store, sequentialIDs("act"), nil, discardLogger())
	ctx := context.Background()

	activity, err := svc.CreateActivity(ctx, ActivityInput{
		Name:          "Mopping",
		FixedMinutes:  5,
		MinutesPerM2:  0.5,
		RequiredTools: []string{"Mop", " bucket", "mop", ""},
	})
	if err != nil {
		t.Fatalf("CreateActivity returned error: %v", err)
	}
	if len(activity.RequiredTools) != 2 || activity.RequiredTools[0] != "Mop" || activity.RequiredTools[1] != "bucket" {
		t.Fatalf("unexpected tools %v", activity.RequiredTools)
	}
	if got := EstimatedMinutes(activity, 20); got != 15 {
		t.Fatalf("expected 15 minutes, got %v", got)
	}
	if got := EstimatedMinutes(activity, -3); got != 5 {
		t.Fatalf("negative areas count as zero, got %v", got)
	}

	if _, err := svc.GetActivity(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = svc.CreateActivity(ctx, ActivityInput{Name: "Dusting", FixedMinutes: -1, MinutesPerM2: -1})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || len(vErr.FieldErrors) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}

func TestStaffService_RosterAndEligibility(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := NewStaffServiceWithLogger(store, sequentialIDs("staff"), nil, discardLogger())
	ctx := context.Background()

	inactive := false
	inputs := []StaffInput{
		{Name: "Bea", Sector: "Housekeeping", ContractType: "permanent", UnavailableDays: []string{"Mon", "monday", "sun"}},
		{Name: "Ana", Sector: "housekeeping", ContractType: "intermittent", MaxWeeklyHours: 20},
		{Name: "Caio", Sector: "Laundry", ContractType: "effective"},
		{Name: "Dani", Sector: "Housekeeping", ContractType: "permanent", IsActive: &inactive},
	}
	for _, in := range inputs {
		if _, err := svc.CreateStaff(ctx, in); err != nil {
			t.Fatalf("CreateStaff(%s) returned error: %v", in.Name, err)
		}
	}

	bea, err := svc.GetStaff(ctx, "staff-1")
	if err != nil {
		t.Fatalf("GetStaff returned error: %v", err)
	}
	if !bea.IsActive || len(bea.UnavailableDays) != 2 || bea.UnavailableDays[0] != "monday" || bea.UnavailableDays[1] != "sunday" {
		t.Fatalf("unexpected member %+v", bea)
	}

	eligible, err := svc.ListEligible(ctx, "HOUSEKEEPING")
	if err != nil {
		t.Fatalf("ListEligible returned error: %v", err)
	}
	if len(eligible) != 2 || eligible[0].Name != "Ana" || eligible[1].Name != "Bea" {
		t.Fatalf("unexpected eligible roster %+v", eligible)
	}

	all, err := svc.ListEligible(ctx, "")
	if err != nil {
		t.Fatalf("ListEligible returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("empty sector must match every active member, got %d", len(all))
	}

	_, err = svc.CreateStaff(ctx, StaffInput{Name: "Eva", ContractType: "temp", UnavailableDays: []string{"someday"}})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["contract_type"]; !ok {
		t.Fatalf("expected contract_type error, got %v", vErr.FieldErrors)
	}
	if _, ok := vErr.FieldErrors["unavailable_days"]; !ok {
		t.Fatalf("expected unavailable_days error, got %v", vErr.FieldErrors)
	}
}
