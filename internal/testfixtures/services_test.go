package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/facility-planner/internal/application"
	"github.com/example/facility-planner/internal/convocation"
)

func TestServiceFactory_PlanningFlowOverSQLite(t *testing.T) {
	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory()
	svc := factory.Build(harness)
	ctx := context.Background()

	lobby := NewLocationFixture(WithLocationName("Lobby"), WithFloorArea(40))
	mopping := NewActivityFixture(WithActivityName("Mopping"), WithDuration(10, 0.25))
	harness.Seed(t, lobby, mopping,
		NewStaffFixture(WithStaffID("s-1"), WithStaffName("Ana")),
		NewStaffFixture(WithStaffID("s-2"), WithStaffName("Bea")),
		NewStaffFixture(WithStaffID("s-3"), WithStaffName("Caio")),
		NewStaffFixture(WithStaffID("s-4"), WithStaffName("Duda"), Inactive()),
	)

	tpl, err := svc.Tasks.CreateTemplate(ctx, NewTemplateFixture(lobby, mopping).Input())
	if err != nil {
		t.Fatalf("CreateTemplate returned error: %v", err)
	}
	created, err := svc.Tasks.ProjectTemplate(ctx, tpl.ID, 14)
	if err != nil {
		t.Fatalf("ProjectTemplate returned error: %v", err)
	}
	if len(created) != 2 || created[0].PlannedDate.Format(time.DateOnly) != "2024-06-17" {
		t.Fatalf("unexpected projection %+v", created)
	}
	again, err := svc.Tasks.ProjectTemplate(ctx, tpl.ID, 14)
	if err != nil || len(again) != 0 {
		t.Fatalf("projection over stored dates must be idempotent, got %d (%v)", len(again), err)
	}
	listed, err := svc.Tasks.ListOccurrences(ctx, application.OccurrenceQuery{LocationID: lobby.ID, PendingOnly: true})
	if err != nil || len(listed) != 2 || listed[0].EstimatedMinutes != 20 {
		t.Fatalf("ListOccurrences = %+v, %v", listed, err)
	}

	week := ReferenceWeek().AddDate(0, 0, 7)
	if _, err := svc.Governance.SaveWeekPlan(ctx, WeekPlanInput(week, 10, 15)); err != nil {
		t.Fatalf("SaveWeekPlan returned error: %v", err)
	}
	schedule, err := svc.Governance.SuggestSchedule(ctx, application.SuggestParams{WeekStart: week, Sector: "Housekeeping"})
	if err != nil {
		t.Fatalf("SuggestSchedule returned error: %v", err)
	}
	if len(schedule.Shifts) != 14 || len(schedule.Gaps) != 0 {
		t.Fatalf("expected 14 shifts without gaps, got %d / %+v", len(schedule.Shifts), schedule.Gaps)
	}
	if _, ok := schedule.Totals["s-4"]; ok {
		t.Fatalf("inactive staff must not be scheduled")
	}

	result, err := svc.Convocations.Send(ctx, application.SendParams{WeekStart: week})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(result.Sent) != 14 || len(result.Skipped) != 0 {
		t.Fatalf("expected every shift convoked, got %d sent / %+v skipped", len(result.Sent), result.Skipped)
	}
	if _, err := svc.Convocations.Accept(ctx, result.Sent[0].ID); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}

	factory.Clock.Set(time.Date(2024, time.June, 23, 0, 0, 0, 0, time.UTC))
	summary, err := svc.Convocations.Summary(ctx, week)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary != (convocation.Summary{Total: 14, Accepted: 1, Expired: 13}) {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
