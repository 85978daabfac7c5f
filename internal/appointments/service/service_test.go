package service

import (
	"context"
	"testing"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/pipeline"
	"dealer_crm_backend/internal/scheduler"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/internal/store/memory"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

var testNow = time.Date(2025, 5, 20, 16, 0, 0, 0, time.UTC)

type fakeReminders struct {
	calls []time.Time
	ids   []string
}

func (f *fakeReminders) ScheduleAppointmentReminder(_ context.Context, p scheduler.AppointmentReminderPayload, runAt time.Time) error {
	f.ids = append(f.ids, p.AppointmentID)
	f.calls = append(f.calls, runAt)
	return nil
}

func setup(t *testing.T, status domain.Stage) (*Service, store.Store, *fakeReminders) {
	t.Helper()
	st := memory.New()
	lead := domain.Lead{ID: "L1", FirstName: "Ana", Status: status, LocationIntent: domain.LocationTaylor, CreatedAt: testNow.Add(-time.Hour)}
	if err := st.Insert(context.Background(), store.Leads, lead.ID, lead); err != nil {
		t.Fatalf("insert lead: %v", err)
	}
	rem := &fakeReminders{}
	svc := New(st, pipeline.NewService(st, nil, logger.Discard()), rem, logger.Discard())
	return svc, st, rem
}

func leadStatus(t *testing.T, st store.Store) domain.Stage {
	t.Helper()
	var lead domain.Lead
	if err := st.Get(context.Background(), store.Leads, "L1", &lead); err != nil {
		t.Fatalf("get lead: %v", err)
	}
	return lead.Status
}

func TestCreateBooksAndAdvancesLead(t *testing.T) {
	svc, st, rem := setup(t, domain.StageContacted)
	startsAt := testNow.Add(26 * time.Hour)

	appt, err := svc.Create(context.Background(), CreateInput{LeadID: "L1", VehicleLabel: "2022 Ford Escape", StartsAt: startsAt}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != domain.AppointmentBooked || appt.Location != domain.LocationTaylor {
		t.Fatalf("unexpected appointment %+v", appt)
	}
	if got := leadStatus(t, st); got != domain.StageAppointmentSet {
		t.Fatalf("expected lead appointment_set, got %s", got)
	}
	if len(rem.calls) != 1 || !rem.calls[0].Equal(startsAt.Add(-2*time.Hour)) || rem.ids[0] != appt.ID {
		t.Fatalf("unexpected reminder calls %v %v", rem.calls, rem.ids)
	}
}

func TestCreateDoesNotMoveLeadBackwards(t *testing.T) {
	svc, st, rem := setup(t, domain.StageNegotiating)
	if _, err := svc.Create(context.Background(), CreateInput{LeadID: "L1", StartsAt: testNow.Add(time.Hour)}, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := leadStatus(t, st); got != domain.StageNegotiating {
		t.Fatalf("lead must stay negotiating, got %s", got)
	}
	if len(rem.calls) != 0 {
		t.Fatalf("reminder for a slot within the lead time must be skipped, got %v", rem.calls)
	}
}

func TestCreateUnknownLead(t *testing.T) {
	svc, _, _ := setup(t, domain.StageNew)
	_, err := svc.Create(context.Background(), CreateInput{LeadID: "nope", StartsAt: testNow}, testNow)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestShowedAdvancesLeadAndIsFinal(t *testing.T) {
	svc, st, _ := setup(t, domain.StageContacted)
	ctx := context.Background()
	appt, _ := svc.Create(ctx, CreateInput{LeadID: "L1", StartsAt: testNow.Add(time.Hour)}, testNow)

	got, err := svc.UpdateStatus(ctx, appt.ID, StatusInput{Status: domain.AppointmentShowed}, testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.AppointmentShowed {
		t.Fatalf("expected showed, got %s", got.Status)
	}
	if status := leadStatus(t, st); status != domain.StageAppointmentShowed {
		t.Fatalf("expected lead appointment_showed, got %s", status)
	}

	_, err = svc.UpdateStatus(ctx, appt.ID, StatusInput{Status: domain.AppointmentCancelled}, testNow)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on final appointment, got %v", err)
	}
}

func TestRescheduleMovesStartAndRequeuesReminder(t *testing.T) {
	svc, _, rem := setup(t, domain.StageContacted)
	ctx := context.Background()
	appt, _ := svc.Create(ctx, CreateInput{LeadID: "L1", StartsAt: testNow.Add(24 * time.Hour)}, testNow)

	if _, err := svc.UpdateStatus(ctx, appt.ID, StatusInput{Status: domain.AppointmentRescheduled}, testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error without starts_at, got %v", err)
	}

	newStart := testNow.Add(48 * time.Hour)
	got, err := svc.UpdateStatus(ctx, appt.ID, StatusInput{Status: domain.AppointmentRescheduled, StartsAt: &newStart}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.StartsAt.Equal(newStart) {
		t.Fatalf("expected new start %v, got %v", newStart, got.StartsAt)
	}
	if len(rem.calls) != 2 || !rem.calls[1].Equal(newStart.Add(-2*time.Hour)) {
		t.Fatalf("expected requeued reminder, got %v", rem.calls)
	}
}

func TestListFilters(t *testing.T) {
	svc, st, _ := setup(t, domain.StageContacted)
	ctx := context.Background()
	_ = st.Insert(ctx, store.Leads, "L2", domain.Lead{ID: "L2", LocationIntent: domain.LocationWayne})
	_, _ = svc.Create(ctx, CreateInput{LeadID: "L1", StartsAt: testNow.Add(time.Hour)}, testNow)
	_, _ = svc.Create(ctx, CreateInput{LeadID: "L2", StartsAt: testNow.Add(time.Hour)}, testNow)

	got, err := svc.List(ctx, ListFilter{Location: domain.LocationWayne})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].LeadID != "L2" {
		t.Fatalf("expected only L2 booking, got %+v", got)
	}
}
