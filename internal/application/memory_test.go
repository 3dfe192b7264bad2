package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/facility-planner/internal/persistence"
)

// memoryStore implements every repository interface over maps. failWith, when
// set, is returned by every call.
type memoryStore struct {
	mu           sync.Mutex
	failWith     error
	locations    map[string]persistence.Location
	activities   map[string]persistence.Activity
	staff        map[string]persistence.StaffMember
	templates    map[string]persistence.TaskTemplate
	occurrences  map[string]persistence.TaskOccurrence
	params       *persistence.GovernanceParameters
	plans        map[string]persistence.WeekPlan
	schedules    map[string]persistence.WeeklySchedule
	shifts       map[string]persistence.ShiftAssignment
	convocations map[string]persistence.Convocation
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		locations:    make(map[string]persistence.Location),
		activities:   make(map[string]persistence.Activity),
		staff:        make(map[string]persistence.StaffMember),
		templates:    make(map[string]persistence.TaskTemplate),
		occurrences:  make(map[string]persistence.TaskOccurrence),
		plans:        make(map[string]persistence.WeekPlan),
		schedules:    make(map[string]persistence.WeeklySchedule),
		shifts:       make(map[string]persistence.ShiftAssignment),
		convocations: make(map[string]persistence.Convocation),
	}
}

func dayKey(t time.Time) string { return t.Format(time.DateOnly) }

func (m *memoryStore) CreateLocation(ctx context.Context, l persistence.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.locations[l.ID]; ok {
		return persistence.ErrDuplicate
	}
	m.locations[l.ID] = l
	return nil
}

func (m *memoryStore) UpdateLocation(ctx context.Context, l persistence.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.locations[l.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.locations[l.ID] = l
	return nil
}

func (m *memoryStore) GetLocation(ctx context.Context, id string) (persistence.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return persistence.Location{}, m.failWith
	}
	l, ok := m.locations[id]
	if !ok {
		return persistence.Location{}, persistence.ErrNotFound
	}
	return l, nil
}

func (m *memoryStore) ListLocations(ctx context.Context) ([]persistence.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]persistence.Location, 0, len(m.locations))
	for _, l := range m.locations {
		out = append(out, l)
	}
	return out, nil
}

func (m *memoryStore) DeleteLocation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.locations[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, t := range m.templates {
		if t.LocationID == id {
			return persistence.ErrConstraintViolation
		}
	}
	delete(m.locations, id)
	return nil
}

func (m *memoryStore) CreateActivity(ctx context.Context, a persistence.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.activities[a.ID]; ok {
		return persistence.ErrDuplicate
	}
	m.activities[a.ID] = a
	return nil
}

func (m *memoryStore) UpdateActivity(ctx context.Context, a persistence.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[a.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.activities[a.ID] = a
	return nil
}

func (m *memoryStore) GetActivity(ctx context.Context, id string) (persistence.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return persistence.Activity{}, m.failWith
	}
	a, ok := m.activities[id]
	if !ok {
		return persistence.Activity{}, persistence.ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) ListActivities(ctx context.Context) ([]persistence.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]persistence.Activity, 0, len(m.activities))
	for _, a := range m.activities {
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryStore) DeleteActivity(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.activities, id)
	return nil
}

func (m *memoryStore) CreateStaff(ctx context.Context, s persistence.StaffMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.staff[s.ID] = s
	return nil
}

func (m *memoryStore) UpdateStaff(ctx context.Context, s persistence.StaffMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[s.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.staff[s.ID] = s
	return nil
}

func (m *memoryStore) GetStaff(ctx context.Context, id string) (persistence.StaffMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return persistence.StaffMember{}, m.failWith
	}
	s, ok := m.staff[id]
	if !ok {
		return persistence.StaffMember{}, persistence.ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) ListStaff(ctx context.Context) ([]persistence.StaffMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]persistence.StaffMember, 0, len(m.staff))
	for _, s := range m.staff {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryStore) DeleteStaff(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.staff, id)
	return nil
}

func (m *memoryStore) CreateTemplate(ctx context.Context, t persistence.TaskTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.templates[t.ID] = t
	return nil
}

func (m *memoryStore) GetTemplate(ctx context.Context, id string) (persistence.TaskTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return persistence.TaskTemplate{}, persistence.ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) ListTemplates(ctx context.Context, locationID string) ([]persistence.TaskTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]persistence.TaskTemplate, 0, len(m.templates))
	for _, t := range m.templates {
		if locationID == "" || t.LocationID == locationID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) DeleteTemplate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return persistence.ErrNotFound
	}
	for oid, o := range m.occurrences {
		if o.TemplateID == nil || *o.TemplateID != id {
			continue
		}
		if o.ExecutionDate == nil {
			delete(m.occurrences, oid)
			continue
		}
		o.TemplateID = nil
		m.occurrences[oid] = o
	}
	delete(m.templates, id)
	return nil
}

func (m *memoryStore) GetOccurrence(ctx context.Context, id string) (persistence.TaskOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.occurrences[id]
	if !ok {
		return persistence.TaskOccurrence{}, persistence.ErrNotFound
	}
	return o, nil
}

func (m *memoryStore) ListOccurrences(ctx context.Context, f persistence.OccurrenceFilter) ([]persistence.TaskOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]persistence.TaskOccurrence, 0)
	for _, o := range m.occurrences {
		if f.TemplateID != "" && (o.TemplateID == nil || *o.TemplateID != f.TemplateID) {
			continue
		}
		if f.LocationID != "" && o.LocationID != f.LocationID {
			continue
		}
		if f.PendingOnly && o.ExecutionDate != nil {
			continue
		}
		if f.From != nil && dayKey(o.PlannedDate) < dayKey(*f.From) {
			continue
		}
		if f.To != nil && dayKey(o.PlannedDate) > dayKey(*f.To) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if dayKey(out[i].PlannedDate) != dayKey(out[j].PlannedDate) {
			return dayKey(out[i].PlannedDate) < dayKey(out[j].PlannedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) InsertOccurrences(ctx context.Context, occurrences []persistence.TaskOccurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range occurrences {
		m.occurrences[o.ID] = o
	}
	return nil
}

func (m *memoryStore) UpdateOccurrence(ctx context.Context, o persistence.TaskOccurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.occurrences[o.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.occurrences[o.ID] = o
	return nil
}

func (m *memoryStore) CompleteOccurrence(ctx context.Context, done persistence.TaskOccurrence, next *persistence.TaskOccurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occurrences[done.ID] = done
	if next != nil {
		m.occurrences[next.ID] = *next
	}
	return nil
}

func (m *memoryStore) GetParameters(ctx context.Context) (persistence.GovernanceParameters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return persistence.GovernanceParameters{}, m.failWith
	}
	if m.params == nil {
		return persistence.GovernanceParameters{}, persistence.ErrNotFound
	}
	return *m.params, nil
}

func (m *memoryStore) SaveParameters(ctx context.Context, p persistence.GovernanceParameters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.params = &p
	return nil
}

func (m *memoryStore) GetWeekPlan(ctx context.Context, weekStart time.Time) (persistence.WeekPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[dayKey(weekStart)]
	if !ok {
		return persistence.WeekPlan{}, persistence.ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) SaveWeekPlan(ctx context.Context, p persistence.WeekPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.plans[dayKey(p.WeekStart)]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	}
	m.plans[dayKey(p.WeekStart)] = p
	return nil
}

func (m *memoryStore) GetScheduleByWeek(ctx context.Context, weekStart time.Time) (persistence.WeeklySchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[dayKey(weekStart)]
	if !ok {
		return persistence.WeeklySchedule{}, persistence.ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) CreateSchedule(ctx context.Context, s persistence.WeeklySchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[dayKey(s.WeekStart)]; ok {
		return persistence.ErrDuplicate
	}
	m.schedules[dayKey(s.WeekStart)] = s
	return nil
}

func (m *memoryStore) ReplaceSchedule(ctx context.Context, s persistence.WeeklySchedule, shifts []persistence.ShiftAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.schedules[dayKey(s.WeekStart)]; ok {
		for id, shift := range m.shifts {
			if shift.ScheduleID == old.ID {
				delete(m.shifts, id)
			}
		}
		for id, c := range m.convocations {
			if c.ScheduleID == old.ID {
				delete(m.convocations, id)
			}
		}
	}
	m.schedules[dayKey(s.WeekStart)] = s
	for _, shift := range shifts {
		shift.ScheduleID = s.ID
		m.shifts[shift.ID] = shift
	}
	return nil
}

func (m *memoryStore) ListShifts(ctx context.Context, scheduleID string) ([]persistence.ShiftAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]persistence.ShiftAssignment, 0)
	for _, shift := range m.shifts {
		if shift.ScheduleID == scheduleID {
			out = append(out, shift)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if dayKey(out[i].Date) != dayKey(out[j].Date) {
			return dayKey(out[i].Date) < dayKey(out[j].Date)
		}
		return out[i].StaffID < out[j].StaffID
	})
	return out, nil
}

func (m *memoryStore) GetShift(ctx context.Context, id string) (persistence.ShiftAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[id]
	if !ok {
		return persistence.ShiftAssignment{}, persistence.ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) UpsertShift(ctx context.Context, s persistence.ShiftAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.shifts {
		if existing.ScheduleID == s.ScheduleID && existing.StaffID == s.StaffID && dayKey(existing.Date) == dayKey(s.Date) {
			s.ID = id
		}
	}
	m.shifts[s.ID] = s
	return nil
}

func (m *memoryStore) DeleteShift(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.shifts, id)
	for cid, c := range m.convocations {
		if c.ShiftID == id {
			delete(m.convocations, cid)
		}
	}
	return nil
}

func (m *memoryStore) ShiftConvoked(ctx context.Context, shiftID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.convocations {
		if c.ShiftID == shiftID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) CreateConvocations(ctx context.Context, list []persistence.Convocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range list {
		for _, existing := range m.convocations {
			if existing.ShiftID == c.ShiftID {
				return persistence.ErrDuplicate
			}
		}
	}
	for _, c := range list {
		m.convocations[c.ID] = c
	}
	return nil
}

func (m *memoryStore) GetConvocation(ctx context.Context, id string) (persistence.Convocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convocations[id]
	if !ok {
		return persistence.Convocation{}, persistence.ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) UpdateConvocation(ctx context.Context, c persistence.Convocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convocations[c.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.convocations[c.ID] = c
	return nil
}

func (m *memoryStore) ListConvocations(ctx context.Context, scheduleID string) ([]persistence.Convocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]persistence.Convocation, 0)
	for _, c := range m.convocations {
		if c.ScheduleID == scheduleID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if dayKey(out[i].ShiftDate) != dayKey(out[j].ShiftDate) {
			return dayKey(out[i].ShiftDate) < dayKey(out[j].ShiftDate)
		}
		return out[i].StaffID < out[j].StaffID
	})
	return out, nil
}

var (
	_ persistence.LocationRepository    = (*memoryStore)(nil)
	_ persistence.ActivityRepository    = (*memoryStore)(nil)
	_ persistence.StaffRepository       = (*memoryStore)(nil)
	_ persistence.TaskRepository        = (*memoryStore)(nil)
	_ persistence.GovernanceRepository  = (*memoryStore)(nil)
	_ persistence.ScheduleRepository    = (*memoryStore)(nil)
	_ persistence.ConvocationRepository = (*memoryStore)(nil)
)
