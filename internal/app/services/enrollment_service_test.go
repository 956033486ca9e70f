package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changex/eduspace/internal/app/models"
	"github.com/changex/eduspace/internal/pkg/apperrors"
	"github.com/changex/eduspace/internal/pkg/events"
)

// fakeEnrollmentStore is an in-memory EnrollmentStore. A per-offering mutex
// stands in for the database's per-offering advisory lock.
type fakeEnrollmentStore struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	offerings   map[int64]*models.CourseOffering
	enrollments map[int64]*models.Enrollment
	waitlist    map[int64]*models.WaitlistEntry
	prereqs     map[int64][]int64        // courseID -> prerequisite course IDs
	completed   map[int64]map[int64]bool // userID -> passed course IDs

	nextEnrollmentID int64
	nextWaitlistID   int64
	waitlistSeq      int64
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{
		locks:       make(map[int64]*sync.Mutex),
		offerings:   make(map[int64]*models.CourseOffering),
		enrollments: make(map[int64]*models.Enrollment),
		waitlist:    make(map[int64]*models.WaitlistEntry),
		prereqs:     make(map[int64][]int64),
		completed:   make(map[int64]map[int64]bool),
	}
}

func (s *fakeEnrollmentStore) addOffering(id, courseID int64, capacity int) {
	s.offerings[id] = &models.CourseOffering{
		ID:       id,
		CourseID: courseID,
		Capacity: capacity,
		Status:   models.OfferingActive,
	}
}

func (s *fakeEnrollmentStore) markCompleted(userID int64, courseIDs ...int64) {
	if s.completed[userID] == nil {
		s.completed[userID] = make(map[int64]bool)
	}
	for _, id := range courseIDs {
		s.completed[userID][id] = true
	}
}

func (s *fakeEnrollmentStore) offeringLock(offeringID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[offeringID] == nil {
		s.locks[offeringID] = &sync.Mutex{}
	}
	return s.locks[offeringID]
}

func (s *fakeEnrollmentStore) WithOfferingLock(ctx context.Context, offeringID int64, fn func(ctx context.Context, view AdmissionView) error) error {
	lock := s.offeringLock(offeringID)
	lock.Lock()
	defer lock.Unlock()
	return fn(ctx, &fakeAdmissionView{store: s})
}

func (s *fakeEnrollmentStore) EnrollmentByID(_ context.Context, enrollmentID int64) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[enrollmentID]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (s *fakeEnrollmentStore) UpdateEnrollmentStatus(_ context.Context, enrollmentID int64, status models.EnrollmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[enrollmentID]
	if !ok {
		return apperrors.ErrEnrollmentNotFound
	}
	e.Status = status
	return nil
}

type fakeAdmissionView struct {
	store *fakeEnrollmentStore
}

func (v *fakeAdmissionView) OfferingByID(_ context.Context, offeringID int64) (*models.CourseOffering, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	o, ok := v.store.offerings[offeringID]
	if !ok {
		return nil, nil
	}
	copied := *o
	return &copied, nil
}

func (v *fakeAdmissionView) EnrollmentExists(_ context.Context, userID, offeringID int64) (bool, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	for _, e := range v.store.enrollments {
		if e.UserID == userID && e.CourseOfferingID == offeringID {
			return true, nil
		}
	}
	return false, nil
}

func (v *fakeAdmissionView) EnrolledCount(_ context.Context, offeringID int64) (int, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	count := 0
	for _, e := range v.store.enrollments {
		if e.CourseOfferingID == offeringID && e.Status == models.EnrollmentEnrolled {
			count++
		}
	}
	return count, nil
}

func (v *fakeAdmissionView) WaitlistExists(_ context.Context, offeringID, userID int64) (bool, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	for _, w := range v.store.waitlist {
		if w.CourseOfferingID == offeringID && w.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (v *fakeAdmissionView) CreateWaitlistEntry(_ context.Context, offeringID, userID int64) (*models.WaitlistEntry, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	v.store.nextWaitlistID++
	v.store.waitlistSeq++
	entry := &models.WaitlistEntry{
		ID:               v.store.nextWaitlistID,
		CourseOfferingID: offeringID,
		UserID:           userID,
		CreatedAt:        time.Unix(v.store.waitlistSeq, 0),
	}
	v.store.waitlist[entry.ID] = entry
	copied := *entry
	return &copied, nil
}

func (v *fakeAdmissionView) PrerequisiteCourseIDs(_ context.Context, courseID int64) ([]int64, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return append([]int64(nil), v.store.prereqs[courseID]...), nil
}

func (v *fakeAdmissionView) CompletedCourseIDs(_ context.Context, userID int64, _ float64) (map[int64]bool, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	out := make(map[int64]bool, len(v.store.completed[userID]))
	for id := range v.store.completed[userID] {
		out[id] = true
	}
	return out, nil
}

func (v *fakeAdmissionView) CreateEnrollment(_ context.Context, userID, offeringID int64) (*models.Enrollment, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	for _, e := range v.store.enrollments {
		if e.UserID == userID && e.CourseOfferingID == offeringID {
			return nil, apperrors.ErrAlreadyEnrolled
		}
	}
	v.store.nextEnrollmentID++
	enrollment := &models.Enrollment{
		ID:               v.store.nextEnrollmentID,
		UserID:           userID,
		CourseOfferingID: offeringID,
		Status:           models.EnrollmentEnrolled,
		EnrolledAt:       time.Now(),
	}
	v.store.enrollments[enrollment.ID] = enrollment
	copied := *enrollment
	return &copied, nil
}

func (v *fakeAdmissionView) NextUnnotifiedWaitlistEntries(_ context.Context, offeringID int64) ([]models.WaitlistEntry, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	var entries []models.WaitlistEntry
	for _, w := range v.store.waitlist {
		if w.CourseOfferingID == offeringID && !w.Notified {
			entries = append(entries, *w)
		}
	}
	// FIFO by creation order
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[j].CreatedAt.Before(entries[i].CreatedAt) {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}
	return entries, nil
}

func (v *fakeAdmissionView) MarkWaitlistNotified(_ context.Context, entryID int64) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	w, ok := v.store.waitlist[entryID]
	if !ok {
		return apperrors.ErrResourceNotFound
	}
	w.Notified = true
	return nil
}

func newTestEnrollmentService(store *fakeEnrollmentStore, cfg EnrollmentConfig) *EnrollmentService {
	return NewEnrollmentService(store, events.NopDispatcher{}, cfg)
}

func TestRequestEnrollmentAdmitsWithinCapacity(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, 2)
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	result, err := svc.RequestEnrollment(context.Background(), 100, 1)
	require.NoError(t, err)
	assert.Equal(t, DecisionEnrolled, result.Decision)
	require.NotNil(t, result.Enrollment)
	assert.Equal(t, models.EnrollmentEnrolled, result.Enrollment.Status)
	assert.Nil(t, result.WaitlistEntry)
}

func TestRequestEnrollmentWaitlistsWhenFull(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, 1)
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	_, err := svc.RequestEnrollment(context.Background(), 100, 1)
	require.NoError(t, err)

	result, err := svc.RequestEnrollment(context.Background(), 101, 1)
	require.NoError(t, err)
	assert.Equal(t, DecisionWaitlisted, result.Decision)
	require.NotNil(t, result.WaitlistEntry)
	assert.Equal(t, int64(101), result.WaitlistEntry.UserID)
	assert.Nil(t, result.Enrollment)
}

func TestRequestEnrollmentFullOfferingSkipsPrerequisiteCheck(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, 1)
	store.prereqs[10] = []int64{7}
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	store.markCompleted(100, 7)
	_, err := svc.RequestEnrollment(context.Background(), 100, 1)
	require.NoError(t, err)

	// User 101 has not completed course 7, but the offering is full so they
	// go straight to the waitlist.
	result, err := svc.RequestEnrollment(context.Background(), 101, 1)
	require.NoError(t, err)
	assert.Equal(t, DecisionWaitlisted, result.Decision)
}

func TestRequestEnrollmentRejectsUnmetPrerequisites(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, 5)
	store.prereqs[10] = []int64{7, 8}
	store.markCompleted(100, 7)
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	result, err := svc.RequestEnrollment(context.Background(), 100, 1)
	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, result.Decision)
	assert.Equal(t, []int64{8}, result.MissingPrerequisites)
	assert.Nil(t, result.Enrollment)
	assert.Nil(t, result.WaitlistEntry)

	// The seat stays free for an eligible student.
	store.markCompleted(101, 7, 8)
	result, err = svc.RequestEnrollment(context.Background(), 101, 1)
	require.NoError(t, err)
	assert.Equal(t, DecisionEnrolled, result.Decision)
}

func TestRequestEnrollmentDuplicateIsConflict(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, 5)
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	_, err := svc.RequestEnrollment(context.Background(), 100, 1)
	require.NoError(t, err)

	_, err = svc.RequestEnrollment(context.Background(), 100, 1)
	require.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)
	assert.True(t, IsConflict(err))
}

func TestRequestEnrollmentDuplicateWaitlistIsConflict(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, 0)
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	_, err := svc.RequestEnrollment(context.Background(), 100, 1)
	require.NoError(t, err)

	_, err = svc.RequestEnrollment(context.Background(), 100, 1)
	require.ErrorIs(t, err, apperrors.ErrAlreadyWaitlisted)
}

func TestRequestEnrollmentUnknownOffering(t *testing.T) {
	store := newFakeEnrollmentStore()
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	_, err := svc.RequestEnrollment(context.Background(), 100, 42)
	require.ErrorIs(t, err, apperrors.ErrOfferingNotFound)
}

func TestRequestEnrollmentWaitlistPrereqGate(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, 0)
	store.prereqs[10] = []int64{7}
	svc := newTestEnrollmentService(store, EnrollmentConfig{CheckPrerequisitesOnWaitlist: true})

	result, err := svc.RequestEnrollment(context.Background(), 100, 1)
	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, result.Decision)
	assert.Equal(t, []int64{7}, result.MissingPrerequisites)

	store.markCompleted(101, 7)
	result, err = svc.RequestEnrollment(context.Background(), 101, 1)
	require.NoError(t, err)
	assert.Equal(t, DecisionWaitlisted, result.Decision)
}

// A burst of capacity+k concurrent requests against one offering must end
// with exactly capacity enrollments and k waitlist entries.
func TestRequestEnrollmentConcurrentCapacity(t *testing.T) {
	const capacity = 20
	const overflow = 15

	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, capacity)
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	var wg sync.WaitGroup
	results := make([]AdmissionDecision, capacity+overflow)
	errs := make([]error, capacity+overflow)
	for i := 0; i < capacity+overflow; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.RequestEnrollment(context.Background(), int64(1000+i), 1)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = result.Decision
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	enrolled, waitlisted := 0, 0
	for _, d := range results {
		switch d {
		case DecisionEnrolled:
			enrolled++
		case DecisionWaitlisted:
			waitlisted++
		}
	}
	assert.Equal(t, capacity, enrolled)
	assert.Equal(t, overflow, waitlisted)
	assert.Len(t, store.waitlist, overflow)
}

func TestPromoteFromWaitlistFIFO(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, 1)
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	_, err := svc.RequestEnrollment(context.Background(), 100, 1)
	require.NoError(t, err)
	for _, userID := range []int64{101, 102, 103} {
		result, err := svc.RequestEnrollment(context.Background(), userID, 1)
		require.NoError(t, err)
		require.Equal(t, DecisionWaitlisted, result.Decision)
	}

	// No free seat yet.
	promo, err := svc.PromoteFromWaitlist(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, promo.Promoted)

	// Drop frees the seat; the earliest waitlisted user gets it.
	require.NoError(t, svc.DropEnrollment(context.Background(), 1))
	promo, err = svc.PromoteFromWaitlist(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, promo.Promoted)
	assert.Equal(t, int64(101), promo.UserID)

	// A second promotion without a free seat does nothing.
	promo, err = svc.PromoteFromWaitlist(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, promo.Promoted)
}

func TestPromoteFromWaitlistSkipsIneligibleWhenGated(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, 0)
	store.prereqs[10] = []int64{7}
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	// Waitlist two users while the gate is off.
	for _, userID := range []int64{101, 102} {
		result, err := svc.RequestEnrollment(context.Background(), userID, 1)
		require.NoError(t, err)
		require.Equal(t, DecisionWaitlisted, result.Decision)
	}
	store.markCompleted(102, 7)

	// Open a seat and promote with the gate on: 101 is skipped, 102 enrolls.
	store.offerings[1].Capacity = 1
	gated := newTestEnrollmentService(store, EnrollmentConfig{CheckPrerequisitesOnWaitlist: true})
	promo, err := gated.PromoteFromWaitlist(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, promo.Promoted)
	assert.Equal(t, int64(102), promo.UserID)

	// The skipped entry was consumed.
	for _, w := range store.waitlist {
		assert.True(t, w.Notified)
	}
}

func TestDropAndCompleteTransitions(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.addOffering(1, 10, 5)
	svc := newTestEnrollmentService(store, EnrollmentConfig{})

	result, err := svc.RequestEnrollment(context.Background(), 100, 1)
	require.NoError(t, err)
	id := result.Enrollment.ID

	require.NoError(t, svc.CompleteEnrollment(context.Background(), id))
	e, err := store.EnrollmentByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentCompleted, e.Status)

	// Terminal states refuse further transitions.
	err = svc.DropEnrollment(context.Background(), id)
	require.ErrorIs(t, err, apperrors.ErrEnrollmentNotActive)

	err = svc.DropEnrollment(context.Background(), 999)
	require.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
}

func TestDecideAdmissionOrder(t *testing.T) {
	tests := []struct {
		name    string
		input   AdmissionInput
		want    AdmissionDecision
		missing []int64
	}{
		{
			name:  "open seat no prereqs",
			input: AdmissionInput{Capacity: 1},
			want:  DecisionEnrolled,
		},
		{
			name:  "full goes to waitlist before prereq check",
			input: AdmissionInput{Capacity: 1, EnrolledCount: 1, PrerequisiteIDs: []int64{7}},
			want:  DecisionWaitlisted,
		},
		{
			name:    "open seat unmet prereqs",
			input:   AdmissionInput{Capacity: 1, PrerequisiteIDs: []int64{7}},
			want:    DecisionRejected,
			missing: []int64{7},
		},
		{
			name: "full gated waitlist checks prereqs",
			input: AdmissionInput{
				Capacity: 1, EnrolledCount: 1,
				PrerequisiteIDs:      []int64{7},
				GateWaitlistByPrereq: true,
			},
			want:    DecisionRejected,
			missing: []int64{7},
		},
		{
			name: "full gated waitlist with met prereqs",
			input: AdmissionInput{
				Capacity: 1, EnrolledCount: 1,
				PrerequisiteIDs:      []int64{7},
				CompletedCourseIDs:   map[int64]bool{7: true},
				GateWaitlistByPrereq: true,
			},
			want: DecisionWaitlisted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, missing := decideAdmission(tt.input)
			assert.Equal(t, tt.want, decision)
			assert.Equal(t, tt.missing, missing)
		})
	}
}
