package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/changex/eduspace/internal/app/models"
	"github.com/changex/eduspace/internal/pkg/apperrors"
	"github.com/changex/eduspace/internal/pkg/events"
	"github.com/changex/eduspace/internal/pkg/logger"
)

// AdmissionView exposes the reads and writes an admission decision needs.
// Every method call runs under the offering lock taken by WithOfferingLock,
// inside one transaction: either all of its writes commit or none do.
type AdmissionView interface {
	OfferingByID(ctx context.Context, offeringID int64) (*models.CourseOffering, error)
	EnrollmentExists(ctx context.Context, userID, offeringID int64) (bool, error)
	EnrolledCount(ctx context.Context, offeringID int64) (int, error)
	WaitlistExists(ctx context.Context, offeringID, userID int64) (bool, error)
	CreateWaitlistEntry(ctx context.Context, offeringID, userID int64) (*models.WaitlistEntry, error)
	PrerequisiteCourseIDs(ctx context.Context, courseID int64) ([]int64, error)
	CompletedCourseIDs(ctx context.Context, userID int64, passingGrade float64) (map[int64]bool, error)
	CreateEnrollment(ctx context.Context, userID, offeringID int64) (*models.Enrollment, error)
	NextUnnotifiedWaitlistEntries(ctx context.Context, offeringID int64) ([]models.WaitlistEntry, error)
	MarkWaitlistNotified(ctx context.Context, entryID int64) error
}

// EnrollmentStore is the persistence surface of the enrollment coordinator.
type EnrollmentStore interface {
	// WithOfferingLock runs fn inside a transaction that holds an exclusive
	// per-offering lock for its whole duration, serializing concurrent
	// admission decisions on the same offering.
	WithOfferingLock(ctx context.Context, offeringID int64, fn func(ctx context.Context, view AdmissionView) error) error
	EnrollmentByID(ctx context.Context, enrollmentID int64) (*models.Enrollment, error)
	UpdateEnrollmentStatus(ctx context.Context, enrollmentID int64, status models.EnrollmentStatus) error
}

// EnrollmentConfig carries the coordinator's policy knobs.
type EnrollmentConfig struct {
	// PassingGrade is the minimum completed grade satisfying a prerequisite.
	PassingGrade float64
	// CheckPrerequisitesOnWaitlist applies the prerequisite gate before a
	// waitlist entry is created. Off by default.
	CheckPrerequisitesOnWaitlist bool
}

// AdmissionResult reports the outcome of RequestEnrollment.
type AdmissionResult struct {
	Decision      AdmissionDecision     `json:"decision"`
	Enrollment    *models.Enrollment    `json:"enrollment,omitempty"`
	WaitlistEntry *models.WaitlistEntry `json:"waitlistEntry,omitempty"`
	// MissingPrerequisites lists unmet prerequisite course IDs on rejection.
	MissingPrerequisites []int64 `json:"missingPrerequisites,omitempty"`
}

// PromotionResult reports the outcome of PromoteFromWaitlist.
type PromotionResult struct {
	Promoted   bool               `json:"promoted"`
	Enrollment *models.Enrollment `json:"enrollment,omitempty"`
	UserID     int64              `json:"userId,omitempty"`
}

// EnrollmentService owns the state transitions of a student's relationship to
// a course offering: admission, waitlisting, promotion, drop and completion.
type EnrollmentService struct {
	store      EnrollmentStore
	dispatcher events.Dispatcher
	config     EnrollmentConfig
}

// NewEnrollmentService creates a new enrollment service instance
func NewEnrollmentService(store EnrollmentStore, dispatcher events.Dispatcher, config EnrollmentConfig) *EnrollmentService {
	if config.PassingGrade <= 0 {
		config.PassingGrade = 60.0
	}
	return &EnrollmentService{
		store:      store,
		dispatcher: dispatcher,
		config:     config,
	}
}

// RequestEnrollment admits a student into an offering, waitlists them when
// the offering is full, or rejects the request. The duplicate check, capacity
// check and insert run as one atomic unit per offering.
func (s *EnrollmentService) RequestEnrollment(ctx context.Context, userID, offeringID int64) (*AdmissionResult, error) {
	if userID <= 0 || offeringID <= 0 {
		return nil, apperrors.ErrValidationFailed
	}

	var result AdmissionResult

	err := s.store.WithOfferingLock(ctx, offeringID, func(ctx context.Context, view AdmissionView) error {
		offering, err := view.OfferingByID(ctx, offeringID)
		if err != nil {
			return err
		}
		if offering == nil {
			return apperrors.ErrOfferingNotFound
		}

		exists, err := view.EnrollmentExists(ctx, userID, offeringID)
		if err != nil {
			return fmt.Errorf("error checking existing enrollment: %w", err)
		}
		if exists {
			return apperrors.ErrAlreadyEnrolled
		}

		enrolledCount, err := view.EnrolledCount(ctx, offeringID)
		if err != nil {
			return fmt.Errorf("error counting enrolled students: %w", err)
		}

		input := AdmissionInput{
			Capacity:             offering.Capacity,
			EnrolledCount:        enrolledCount,
			GateWaitlistByPrereq: s.config.CheckPrerequisitesOnWaitlist,
		}

		// Prerequisites are only fetched when the decision can depend on them:
		// the reference behavior never validates a waitlist candidate.
		if enrolledCount < offering.Capacity || s.config.CheckPrerequisitesOnWaitlist {
			input.PrerequisiteIDs, err = view.PrerequisiteCourseIDs(ctx, offering.CourseID)
			if err != nil {
				return fmt.Errorf("error loading prerequisites: %w", err)
			}
			if len(input.PrerequisiteIDs) > 0 {
				input.CompletedCourseIDs, err = view.CompletedCourseIDs(ctx, userID, s.config.PassingGrade)
				if err != nil {
					return fmt.Errorf("error loading completed courses: %w", err)
				}
			}
		}

		decision, missing := decideAdmission(input)
		result.Decision = decision
		result.MissingPrerequisites = missing

		switch decision {
		case DecisionWaitlisted:
			onWaitlist, err := view.WaitlistExists(ctx, offeringID, userID)
			if err != nil {
				return fmt.Errorf("error checking waitlist: %w", err)
			}
			if onWaitlist {
				return apperrors.ErrAlreadyWaitlisted
			}
			entry, err := view.CreateWaitlistEntry(ctx, offeringID, userID)
			if err != nil {
				return fmt.Errorf("error creating waitlist entry: %w", err)
			}
			result.WaitlistEntry = entry

		case DecisionEnrolled:
			enrollment, err := view.CreateEnrollment(ctx, userID, offeringID)
			if err != nil {
				return fmt.Errorf("error creating enrollment: %w", err)
			}
			result.Enrollment = enrollment

		case DecisionRejected:
			// No row is written; the seat stays free.
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAdmissionEvents(userID, offeringID, &result)

	return &result, nil
}

// PromoteFromWaitlist offers a freed seat to the earliest un-notified
// waitlist entry. Entries whose prerequisites fail the configured gate are
// marked notified and skipped. Returns a zero result when nothing is
// promotable; an empty waitlist is not an error.
func (s *EnrollmentService) PromoteFromWaitlist(ctx context.Context, offeringID int64) (*PromotionResult, error) {
	if offeringID <= 0 {
		return nil, apperrors.ErrValidationFailed
	}

	var result PromotionResult

	err := s.store.WithOfferingLock(ctx, offeringID, func(ctx context.Context, view AdmissionView) error {
		offering, err := view.OfferingByID(ctx, offeringID)
		if err != nil {
			return err
		}
		if offering == nil {
			return apperrors.ErrOfferingNotFound
		}

		enrolledCount, err := view.EnrolledCount(ctx, offeringID)
		if err != nil {
			return fmt.Errorf("error counting enrolled students: %w", err)
		}
		if enrolledCount >= offering.Capacity {
			return nil
		}

		entries, err := view.NextUnnotifiedWaitlistEntries(ctx, offeringID)
		if err != nil {
			return fmt.Errorf("error reading waitlist: %w", err)
		}

		for _, entry := range entries {
			eligible := true
			if s.config.CheckPrerequisitesOnWaitlist {
				eligible, err = s.prerequisitesMet(ctx, view, entry.UserID, offering.CourseID)
				if err != nil {
					return err
				}
			}

			if err := view.MarkWaitlistNotified(ctx, entry.ID); err != nil {
				return fmt.Errorf("error marking waitlist entry notified: %w", err)
			}

			if !eligible {
				logger.Info().
					Int64("userID", entry.UserID).
					Int64("offeringID", offeringID).
					Msg("Skipping waitlist entry with unmet prerequisites")
				continue
			}

			enrollment, err := view.CreateEnrollment(ctx, entry.UserID, offeringID)
			if err != nil {
				return fmt.Errorf("error enrolling promoted student: %w", err)
			}
			result.Promoted = true
			result.Enrollment = enrollment
			result.UserID = entry.UserID
			return nil
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Promoted {
		s.dispatcher.Dispatch(events.Event{
			Type:       events.TypeWaitlistPromotion,
			UserID:     result.UserID,
			OfferingID: offeringID,
		})
		s.dispatcher.Dispatch(events.Event{
			Type:       events.TypeUserNotification,
			UserID:     result.UserID,
			OfferingID: offeringID,
			Payload:    map[string]interface{}{"kind": "waitlist_promoted"},
		})
	}

	return &result, nil
}

func (s *EnrollmentService) prerequisitesMet(ctx context.Context, view AdmissionView, userID, courseID int64) (bool, error) {
	prereqIDs, err := view.PrerequisiteCourseIDs(ctx, courseID)
	if err != nil {
		return false, fmt.Errorf("error loading prerequisites: %w", err)
	}
	if len(prereqIDs) == 0 {
		return true, nil
	}
	completed, err := view.CompletedCourseIDs(ctx, userID, s.config.PassingGrade)
	if err != nil {
		return false, fmt.Errorf("error loading completed courses: %w", err)
	}
	return len(unmetPrerequisites(prereqIDs, completed)) == 0, nil
}

// DropEnrollment marks an enrolled student as dropped, freeing their seat.
// Promotion of the next waitlisted student is a separate, explicit call.
func (s *EnrollmentService) DropEnrollment(ctx context.Context, enrollmentID int64) error {
	return s.transitionEnrollment(ctx, enrollmentID, models.EnrollmentDropped)
}

// CompleteEnrollment marks an enrollment completed; together with a passing
// grade this is what satisfies downstream prerequisite checks.
func (s *EnrollmentService) CompleteEnrollment(ctx context.Context, enrollmentID int64) error {
	return s.transitionEnrollment(ctx, enrollmentID, models.EnrollmentCompleted)
}

func (s *EnrollmentService) transitionEnrollment(ctx context.Context, enrollmentID int64, status models.EnrollmentStatus) error {
	if enrollmentID <= 0 {
		return apperrors.ErrValidationFailed
	}

	enrollment, err := s.store.EnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if enrollment == nil {
		return apperrors.ErrEnrollmentNotFound
	}
	if enrollment.Status != models.EnrollmentEnrolled {
		return apperrors.NewCustomError(apperrors.ErrEnrollmentNotActive,
			fmt.Sprintf("enrollment is %s, only enrolled students can transition", enrollment.Status)).
			WithDetails(map[string]interface{}{"status": string(enrollment.Status)})
	}

	if err := s.store.UpdateEnrollmentStatus(ctx, enrollmentID, status); err != nil {
		return fmt.Errorf("error updating enrollment status: %w", err)
	}

	s.dispatcher.Dispatch(events.Event{
		Type:       events.TypeEnrollmentChange,
		UserID:     enrollment.UserID,
		OfferingID: enrollment.CourseOfferingID,
		Payload:    map[string]interface{}{"status": string(status)},
	})

	if status == models.EnrollmentDropped {
		logger.Info().
			Int64("offeringID", enrollment.CourseOfferingID).
			Msg("Seat freed by drop, waitlist promotion available")
	}

	return nil
}

func (s *EnrollmentService) emitAdmissionEvents(userID, offeringID int64, result *AdmissionResult) {
	switch result.Decision {
	case DecisionEnrolled:
		s.dispatcher.Dispatch(events.Event{
			Type:       events.TypeEnrollmentChange,
			UserID:     userID,
			OfferingID: offeringID,
			Payload:    map[string]interface{}{"status": string(models.EnrollmentEnrolled)},
		})
		s.dispatcher.Dispatch(events.Event{
			Type:       events.TypeUserNotification,
			UserID:     userID,
			OfferingID: offeringID,
			Payload:    map[string]interface{}{"kind": "enrollment_success"},
		})
	case DecisionWaitlisted:
		s.dispatcher.Dispatch(events.Event{
			Type:       events.TypeUserNotification,
			UserID:     userID,
			OfferingID: offeringID,
			Payload:    map[string]interface{}{"kind": "waitlist_added"},
		})
	case DecisionRejected:
		logger.Warn().
			Int64("userID", userID).
			Int64("offeringID", offeringID).
			Ints64("missing", result.MissingPrerequisites).
			Msg("Enrollment rejected, prerequisites not met")
	}
}

// IsConflict reports whether err is one of the duplicate-admission conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, apperrors.ErrAlreadyEnrolled) ||
		errors.Is(err, apperrors.ErrAlreadyWaitlisted) ||
		errors.Is(err, apperrors.ErrConflict)
}
