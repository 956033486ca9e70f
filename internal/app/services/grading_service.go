package services

import (
	"context"
	"fmt"

	"github.com/changex/eduspace/internal/app/models"
	"github.com/changex/eduspace/internal/pkg/apperrors"
	"github.com/changex/eduspace/internal/pkg/events"
	"github.com/changex/eduspace/internal/pkg/logger"
)

// GradingStore is the read/write surface of the grade aggregator. It reads
// graded submissions and writes the computed grade back onto the enrollment;
// nothing else touches Enrollment.grade or letter_grade.
type GradingStore interface {
	EnrollmentByID(ctx context.Context, enrollmentID int64) (*models.Enrollment, error)
	AssignmentGroups(ctx context.Context, offeringID int64) ([]models.AssignmentGroup, error)
	// GradedItems returns the user's graded submissions for the offering as
	// (earned, possible) pairs in a stable order.
	GradedItems(ctx context.Context, offeringID, userID int64) ([]GradedItem, error)
	// GradedItemsByGroup returns the user's graded submissions keyed by
	// assignment group, each slice in a stable order.
	GradedItemsByGroup(ctx context.Context, offeringID, userID int64) (map[int64][]GradedItem, error)
	SaveFinalGrade(ctx context.Context, enrollmentID int64, percentage float64, letter string) error
}

// FinalGrade is the persisted result of a grade computation.
type FinalGrade struct {
	EnrollmentID int64   `json:"enrollmentId"`
	Percentage   float64 `json:"percentage"`
	Letter       string  `json:"letter"`
}

// GradingService computes and persists final grades. Recomputation is an
// explicit call triggered after grading, never a side effect of reads, and is
// idempotent for unchanged submissions.
type GradingService struct {
	store      GradingStore
	dispatcher events.Dispatcher
}

// NewGradingService creates a new grading service instance
func NewGradingService(store GradingStore, dispatcher events.Dispatcher) *GradingService {
	return &GradingService{
		store:      store,
		dispatcher: dispatcher,
	}
}

// CalculateFinalGrade computes the enrollment's composite percentage and
// letter grade and persists both. Offerings without assignment groups use the
// flat path over all graded submissions; otherwise each group contributes its
// weight-normalized share. A student with no gradable work gets 0% / F rather
// than an error.
func (s *GradingService) CalculateFinalGrade(ctx context.Context, enrollmentID int64) (*FinalGrade, error) {
	if enrollmentID <= 0 {
		return nil, apperrors.NewBadRequestError("enrollment id must be positive")
	}

	enrollment, err := s.store.EnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, apperrors.ErrEnrollmentNotFound
	}

	groups, err := s.store.AssignmentGroups(ctx, enrollment.CourseOfferingID)
	if err != nil {
		return nil, fmt.Errorf("error loading assignment groups: %w", err)
	}

	var percentage float64
	if len(groups) == 0 {
		items, err := s.store.GradedItems(ctx, enrollment.CourseOfferingID, enrollment.UserID)
		if err != nil {
			return nil, fmt.Errorf("error loading graded submissions: %w", err)
		}
		percentage = FlatPercentage(items)
	} else {
		itemsByGroup, err := s.store.GradedItemsByGroup(ctx, enrollment.CourseOfferingID, enrollment.UserID)
		if err != nil {
			return nil, fmt.Errorf("error loading graded submissions: %w", err)
		}

		inputs := make([]GroupInput, 0, len(groups))
		for _, group := range groups {
			inputs = append(inputs, GroupInput{
				Weight:     group.Weight,
				DropLowest: group.DropLowest,
				Items:      itemsByGroup[group.ID],
			})
		}
		percentage = WeightedPercentage(inputs)
	}

	letter := LetterFor(percentage)

	if err := s.store.SaveFinalGrade(ctx, enrollmentID, percentage, letter); err != nil {
		return nil, fmt.Errorf("error saving final grade: %w", err)
	}

	logger.Info().
		Int64("enrollmentID", enrollmentID).
		Float64("percentage", percentage).
		Str("letter", letter).
		Msg("Final grade calculated")

	s.dispatcher.Dispatch(events.Event{
		Type:       events.TypeGradeUpdated,
		UserID:     enrollment.UserID,
		OfferingID: enrollment.CourseOfferingID,
		Payload: map[string]interface{}{
			"percentage": percentage,
			"letter":     letter,
		},
	})

	return &FinalGrade{
		EnrollmentID: enrollmentID,
		Percentage:   percentage,
		Letter:       letter,
	}, nil
}

// GetFinalGrade returns the stored grade for an enrollment. Enrollments that
// have never been graded return ErrResourceNotFound rather than a zero grade.
func (s *GradingService) GetFinalGrade(ctx context.Context, enrollmentID int64) (*FinalGrade, error) {
	if enrollmentID <= 0 {
		return nil, apperrors.NewBadRequestError("enrollment id must be positive")
	}

	enrollment, err := s.store.EnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, apperrors.ErrEnrollmentNotFound
	}

	if enrollment.Grade == nil || enrollment.LetterGrade == nil {
		return nil, apperrors.NewResourceNotFoundError("enrollment has no final grade yet")
	}

	return &FinalGrade{
		EnrollmentID: enrollmentID,
		Percentage:   *enrollment.Grade,
		Letter:       *enrollment.LetterGrade,
	}, nil
}
