package auth

import (
	"context"

	"github.com/changex/eduspace/internal/pkg/apperrors"
)

// Capability names checked by the authorization service. Capabilities
// are stored per role assignment and combined across a user's roles.
const (
	CapManageEnrollment = "enrollment:manage"
	CapFinalizeGrades   = "grades:finalize"
	CapViewAnalytics    = "analytics:view"
	CapViewRisk         = "risk:view"
)

// CapabilityStore answers which capabilities a user's role assignments carry.
type CapabilityStore interface {
	Capabilities(ctx context.Context, userID, institutionID int64) ([]string, error)
	HasCapabilityAnywhere(ctx context.Context, userID int64, capability string) (bool, error)
}

// InstitutionResolver maps domain objects back to the institution whose
// role assignments govern them.
type InstitutionResolver interface {
	InstitutionForOffering(ctx context.Context, offeringID int64) (int64, error)
	InstitutionForEnrollment(ctx context.Context, enrollmentID int64) (int64, error)
}

// AuthorizationService answers capability questions about users.
type AuthorizationService struct {
	store    CapabilityStore
	resolver InstitutionResolver
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(store CapabilityStore, resolver InstitutionResolver) *AuthorizationService {
	return &AuthorizationService{
		store:    store,
		resolver: resolver,
	}
}

// HasCapability checks whether any of the user's roles at the institution
// grants the capability.
func (s *AuthorizationService) HasCapability(ctx context.Context, userID, institutionID int64, capability string) (bool, error) {
	caps, err := s.store.Capabilities(ctx, userID, institutionID)
	if err != nil {
		return false, err
	}
	for _, c := range caps {
		if c == capability {
			return true, nil
		}
	}
	return false, nil
}

// RequireCapability errors with the missing capability unless the user holds it.
func (s *AuthorizationService) RequireCapability(ctx context.Context, userID, institutionID int64, capability string) error {
	ok, err := s.HasCapability(ctx, userID, institutionID, capability)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbiddenError("missing capability " + capability)
	}
	return nil
}

// RequireOfferingCapability checks the capability at the institution that
// owns the offering's course.
func (s *AuthorizationService) RequireOfferingCapability(ctx context.Context, userID, offeringID int64, capability string) error {
	institutionID, err := s.resolver.InstitutionForOffering(ctx, offeringID)
	if err != nil {
		return err
	}
	return s.RequireCapability(ctx, userID, institutionID, capability)
}

// RequireEnrollmentCapability checks the capability at the institution that
// owns the enrollment's offering.
func (s *AuthorizationService) RequireEnrollmentCapability(ctx context.Context, userID, enrollmentID int64, capability string) error {
	institutionID, err := s.resolver.InstitutionForEnrollment(ctx, enrollmentID)
	if err != nil {
		return err
	}
	return s.RequireCapability(ctx, userID, institutionID, capability)
}

// RequireCapabilityAnywhere checks the capability across all of the user's
// role assignments. Used for operations without an institution scope, like
// reloading the risk model.
func (s *AuthorizationService) RequireCapabilityAnywhere(ctx context.Context, userID int64, capability string) error {
	ok, err := s.store.HasCapabilityAnywhere(ctx, userID, capability)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbiddenError("missing capability " + capability)
	}
	return nil
}

// CanActForStudent allows a user to act on their own enrollments, or on
// anyone's when they hold the management capability.
func (s *AuthorizationService) CanActForStudent(ctx context.Context, actorID, studentID, institutionID int64) (bool, error) {
	if actorID == studentID {
		return true, nil
	}
	return s.HasCapability(ctx, actorID, institutionID, CapManageEnrollment)
}

// CanActOnOffering reports whether the actor may change the student's
// enrollment state at the offering, resolving the governing institution
// through the offering's course.
func (s *AuthorizationService) CanActOnOffering(ctx context.Context, actorID, studentID, offeringID int64) (bool, error) {
	if actorID == studentID {
		return true, nil
	}
	institutionID, err := s.resolver.InstitutionForOffering(ctx, offeringID)
	if err != nil {
		return false, err
	}
	return s.CanActForStudent(ctx, actorID, studentID, institutionID)
}
