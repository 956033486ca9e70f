package services

// AdmissionDecision is the outcome of an enrollment request.
type AdmissionDecision string

const (
	DecisionEnrolled   AdmissionDecision = "enrolled"
	DecisionWaitlisted AdmissionDecision = "waitlisted"
	DecisionRejected   AdmissionDecision = "rejected"
)

// AdmissionInput is the state an admission decision is taken over. All of it
// is read under the offering's lock so the decision and its commit form one
// atomic unit with respect to concurrent requests on the same offering.
type AdmissionInput struct {
	Capacity             int
	EnrolledCount        int
	PrerequisiteIDs      []int64
	CompletedCourseIDs   map[int64]bool
	GateWaitlistByPrereq bool
}

// decideAdmission applies the admission rules in order: capacity first, then
// prerequisites. A full offering routes to the waitlist without a prerequisite
// check unless the waitlist gate is configured on. Returns the decision and,
// for rejections, the unmet prerequisite course IDs.
func decideAdmission(in AdmissionInput) (AdmissionDecision, []int64) {
	atCapacity := in.EnrolledCount >= in.Capacity

	if atCapacity && !in.GateWaitlistByPrereq {
		return DecisionWaitlisted, nil
	}

	if missing := unmetPrerequisites(in.PrerequisiteIDs, in.CompletedCourseIDs); len(missing) > 0 {
		return DecisionRejected, missing
	}

	if atCapacity {
		return DecisionWaitlisted, nil
	}
	return DecisionEnrolled, nil
}

// unmetPrerequisites returns the prerequisite course IDs the student has not
// completed with a passing grade.
func unmetPrerequisites(prerequisiteIDs []int64, completed map[int64]bool) []int64 {
	var missing []int64
	for _, id := range prerequisiteIDs {
		if !completed[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
