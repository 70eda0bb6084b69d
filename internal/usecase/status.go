package usecase

import "github.com/Feel-The-AGI/workstream-server/internal/domain/model"

// releaseOnRejection controls whether a rejected application returns its slot
// to the program pool. A submitted seat stays consumed for the review cycle.
const releaseOnRejection = false

// applicationGraph holds the allowed lifecycle edges. Review states only move
// forward; ACCEPTED and REJECTED are mutually exclusive terminal siblings and
// ENROLLED confirms an accepted hire.
var applicationGraph = map[model.ApplicationStatus][]model.ApplicationStatus{
	model.ApplicationStatusDraft: {
		model.ApplicationStatusSubmitted,
		model.ApplicationStatusCancelled,
	},
	model.ApplicationStatusSubmitted: {
		model.ApplicationStatusUnderReview,
		model.ApplicationStatusCancelled,
	},
	model.ApplicationStatusUnderReview: {
		model.ApplicationStatusShortlisted,
		model.ApplicationStatusInterviewScheduled,
		model.ApplicationStatusAccepted,
		model.ApplicationStatusRejected,
	},
	model.ApplicationStatusShortlisted: {
		model.ApplicationStatusInterviewScheduled,
		model.ApplicationStatusAccepted,
		model.ApplicationStatusRejected,
	},
	model.ApplicationStatusInterviewScheduled: {
		model.ApplicationStatusAccepted,
		model.ApplicationStatusRejected,
	},
	model.ApplicationStatusAccepted: {
		model.ApplicationStatusEnrolled,
	},
}

// CanTransition reports whether from to to is an allowed lifecycle edge.
func CanTransition(from, to model.ApplicationStatus) bool {
	for _, next := range applicationGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

var reviewTargets = map[model.ApplicationStatus]bool{
	model.ApplicationStatusUnderReview:        true,
	model.ApplicationStatusShortlisted:        true,
	model.ApplicationStatusInterviewScheduled: true,
	model.ApplicationStatusAccepted:           true,
	model.ApplicationStatusRejected:           true,
	model.ApplicationStatusEnrolled:           true,
}

// ReviewTarget reports whether the status may only be set by a reviewer.
func ReviewTarget(status model.ApplicationStatus) bool {
	return reviewTargets[status]
}

// transitionReleasesSlot reports whether the edge into to returns the
// reserved slot to the program pool.
func transitionReleasesSlot(to model.ApplicationStatus) bool {
	switch to {
	case model.ApplicationStatusCancelled:
		return true
	case model.ApplicationStatusRejected:
		return releaseOnRejection
	default:
		return false
	}
}
