package service

import (
	"time"

	"worktracker/internal/model"
)

// transitionKey keys the milestone status cycle on the pair that actually
// decides it: the current status and whether any schedule references the
// milestone.
type transitionKey struct {
	status       string
	hasSchedules bool
}

// statusCycle is the full transition table. Milestones with at least one
// linked schedule never pass through pending: they are already underway, so
// completed cycles back to in_progress instead.
var statusCycle = map[transitionKey]string{
	{model.MilestonePending, false}:       model.MilestoneInProgress,
	{model.MilestoneInProgress, false}:    model.MilestoneReviewPending,
	{model.MilestoneReviewPending, false}: model.MilestoneCompleted,
	{model.MilestoneCompleted, false}:     model.MilestonePending,

	{model.MilestonePending, true}:       model.MilestoneInProgress,
	{model.MilestoneInProgress, true}:    model.MilestoneReviewPending,
	{model.MilestoneReviewPending, true}: model.MilestoneCompleted,
	{model.MilestoneCompleted, true}:     model.MilestoneInProgress,
}

// NextStatus returns the status a toggle moves the milestone to.
func NextStatus(current string, hasSchedules bool) (string, error) {
	next, ok := statusCycle[transitionKey{current, hasSchedules}]
	if !ok {
		return "", model.Validationf("unknown milestone status %q", current)
	}
	return next, nil
}

// AdvanceMilestone applies one status toggle to the milestone in place.
// Entering completed requires review_completed and stamps completed_at;
// leaving completed clears it.
func AdvanceMilestone(m *model.Milestone, hasSchedules bool, now time.Time) error {
	next, err := NextStatus(m.Status, hasSchedules)
	if err != nil {
		return err
	}

	if next == model.MilestoneCompleted && !m.ReviewCompleted {
		return model.Conflictf("milestone %d cannot complete before review", m.ID)
	}

	m.Status = next
	if next == model.MilestoneCompleted {
		t := now
		m.CompletedAt = &t
	} else {
		m.CompletedAt = nil
	}
	return nil
}
