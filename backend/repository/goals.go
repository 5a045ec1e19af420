package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/storage/persistent"
	"github.com/jghoshh/getfit/backend/validation"
)

func (r *Repository) CreateGoal(ctx context.Context, ownerID string, in models.GoalInput) (*models.Goal, error) {
	in, err := validation.Goal(in)
	if err != nil {
		return nil, err
	}

	now := r.nowMillis()
	goal := models.Goal{
		ID:          r.store.NewID(models.GoalsCollection),
		UserID:      ownerID,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		TargetValue: in.TargetValue,
		Status:      models.GoalActive,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.store.Set(ctx, models.GoalsCollection, goal.ID, goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return &goal, nil
}

// ListActiveGoals returns the owner's goals whose status is active, newest first.
func (r *Repository) ListActiveGoals(ctx context.Context, ownerID string) ([]models.Goal, error) {
	q := persistent.Query{Collection: models.GoalsCollection, OrderBy: "createdAt", Descending: true, Limit: defaultListLimit}.
		Where("userId", persistent.OpEqual, ownerID).
		Where("status", persistent.OpEqual, models.GoalActive)

	var goals []models.Goal
	if err := r.store.Query(ctx, q, &goals); err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

func (r *Repository) UpdateGoal(ctx context.Context, ownerID, id string, patch models.GoalUpdate) (*models.Goal, error) {
	patch, err := validation.GoalPatch(patch)
	if err != nil {
		return nil, err
	}
	goal, err := getOwned(ctx, r, models.GoalsCollection, id, ownerID, func(g *models.Goal) string { return g.UserID })
	if err != nil {
		return nil, err
	}

	goal.UpdatedAt = r.nowMillis()
	fields := map[string]interface{}{"updatedAt": goal.UpdatedAt}
	if patch.Title != nil {
		fields["title"], goal.Title = *patch.Title, *patch.Title
	}
	if patch.Description != nil {
		fields["description"], goal.Description = *patch.Description, *patch.Description
	}
	if patch.TargetValue != nil {
		fields["targetValue"], goal.TargetValue = *patch.TargetValue, *patch.TargetValue
	}
	if patch.CurrentValue != nil {
		fields["currentValue"], goal.CurrentValue = *patch.CurrentValue, *patch.CurrentValue
	}
	if patch.Status != nil {
		fields["status"], goal.Status = *patch.Status, *patch.Status
	}
	if patch.EndDate != nil {
		fields["endDate"], goal.EndDate = *patch.EndDate, *patch.EndDate
	}

	if err := r.store.Update(ctx, models.GoalsCollection, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return goal, nil
}

// AddGoalProgress adds amount to the goal's current value and marks the goal
// completed once the target is reached.
func (r *Repository) AddGoalProgress(ctx context.Context, ownerID, id string, amount float64) (*models.Goal, error) {
	if err := validation.GoalIncrement(amount); err != nil {
		return nil, err
	}
	goal, err := getOwned(ctx, r, models.GoalsCollection, id, ownerID, func(g *models.Goal) string { return g.UserID })
	if err != nil {
		return nil, err
	}

	if err := r.store.Increment(ctx, models.GoalsCollection, id, map[string]interface{}{"currentValue": amount}); err != nil {
		return nil, fmt.Errorf("failed to update goal progress: %w", err)
	}
	goal.CurrentValue += amount

	// The amount is applied at this point, so a failed status write is only
	// logged and the goal keeps its stored status.
	now := r.nowMillis()
	fields := map[string]interface{}{"updatedAt": now}
	status := goal.Status
	if status == models.GoalActive && goal.CurrentValue >= goal.TargetValue {
		status = models.GoalCompleted
		fields["status"] = status
	}
	if err := r.store.Update(ctx, models.GoalsCollection, id, fields); err != nil {
		log.Printf("goal %s progress stored but status update for user %s failed: %v", id, ownerID, err)
		return goal, nil
	}
	goal.Status = status
	goal.UpdatedAt = now
	return goal, nil
}

func (r *Repository) DeleteGoal(ctx context.Context, ownerID, id string) error {
	_, err := getOwned(ctx, r, models.GoalsCollection, id, ownerID, func(g *models.Goal) string { return g.UserID })
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, models.GoalsCollection, id); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}
