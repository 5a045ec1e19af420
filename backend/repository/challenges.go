package repository

import (
	"context"
	"fmt"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/storage/persistent"
	"github.com/jghoshh/getfit/backend/validation"
)

// CreateChallenge stores a new challenge with its creator already enrolled.
func (r *Repository) CreateChallenge(ctx context.Context, ownerID string, in models.ChallengeInput) (*models.Challenge, error) {
	in, err := validation.Challenge(in)
	if err != nil {
		return nil, err
	}

	challenge := models.Challenge{
		ID:           r.store.NewID(models.ChallengesCollection),
		Name:         in.Name,
		Description:  in.Description,
		Participants: []string{ownerID},
		DaysLeft:     in.DaysLeft,
		Progress:     0,
		CreatedBy:    ownerID,
		CreatedAt:    r.nowMillis(),
	}
	if err := r.store.Set(ctx, models.ChallengesCollection, challenge.ID, challenge); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return &challenge, nil
}

func (r *Repository) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	return getOne[models.Challenge](ctx, r, models.ChallengesCollection, id)
}

// ListChallenges returns the newest challenges, 20 by default.
func (r *Repository) ListChallenges(ctx context.Context, limit int) ([]models.Challenge, error) {
	q := persistent.Query{
		Collection: models.ChallengesCollection,
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      listLimit(limit, defaultChallengeLimit),
	}
	var challenges []models.Challenge
	if err := r.store.Query(ctx, q, &challenges); err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}

// JoinChallenge enrolls userID. Joining twice is a no-op: membership is
// re-read right before the store's atomic set-add.
func (r *Repository) JoinChallenge(ctx context.Context, userID, challengeID string) (*models.Challenge, error) {
	challenge, err := r.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrNotFound
	}
	if contains(challenge.Participants, userID) {
		return challenge, nil
	}

	if err := r.store.AddToSet(ctx, models.ChallengesCollection, challengeID, "participants", userID); err != nil {
		return nil, fmt.Errorf("failed to join challenge: %w", err)
	}
	challenge.Participants = append(challenge.Participants, userID)
	return challenge, nil
}

// UpdateChallengeProgress sets the progress percentage. Only participants may
// report progress.
func (r *Repository) UpdateChallengeProgress(ctx context.Context, userID, challengeID string, progress int) (*models.Challenge, error) {
	if err := validation.ChallengeProgress(progress); err != nil {
		return nil, err
	}
	challenge, err := r.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrNotFound
	}
	if !contains(challenge.Participants, userID) {
		return nil, ErrForbidden
	}

	if err := r.store.Update(ctx, models.ChallengesCollection, challengeID, map[string]interface{}{"progress": progress}); err != nil {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}
	challenge.Progress = progress
	return challenge, nil
}

// DeleteChallenge removes a challenge. Only its creator may delete it.
func (r *Repository) DeleteChallenge(ctx context.Context, userID, challengeID string) error {
	_, err := getOwned(ctx, r, models.ChallengesCollection, challengeID, userID, func(c *models.Challenge) string { return c.CreatedBy })
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, models.ChallengesCollection, challengeID); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}
