package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/storage/persistent"
)

const defaultFeedLimit = 5

// AddFriend adds the user found by id or email to userID's friend list.
func (r *Repository) AddFriend(ctx context.Context, userID, emailOrID string) (*models.FriendSummary, error) {
	emailOrID = strings.TrimSpace(emailOrID)
	if emailOrID == "" {
		return nil, ErrUserNotFound
	}

	target, err := r.GetUser(ctx, emailOrID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		if target, err = r.FindUserByEmail(ctx, emailOrID); err != nil {
			return nil, err
		}
	}
	if target == nil {
		return nil, ErrUserNotFound
	}
	if target.ID == userID {
		return nil, ErrSelfFriend
	}

	// Re-read the caller's list right before the set-add.
	current, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}
	if contains(current.Friends, target.ID) {
		return nil, ErrAlreadyFriends
	}
	if err := r.store.AddToSet(ctx, models.UsersCollection, userID, "friends", target.ID); err != nil {
		return nil, fmt.Errorf("failed to add friend: %w", err)
	}

	summary := friendSummary(*target)
	return &summary, nil
}

// ListFriends returns the details of every user in userID's friend list.
func (r *Repository) ListFriends(ctx context.Context, userID string) ([]models.FriendSummary, error) {
	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || len(user.Friends) == 0 {
		return []models.FriendSummary{}, nil
	}

	friends, err := r.usersByID(ctx, user.Friends)
	if err != nil {
		return nil, err
	}
	out := make([]models.FriendSummary, 0, len(friends))
	for _, id := range user.Friends {
		if f, ok := friends[id]; ok {
			out = append(out, friendSummary(f))
		}
	}
	return out, nil
}

// FriendsActivity returns the most recent workouts of userID's friends,
// newest first. Friend ids are queried in batches the in filter accepts.
func (r *Repository) FriendsActivity(ctx context.Context, userID string, limit int) ([]models.FriendActivity, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	limit = listLimit(limit, defaultFeedLimit)

	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || len(user.Friends) == 0 {
		return []models.FriendActivity{}, nil
	}

	var workouts []models.Workout
	for _, batch := range chunk(user.Friends, persistent.MaxInValues) {
		var page []models.Workout
		q := persistent.Query{Collection: models.WorkoutsCollection, OrderBy: "completedAt", Descending: true, Limit: limit}.
			Where("userId", persistent.OpIn, batch)
		if err := r.store.Query(ctx, q, &page); err != nil {
			return nil, fmt.Errorf("failed to load friends activity: %w", err)
		}
		workouts = append(workouts, page...)
	}
	sort.SliceStable(workouts, func(i, j int) bool { return workouts[i].CompletedAt > workouts[j].CompletedAt })
	if len(workouts) > limit {
		workouts = workouts[:limit]
	}

	authorIDs := make([]string, 0, len(workouts))
	for _, w := range workouts {
		if !contains(authorIDs, w.UserID) {
			authorIDs = append(authorIDs, w.UserID)
		}
	}
	authors, err := r.usersByID(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	feed := make([]models.FriendActivity, 0, len(workouts))
	for _, w := range workouts {
		name := "Unknown User"
		if a, ok := authors[w.UserID]; ok && a.DisplayName != "" {
			name = a.DisplayName
		}
		feed = append(feed, models.FriendActivity{Workout: w, DisplayName: name})
	}
	return feed, nil
}

// Leaderboard ranks users by total workouts, 10 by default.
func (r *Repository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	q := persistent.Query{
		Collection: models.UsersCollection,
		OrderBy:    "stats.totalWorkouts",
		Descending: true,
		Limit:      listLimit(limit, defaultLeaderboard),
	}
	var users []models.User
	if err := r.store.Query(ctx, q, &users); err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		name := u.DisplayName
		if name == "" {
			name = "Anonymous User"
		}
		entries = append(entries, models.LeaderboardEntry{
			Rank:          i + 1,
			UserID:        u.ID,
			DisplayName:   name,
			TotalWorkouts: u.Stats.TotalWorkouts,
			TotalCalories: u.Stats.TotalCalories,
			CurrentStreak: u.Stats.CurrentStreak,
		})
	}
	return entries, nil
}

func (r *Repository) usersByID(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	for _, batch := range chunk(ids, persistent.MaxInValues) {
		var users []models.User
		q := persistent.Query{Collection: models.UsersCollection}.Where(persistent.FieldID, persistent.OpIn, batch)
		if err := r.store.Query(ctx, q, &users); err != nil {
			return nil, fmt.Errorf("failed to load users: %w", err)
		}
		for _, u := range users {
			out[u.ID] = u
		}
	}
	return out, nil
}

func friendSummary(u models.User) models.FriendSummary {
	name := u.DisplayName
	if name == "" {
		name = "Unknown User"
	}
	return models.FriendSummary{
		ID:            u.ID,
		DisplayName:   name,
		PhotoURL:      u.PhotoURL,
		TotalWorkouts: u.Stats.TotalWorkouts,
		CurrentStreak: u.Stats.CurrentStreak,
	}
}

// chunk splits ids into consecutive batches of at most size elements.
func chunk(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
