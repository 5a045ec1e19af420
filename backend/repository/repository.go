// Package repository implements the typed per-entity operations of the
// fitness data model on top of a persistent.DocumentStore.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jghoshh/getfit/backend/storage/persistent"
	"github.com/jghoshh/getfit/lib/utils"
)

// Error codes carried by *Error.
const (
	CodeNotFound  = "not_found"
	CodeForbidden = "forbidden"
	CodeInvalid   = "invalid"
)

// Error is a domain failure that is safe to show to the user.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string       { return e.Message }
func (e *Error) UserMessage() string { return e.Message }

var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "The requested record was not found."}
	ErrForbidden      = &Error{Code: CodeForbidden, Message: "You do not have permission to change this record."}
	ErrUserNotFound   = &Error{Code: CodeNotFound, Message: "No user matches that email or id."}
	ErrSelfFriend     = &Error{Code: CodeInvalid, Message: "You cannot add yourself as a friend."}
	ErrAlreadyFriends = &Error{Code: CodeInvalid, Message: "You are already friends with this user."}
)

const (
	defaultListLimit      = 50
	maxListLimit          = 100
	defaultChallengeLimit = 20
	defaultLeaderboard    = 10
	maxNotifiableUsers    = 1000
)

// Repository is the entry point for every read and write of user data.
type Repository struct {
	store persistent.DocumentStore
	now   func() time.Time
}

func New(store persistent.DocumentStore) *Repository {
	return &Repository{store: store, now: time.Now}
}

// WithClock replaces the time source used for timestamps and "today".
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

func (r *Repository) nowMillis() int64 {
	return r.now().UnixMilli()
}

// Today is the current UTC calendar date.
func (r *Repository) Today() string {
	return utils.DateString(r.now())
}

func listLimit(requested, fallback int) int {
	switch {
	case requested <= 0:
		return fallback
	case requested > maxListLimit:
		return maxListLimit
	}
	return requested
}

// getOwned loads a document and checks that owner may modify it.
func getOwned[T any](ctx context.Context, r *Repository, collection, id, owner string, ownerOf func(*T) string) (*T, error) {
	var doc T
	found, err := r.store.Get(ctx, collection, id, &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	if ownerOf(&doc) != owner {
		return nil, ErrForbidden
	}
	return &doc, nil
}

// getOne loads a document, returning nil when it does not exist.
func getOne[T any](ctx context.Context, r *Repository, collection, id string) (*T, error) {
	var doc T
	found, err := r.store.Get(ctx, collection, id, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	if !found {
		return nil, nil
	}
	return &doc, nil
}

// ownerQuery selects a user's documents, optionally narrowed by a date or
// date range on the string field dateField. Results are newest first by
// dateField, with thenBy ordering documents of the same day.
func ownerQuery(collection, owner, dateField, thenBy string, opts dateRange) persistent.Query {
	q := persistent.Query{Collection: collection, OrderBy: dateField, ThenBy: thenBy, Descending: true}.
		Where("userId", persistent.OpEqual, owner)
	switch {
	case opts.date != "":
		q = q.Where(dateField, persistent.OpEqual, opts.date)
	default:
		if opts.start != "" {
			q = q.Where(dateField, persistent.OpGreaterOrEqual, opts.start)
		}
		if opts.end != "" {
			q = q.Where(dateField, persistent.OpLessOrEqual, opts.end)
		}
	}
	return q
}

type dateRange struct {
	date, start, end string
}

func rangeOf(date, start, end string) dateRange {
	return dateRange{date: date, start: start, end: end}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
