package hooks

import (
	"context"

	"github.com/jghoshh/getfit/backend/models"
)

type UserSource interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, patch models.UserUpdate) (*models.User, error)
	WatchUser(ctx context.Context, userID string, onChange func(*models.User), onError func(error)) (func(), error)
}

// User binds the owner's profile through a subscription rather than a one
// off fetch. Data is nil when the profile does not exist.
type User struct {
	*resource[*models.User]
	src  UserSource
	stop func()
}

func NewUser(src UserSource) *User {
	return &User{src: src, resource: newResource[*models.User](nil)}
}

// SetOwner subscribes to the owner's profile, replacing any previous
// subscription.
func (h *User) SetOwner(ctx context.Context, owner string) error {
	h.mu.Lock()
	if h.closed || (owner == h.owner && owner != "") {
		h.mu.Unlock()
		return nil
	}
	h.stopLocked()
	h.owner = owner
	h.state.Data = nil
	if owner == "" {
		h.state.Loading = false
		h.mu.Unlock()
		return nil
	}
	h.gen++
	gen := h.gen
	h.mu.Unlock()

	stop, err := h.src.WatchUser(ctx, owner,
		func(u *models.User) { h.push(gen, u, nil) },
		func(err error) { h.push(gen, nil, err) },
	)
	if err != nil {
		h.push(gen, nil, err)
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.gen != gen {
		stop()
		return nil
	}
	h.stop = stop
	return nil
}

// Refresh reads the profile once, outside the subscription.
func (h *User) Refresh(ctx context.Context) error {
	h.mu.Lock()
	owner, gen := h.owner, h.gen
	h.mu.Unlock()
	if owner == "" {
		return nil
	}
	u, err := h.src.GetUser(ctx, owner)
	h.push(gen, u, err)
	return err
}

func (h *User) Update(ctx context.Context, patch models.UserUpdate) (*models.User, error) {
	return mutate(ctx, h.resource, func(ctx context.Context, owner string) (*models.User, error) {
		return h.src.UpdateUser(ctx, owner, patch)
	}, func(_ *models.User, u *models.User) *models.User {
		return u
	})
}

// Close ends the subscription.
func (h *User) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.stopLocked()
}

func (h *User) stopLocked() {
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

func (h *User) push(gen uint64, u *models.User, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.gen != gen {
		return
	}
	h.state.Loading = false
	if err != nil {
		h.state.Error = message(err)
		return
	}
	h.state.Data = u
	h.state.Error = ""
}
