package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/repository"
)

const (
	fallbackDisplayName = "User"
	fallbackEmail       = "noemail@example.com"
)

// IDFunc produces a candidate record id.
type IDFunc func() string

// createWithFreshID calls create with an id from each generator in turn until one
// succeeds. It returns the id that was used, or the last error.
func createWithFreshID(ctx context.Context, ids []IDFunc, create func(ctx context.Context, id string) error) (string, error) {
	if len(ids) == 0 {
		return "", errors.New("no id generators provided")
	}
	var lastErr error
	for attempt, next := range ids {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := next()
		if lastErr = create(ctx, id); lastErr == nil {
			return id, nil
		}
		slog.Warn("Create attempt failed.", "id", id, "attempt", attempt+1, "error", lastErr)
	}
	return "", lastErr
}

// createOnFreeID is the collision-only variant of createWithFreshID: it moves to the next
// id only while create reports repository.ErrAlreadyExists. Any other error is returned
// at once.
func createOnFreeID(ctx context.Context, ids []IDFunc, create func(ctx context.Context, id string) error) (string, error) {
	if len(ids) == 0 {
		return "", errors.New("no id generators provided")
	}
	var lastErr error
	for _, next := range ids {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := next()
		lastErr = create(ctx, id)
		if lastErr == nil {
			return id, nil
		}
		if !errors.Is(lastErr, repository.ErrAlreadyExists) {
			return "", lastErr
		}
		slog.Warn("Record id already taken, retrying with a fresh id.", "id", id)
	}
	return "", lastErr
}

// timestampIDs returns the ids tried for a new record: prefix_<millis>, then the same with
// a random suffix.
func (p *Pipeline) timestampIDs(prefix string) []IDFunc {
	return []IDFunc{
		func() string { return fmt.Sprintf("%s_%d", prefix, p.millis()) },
		func() string { return fmt.Sprintf("%s_%d_%s", prefix, p.millis(), p.suffix()) },
	}
}

// EnsureUser creates the user record on first use. Failures are logged and ignored; a
// concurrent run may already have created it.
func (p *Pipeline) EnsureUser(ctx context.Context, principal models.Principal) {
	existing, err := p.store.FindUser(ctx, principal.ID)
	if err != nil {
		slog.Warn("User lookup failed, continuing.", "userId", principal.ID, "error", err)
		return
	}
	if existing != nil {
		return
	}

	displayName := principal.DisplayName
	if displayName == "" {
		displayName = principal.Email
	}
	if displayName == "" {
		displayName = fallbackDisplayName
	}
	email := principal.Email
	if email == "" {
		email = fallbackEmail
	}
	now := p.now()
	user := &models.User{
		ID:          principal.ID,
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.store.CreateUser(ctx, user); err != nil {
		slog.Warn("User creation failed, continuing.", "userId", principal.ID, "error", err)
		return
	}
	slog.Info("Created user.", "userId", principal.ID)
}

// EnsureClient reuses the principal's client matched by email, or creates one. Creation
// is attempted twice: with a timestamp id, then with a timestamp and random suffix.
func (p *Pipeline) EnsureClient(ctx context.Context, principal models.Principal, address string) (*models.Client, error) {
	email := principal.Email
	if email == "" {
		email = fallbackEmail
	}

	existing, err := p.store.FindClient(ctx, principal.ID, email)
	if err != nil {
		slog.Warn("Client lookup failed, creating a new client.", "userId", principal.ID, "error", err)
	} else if existing != nil {
		return existing, nil
	}

	name := principal.DisplayName
	if name == "" {
		name = principal.Email
	}
	if name == "" {
		name = "Default Client"
	}
	client := &models.Client{
		UserID:  principal.ID,
		Name:    name,
		Email:   email,
		Address: address,
		Notes:   "Auto-created client for property listing",
	}

	id, err := createWithFreshID(ctx, p.timestampIDs("client"), func(ctx context.Context, id string) error {
		client.ID = id
		client.CreatedAt = p.now()
		return p.store.CreateClient(ctx, client)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: client for user %s: %w", ErrResourceCreation, principal.ID, err)
	}
	client.ID = id
	slog.Info("Created client.", "userId", principal.ID, "clientId", id)
	return client, nil
}
