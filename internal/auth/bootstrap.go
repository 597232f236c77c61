package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/peermart/peermart/internal/ledger"
	"github.com/peermart/peermart/internal/market"
)

// EnsureArbiter creates the arbiter account from configuration if it does
// not exist yet and returns its user id. The id becomes the process-wide
// arbiter identity injected into the escrow engine; there is no rotation.
func EnsureArbiter(ctx context.Context, store ledger.Store, name, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("arbiter email and password must be configured")
	}

	if u, err := store.UserByEmail(ctx, email); err == nil {
		if u.Role != "arbiter" {
			return "", fmt.Errorf("user %s exists but is not the arbiter", email)
		}
		return u.ID, nil
	} else if !errors.Is(err, market.ErrNotFound) {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	u := &market.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Password:  string(hashed),
		Role:      "arbiter",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateUser(ctx, u); err != nil {
		return "", err
	}
	return u.ID, nil
}
