package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ErrKeyringUnavailable is returned when the OS keyring cannot be reached.
var ErrKeyringUnavailable = errors.New("session: OS keyring is not available")

// Keyring stores the session as a single JSON secret in the OS keyring, so
// the three keys always change together.
type Keyring struct {
	service string
	user    string
}

// NewKeyring returns a keyring backend under the given service name.
func NewKeyring(service, user string) *Keyring {
	return &Keyring{service: service, user: user}
}

func (k *Keyring) Load(context.Context) (map[string]string, error) {
	secret, err := keyring.Get(k.service, k.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}

	values := map[string]string{}
	if err := json.Unmarshal([]byte(secret), &values); err != nil {
		return nil, fmt.Errorf("decoding keyring session: %w", err)
	}
	return values, nil
}

func (k *Keyring) Save(_ context.Context, values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding keyring session: %w", err)
	}
	if err := keyring.Set(k.service, k.user, string(data)); err != nil {
		return fmt.Errorf("failed to store session in keyring: %w", err)
	}
	return nil
}

func (k *Keyring) Clear(context.Context) error {
	err := keyring.Delete(k.service, k.user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete session from keyring: %w", err)
	}
	return nil
}

func (k *Keyring) Close() error { return nil }
