package domain

import "context"

// StatePrefix namespaces every durable key written by the application
const StatePrefix = "eduplatform_"

const (
	AuthStateName        = "auth-storage"
	PreferencesStateName = "ui-storage"
)

// StateKey returns the namespaced durable key for name
func StateKey(name string) string {
	return StatePrefix + name
}

// StateStore is the durable client storage port.
// Load returns ErrStateNotFound when nothing is stored under key.
type StateStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
