package ports

import "context"

// SecretSource resolves a secret identifier to its token.
type SecretSource interface {
	Get(ctx context.Context, key string) (string, error)
}

// SecretStore is a SecretSource that can also keep tokens for later
// sessions.
type SecretStore interface {
	SecretSource
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
