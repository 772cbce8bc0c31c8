package domain

import "context"

// Source loads the three input relations.
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
}
