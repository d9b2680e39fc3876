package medicines

import "context"

type Repository interface {
	Create(ctx context.Context, m Medicine) error
	Update(ctx context.Context, m Medicine) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Medicine, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Medicine, error)

	// FindByTime devuelve todas las medicinas cuyo time es exactamente hhmm.
	FindByTime(ctx context.Context, hhmm string) ([]Medicine, error)
}
