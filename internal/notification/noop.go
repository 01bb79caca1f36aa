package notification

import "context"

// noopService discards everything. Used by deployments that run without a
// notification backend; the journey engine works identically either way.
type noopService struct{}

func NewNoopService() Service {
	return noopService{}
}

func (noopService) Create(ctx context.Context, n *Notification) error { return nil }

func (noopService) ListByUser(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	return nil, nil
}

func (noopService) MarkRead(ctx context.Context, id string) error { return nil }
