package storage

import "context"

type contextKey string

const managerKey contextKey = "storageManager"

// WithManager 将 Manager 存储到 context 中.
func WithManager(ctx context.Context, mgr *Manager) context.Context {
	return context.WithValue(ctx, managerKey, mgr)
}

// GetManagerFromContext 从 context 中获取 Manager.
func GetManagerFromContext(ctx context.Context) *Manager {
	if mgr, ok := ctx.Value(managerKey).(*Manager); ok {
		return mgr
	}

	return nil
}
