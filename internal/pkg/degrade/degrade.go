// Package degrade implements the read-path policy: when the storage backend
// is unavailable a listing returns an empty result and logs a warning
// instead of failing the request.
package degrade

import (
	"errors"

	"bloodconnect/internal/domain"

	"go.uber.org/zap"
)

func List[T any](log *zap.Logger, op string, items []T, err error) ([]T, error) {
	if err == nil {
		if items == nil {
			items = []T{}
		}
		return items, nil
	}
	if errors.Is(err, domain.ErrBackendUnavailable) {
		log.Warn("backend unavailable, degraded to empty result",
			zap.String("op", op),
			zap.Error(err),
		)
		return []T{}, nil
	}
	return nil, err
}

// Count is List for scalar counters.
func Count(log *zap.Logger, op string, n int64, err error) (int64, error) {
	if err == nil {
		return n, nil
	}
	if errors.Is(err, domain.ErrBackendUnavailable) {
		log.Warn("backend unavailable, degraded to zero",
			zap.String("op", op),
			zap.Error(err),
		)
		return 0, nil
	}
	return 0, err
}
