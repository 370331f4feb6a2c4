package services

import "github.com/worknest/worknest/internal/logger"

// bestEffort runs a side effect (notification, activity log, cache
// bookkeeping) whose failure must never abort or roll back the primary
// mutation: errors are logged through the service logger and swallowed.
func bestEffort(log *logger.Logger, op string, fn func() error) {
	if err := fn(); err != nil {
		log.Warn("best-effort %s failed: %v", op, err)
	}
}
