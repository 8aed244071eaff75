package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const checkTimeout = 3 * time.Second

// Checker probes one dependency. A nil Check means the dependency is disabled.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthService struct {
	log      *zap.Logger
	checkers []Checker
}

func NewHealthService(log *zap.Logger, checkers ...Checker) *HealthService {
	return &HealthService{
		log:      log,
		checkers: checkers,
	}
}

// Ready probes every dependency and returns "ok" or the error text per name.
func (s *HealthService) Ready(ctx context.Context) (map[string]string, bool) {
	s.log.Debug("HealthService.Ready()")

	report := make(map[string]string, len(s.checkers))
	ready := true

	for _, c := range s.checkers {
		if c.Check == nil {
			report[c.Name] = "disabled"
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.Check(checkCtx)
		cancel()

		if err != nil {
			s.log.Warn("Dependency is not ready", zap.String("dependency", c.Name), zap.Error(err))
			report[c.Name] = err.Error()
			ready = false

			continue
		}

		report[c.Name] = "ok"
	}

	return report, ready
}
