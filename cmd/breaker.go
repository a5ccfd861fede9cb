package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/secondbrain/internal/resilience"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// BreakerStatus prints the server's auth circuit breaker.
func (r *Runner) BreakerStatus(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.api.Get(ctx, "/api/auth/breaker")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return r.writeBreaker(resp.Decode, checkResponse(resp, shared.ErrAPIRequest))
}

// BreakerReset forces the server's auth circuit breaker closed.
func (r *Runner) BreakerReset(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.api.Post(ctx, "/api/auth/breaker/reset", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	r.logger.Info("breaker reset requested")
	return r.writeBreaker(resp.Decode, checkResponse(resp, shared.ErrAPIRequest))
}

func (r *Runner) writeBreaker(decode func(any) error, status error) error {
	if status != nil {
		return status
	}
	var s resilience.StatusJSON
	if err := decode(&s); err != nil {
		return err
	}

	r.writePlainHeader("Auth Circuit Breaker")
	r.writePlain("State:     %s\n", s.State)
	r.writePlain("Failures:  %d/%d\n", s.Failures, s.Threshold)
	if s.LastFailure != nil {
		r.writePlain("Last fail: %s\n", s.LastFailure.Local().Format(time.DateTime))
	}
	if s.State == resilience.StateOpen {
		r.writePlain("Resets in: %s\n", time.Duration(s.TimeUntilResetMS)*time.Millisecond)
	}
	return nil
}
