package services

import (
	"context"
	"sync"
	"time"

	"github.com/copper-mobile/app-api/internal/logging"
	"go.uber.org/zap"
)

// ExpirySweeper removes expired pending verification records
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// OTPSweeper runs the expiry sweep on a fixed interval until stopped
type OTPSweeper struct {
	sweeper  ExpirySweeper
	interval time.Duration
	logger   *logging.SafeLogger
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewOTPSweeper creates a sweeper. A non-positive interval disables it.
func NewOTPSweeper(sweeper ExpirySweeper, interval time.Duration, logger *logging.SafeLogger) *OTPSweeper {
	return &OTPSweeper{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger.With(zap.String("component", "otp_sweeper")),
	}
}

// Start launches the sweep loop. It returns immediately.
func (s *OTPSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interval <= 0 {
		s.logger.Info("periodic otp sweep disabled")
		return
	}
	if s.done != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)

	s.logger.Info("periodic otp sweep started", zap.Duration("interval", s.interval))
}

func (s *OTPSweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *OTPSweeper) sweepOnce(ctx context.Context) {
	deleted, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("periodic otp sweep failed", zap.Error(err))
		}
		return
	}
	if deleted > 0 {
		s.logger.Info("expired otp records swept", zap.Int64("deleted", deleted))
	}
}

// Stop cancels the loop and waits for it to exit
func (s *OTPSweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
