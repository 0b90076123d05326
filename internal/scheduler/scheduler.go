package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"RiskSentinel/internal/logger"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/notifier"
	"RiskSentinel/internal/pipeline"
)

// Sender delivers formatted messages. *notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries uint64) error
}

// Scheduler recomputes VaR for the configured symbols on a cron schedule.
type Scheduler struct {
	Cron         *cron.Cron
	Engine       *pipeline.Engine
	Notifier     Sender
	Symbols      []string
	LookbackDays int
	Ctx          context.Context
	// Now is the clock used for the rolling window.
	Now func() time.Time

	log *logrus.Entry
}

// NewScheduler creates a new Scheduler. tn may be nil to disable notifications.
func NewScheduler(ctx context.Context, engine *pipeline.Engine, tn Sender, symbols []string, lookbackDays int) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Engine:       engine,
		Notifier:     tn,
		Symbols:      symbols,
		LookbackDays: lookbackDays,
		Ctx:          ctx,
		Now:          time.Now,
		log:          logger.WithComponent("scheduler"),
	}
}

// Register adds the VaR recomputation task.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.varTask); err != nil {
		return fmt.Errorf("register var task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes the VaR task immediately and returns its outcomes.
func (s *Scheduler) RunNow() []pipeline.Outcome {
	return s.runBatch()
}

// Window returns the rolling [start, end] range ending today.
func (s *Scheduler) Window() (start, end time.Time) {
	now := s.Now().UTC()
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -s.LookbackDays), end
}

func (s *Scheduler) varTask() {
	s.runBatch()
}

func (s *Scheduler) runBatch() []pipeline.Outcome {
	start, end := s.Window()
	s.log.WithFields(logrus.Fields{
		"symbols": len(s.Symbols),
		"start":   start.Format("2006-01-02"),
		"end":     end.Format("2006-01-02"),
	}).Info("running var task")

	outcomes := s.Engine.RunAll(s.Ctx, s.Symbols, start, end)
	for _, o := range outcomes {
		if o.Err != nil {
			s.log.WithError(o.Err).WithField("symbol", o.Symbol).Error("var task failed for symbol")
		}
	}
	s.trySend(notifier.FormatBatchSummary(outcomes, s.Now()))
	return outcomes
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch fields[0] {
	case "/var":
		if len(fields) < 2 {
			return "Usage: /var SYMBOL"
		}
		symbol := strings.ToUpper(fields[1])
		start, end := s.Window()
		report, err := s.Engine.Run(ctx, symbol, start, end)
		if err != nil {
			return fmt.Sprintf("❌ VaR %s failed: %s", html.EscapeString(symbol), describe(err))
		}
		return notifier.FormatVaRReport(report)
	default:
		return notifier.FormatHelp()
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, model.ErrDataUnavailable):
		return "price data unavailable"
	case errors.Is(err, model.ErrInsufficientData):
		return "not enough price history"
	default:
		return html.EscapeString(err.Error())
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}
