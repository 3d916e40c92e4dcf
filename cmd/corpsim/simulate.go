package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/fangligamedev/AgentLinkin/internal/director"
	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/fangligamedev/AgentLinkin/internal/session"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	company  string
	quarter  int
	phase    time.Duration
	delay    time.Duration
	deadline time.Duration
}

func newSimulateCmd() *cobra.Command {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one boardroom meeting with substitutes in every seat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applySimulateOptions(cfg, opts)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSimulation(cmd.Context(), setupDI(cfg), opts)
		},
	}
	cmd.Flags().StringVar(&opts.company, "company", "Acme Corp", "Company name")
	cmd.Flags().IntVar(&opts.quarter, "quarter", 1, "Quarter to play")
	cmd.Flags().DurationVar(&opts.phase, "phase", 3*time.Second, "Length of every phase")
	cmd.Flags().DurationVar(&opts.delay, "delay", 300*time.Millisecond, "Upper bound of the substitutes' thinking time")
	cmd.Flags().DurationVar(&opts.deadline, "timeout", 2*time.Minute, "Give up if the meeting has not finished by then")
	return cmd
}

// applySimulateOptions makes every phase the same short length and seats
// substitutes at the first expiry.
func applySimulateOptions(cfg *config.Config, opts simulateOptions) {
	cfg.CountdownWaiting = opts.phase
	cfg.CountdownAgenda = opts.phase
	cfg.CountdownDebate = opts.phase
	cfg.CountdownVoting = opts.phase
	cfg.CountdownExecuting = opts.phase
	cfg.CountdownFeedback = opts.phase
	if cfg.CountdownTick > opts.phase {
		cfg.CountdownTick = opts.phase
	}
	cfg.SubstituteMinDelay = opts.delay / 3
	cfg.SubstituteMaxDelay = opts.delay
	cfg.SubstituteFill = true
}

func runSimulation(parent context.Context, injector do.Injector, opts simulateOptions) error {
	store, err := do.Invoke[repository.SessionStore](injector)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("snapshot store close failed", "error", err)
		}
	}()
	manager := do.MustInvoke[*session.Manager](injector)
	d, err := do.Invoke[*director.Director](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve meeting director: %w", err)
	}

	ended := make(chan struct{})
	queue := session.NewQueue(func(u session.Update) {
		slog.Info("session update", "session_id", u.SessionID, "update_type", u.Type, "data", u.Data)
		if u.Type == session.UpdateSessionEnded {
			close(ended)
		}
	})
	unsubscribe := manager.Hub().SubscribeAll(queue.Push)
	defer func() {
		unsubscribe()
		queue.Close()
	}()

	d.Start()
	s := manager.CreateSession(session.CreateRequest{CompanyName: opts.company, CreatedBy: "simulate", Quarter: opts.quarter})
	slog.Info("simulation started", "session_id", s.ID, "company", s.CompanyName, "phase_length", opts.phase)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.deadline)
	defer cancel()

	select {
	case <-ended:
	case <-ctx.Done():
		d.Stop()
		return fmt.Errorf("simulation stopped before the meeting finished: %w", ctx.Err())
	}
	// Stop drains the director so the result is saved and sent before exit.
	d.Stop()

	final, err := manager.GetSession(s.ID)
	if err != nil {
		return err
	}
	for _, item := range final.Agenda {
		slog.Info("resolution", "session_id", s.ID, "title", item.Title, "chosen_option", item.ChosenOption, "passed", item.Passed, "votes", len(item.Votes))
	}
	slog.Info("simulation finished", "session_id", s.ID, "messages", len(final.Messages), "cash", final.CompanyState.Cash, "market_share", final.CompanyState.MarketShare)
	return nil
}
