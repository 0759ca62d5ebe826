package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/desertthunder/tidalx/internal/auth"
	"github.com/desertthunder/tidalx/internal/formatter"
	"github.com/urfave/cli/v3"
)

// Connect runs the device authorization flow, printing the code and polling progress until it finishes.
//
// Interrupting the command cancels the flow.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	p, err := r.Plugin()
	if err != nil {
		return err
	}
	r.noBrowser = cmd.Bool("no-browser")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	progress := make(chan auth.ProgressUpdate, 32)
	done := p.Connect(ctx, progress)

	for {
		select {
		case update := <-progress:
			r.printProgress(update)
		case res := <-done:
			r.drainProgress(progress)
			return r.reportConnect(res.Result, res.Err)
		}
	}
}

func (r *Runner) printProgress(update auth.ProgressUpdate) {
	if update.State == auth.AwaitingUser {
		r.writePlain("%s\n", update.Message)
		return
	}
	r.logger.Debug(update.Message, "state", update.State, "attempt", update.Attempt)
}

func (r *Runner) drainProgress(progress chan auth.ProgressUpdate) {
	for {
		select {
		case update := <-progress:
			r.printProgress(update)
		default:
			return
		}
	}
}

func (r *Runner) reportConnect(res auth.Result, err error) error {
	switch {
	case err != nil:
		return err
	case res.State == auth.Granted:
		return r.writePlain("✓ Connected (user %d, %s)\n", res.Record.UserID, res.Record.CountryCode)
	case res.State == auth.Cancelled:
		return r.writePlain("✗ Connect cancelled\n")
	default:
		return fmt.Errorf("connect ended in state %s", res.State)
	}
}

// Disconnect clears the session and erases the stored record.
func (r *Runner) Disconnect(ctx context.Context, cmd *cli.Command) error {
	p, err := r.Plugin()
	if err != nil {
		return err
	}
	if err := p.Disconnect(); err != nil {
		return err
	}
	return r.writePlain("✓ Disconnected\n")
}

// Status prints the session state without contacting the server.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	p, err := r.Plugin()
	if err != nil {
		return err
	}

	info := p.Info()
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"state":        info.State.String(),
			"user_id":      info.UserID,
			"country_code": info.CountryCode,
			"quality":      info.Quality,
			"connected":    p.Connected(),
		}, true)
	}
	return r.writePlain("%s", formatter.SessionTable(info))
}
