package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medease/internal/adapters/apiclient"
	"medease/internal/domain/medicines"
	"medease/internal/platform/logger"
	"medease/internal/poller"

	"github.com/spf13/cobra"
)

var (
	runToken    string
	runInterval time.Duration
	runLogLevel string
)

// errLoggedOut: la sesión expiró; el proceso sale con código != 0.
var errLoggedOut = errors.New("session expired, please log in again")

func init() {
	runCmd.Flags().StringVar(&runToken, "token", os.Getenv("MEDEASE_TOKEN"), "session token (default $MEDEASE_TOKEN)")
	runCmd.Flags().DurationVar(&runInterval, "interval", poller.DefaultInterval, "poll interval")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll medicines and ring when one is due",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if runToken == "" {
		return errors.New("no token: run `watch login` or pass --token")
	}

	out := cmd.OutOrStdout()
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(runLogLevel),
		Format: logger.FormatText,
		App:    "watch",
	})

	client, err := apiclient.New(serverURL, runToken)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	invalid := make(chan error, 1)
	p, err := poller.New(poller.Options{
		Fetcher:  client,
		Sounder:  newBellSounder(out),
		Display:  bannerDisplay{w: out, now: time.Now},
		Logger:   log,
		Interval: runInterval,
		OnSessionInvalid: func(err error) {
			select {
			case invalid <- err:
			default:
			}
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "watching medicines on %s (every %s). Ctrl-C to quit.\n", serverURL, runInterval)
	if err := p.Start(ctx); err != nil {
		return err
	}
	defer p.Stop()

	return watchLoop(ctx, out, log, p, client, readLines(cmd.InOrStdin()), invalid)
}

type acknowledger interface {
	Acknowledge() []medicines.Medicine
}

type takenMarker interface {
	MarkTaken(ctx context.Context, id string) error
}

// watchLoop atiende Enter (reconocer + marcar tomadas) hasta que ctx se
// cancele (sale sin error) o la sesión se invalide (errLoggedOut).
func watchLoop(ctx context.Context, out io.Writer, log logger.Logger, p acknowledger, marker takenMarker, lines <-chan struct{}, invalid <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-invalid:
			fmt.Fprintf(out, "logged out: %v\n", err)
			return errLoggedOut
		case _, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			for _, m := range p.Acknowledge() {
				if err := marker.MarkTaken(ctx, m.ID); err != nil {
					log.Warn("mark taken failed", map[string]any{"medicine_id": m.ID, "err": err})
					continue
				}
				fmt.Fprintf(out, "  marked %s as taken\n", m.Name)
			}
		}
	}
}

// readLines emite una señal por cada Enter.
func readLines(r io.Reader) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- struct{}{}
		}
	}()
	return ch
}
