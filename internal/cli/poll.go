package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	fetcherrors "github.com/matzehuels/fetchflow/pkg/errors"
	"github.com/matzehuels/fetchflow/pkg/fetch"
)

type pollFlags struct {
	requestFlags

	interval    time.Duration
	count       int
	tui         bool
	metricsAddr string
	pretty      bool
}

func (c *CLI) pollCommand() *cobra.Command {
	var pf pollFlags
	cmd := &cobra.Command{
		Use:   "poll <url>",
		Short: "Fetch a JSON resource on an interval",
		Long: `Poll a JSON resource. The first fetch runs immediately, then one per
interval. Each result is written to stdout as a JSON line; the cycle number
and cached/fresh status go to stderr. Polling runs until --count cycles have
completed or the command is interrupted.

With --metrics-addr, Prometheus metrics are served on /metrics and the
poller state on /healthz for the lifetime of the command.`,
		Example: `  fetchflow poll https://api.example.com/status --interval 10s
  fetchflow poll https://api.example.com/status --count 5 --no-cache
  fetchflow poll https://api.example.com/status --tui --metrics-addr :9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPoll(cmd, args[0], &pf)
		},
	}
	pf.register(cmd, true)
	flags := cmd.Flags()
	flags.DurationVar(&pf.interval, "interval", 5*time.Second, "time between cycles")
	flags.IntVar(&pf.count, "count", 0, "stop after this many cycles (0 polls until interrupted)")
	flags.BoolVar(&pf.tui, "tui", false, "show a live terminal view")
	flags.StringVar(&pf.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.BoolVar(&pf.pretty, "pretty", false, "indent JSON output")
	return cmd
}

func (c *CLI) runPoll(cmd *cobra.Command, url string, pf *pollFlags) error {
	parent := cmd.Context()
	cfg := c.cfg()
	opts, err := pf.fetchOptions(cmd, cfg)
	if err != nil {
		return err
	}
	interval := cfg.Poll.Interval.Duration
	if cmd.Flags().Changed("interval") {
		interval = pf.interval
	}
	addr := cfg.Metrics.Addr
	if cmd.Flags().Changed("metrics-addr") {
		addr = pf.metricsAddr
	}
	if pf.count < 0 {
		return fmt.Errorf("--count must not be negative, got %d", pf.count)
	}

	f, release, err := c.newFetcher(parent, pf.noCache, opts.Credentials)
	if err != nil {
		return err
	}
	defer release()

	p, err := fetch.NewPoller[json.RawMessage](f, url, fetch.PollOptions{FetchOptions: opts, Interval: interval})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if addr != "" {
		reg, reset := newMetricsRegistry()
		defer reset()
		router := newMetricsRouter(reg, p.IsPolling)
		g.Go(func() error {
			return serveMetrics(gctx, addr, router, c.Logger)
		})
	}

	var cycles atomic.Int64
	// next numbers a cycle and stops the poller once the limit is reached.
	next := func() int {
		n := cycles.Add(1)
		if pf.count > 0 && n >= int64(pf.count) {
			p.Stop()
		}
		return int(n)
	}

	if pf.tui {
		c.attachTUI(gctx, g, cancel, p, url, interval, pf.count, next, cmd.OutOrStdout())
	} else {
		attachPrinter(p, cmd.OutOrStdout(), cmd.ErrOrStderr(), pf.pretty, next)
	}

	g.Go(func() error {
		p.Start(gctx)
		p.Wait()
		cancel()
		return nil
	})

	err = g.Wait()
	if parent.Err() != nil {
		return context.Cause(parent)
	}
	if err != nil {
		return err
	}
	if !pf.tui {
		printInfo(cmd.ErrOrStderr(), "Polled %s %d times", url, cycles.Load())
	}
	return nil
}

// attachPrinter writes each cycle as a JSON line to out and its status to errOut.
func attachPrinter(p *fetch.Poller[json.RawMessage], out, errOut io.Writer, pretty bool, next func() int) {
	p.OnData(func(data json.RawMessage, fromCache bool) {
		n := next()
		fmt.Fprintf(errOut, "%s %s %s\n", styleDim.Render(fmt.Sprintf("#%d", n)), styleDim.Render(time.Now().Format("15:04:05")), statusLabel(fromCache))
		_ = writeJSON(out, data, !pretty)
	})
	p.OnError(func(err *fetcherrors.FetchError) {
		n := next()
		fmt.Fprintf(errOut, "%s %s ", styleDim.Render(fmt.Sprintf("#%d", n)), styleDim.Render(time.Now().Format("15:04:05")))
		printFetchError(errOut, err)
	})
}

// attachTUI runs the live poll view in g. Quitting the view stops the
// poller; the end of polling closes the view.
func (c *CLI) attachTUI(ctx context.Context, g *errgroup.Group, cancel context.CancelFunc, p *fetch.Poller[json.RawMessage], url string, interval time.Duration, limit int, next func() int, out io.Writer) {
	prog := tea.NewProgram(newPollModel(url, interval, limit), tea.WithOutput(out))
	logger := loggerFromContext(ctx)

	p.OnData(func(data json.RawMessage, fromCache bool) {
		next()
		prog.Send(pollDataMsg{data: data, fromCache: fromCache, at: time.Now()})
	})
	p.OnError(func(err *fetcherrors.FetchError) {
		next()
		logger.Debug("poll cycle failed", "session", p.ID(), "kind", err.Kind, "err", err)
		prog.Send(pollErrorMsg{err: err, at: time.Now()})
	})

	g.Go(func() error {
		_, err := prog.Run()
		p.Stop()
		cancel()
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		prog.Send(pollDoneMsg{})
		return nil
	})
}
