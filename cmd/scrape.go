package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/events"
	"github.com/sells-group/leadscrape/internal/model"
	"github.com/sells-group/leadscrape/internal/pipeline"
	"github.com/sells-group/leadscrape/internal/shell"
)

var (
	scrapeAPIKey     string
	scrapeMaxScrolls int
	scrapeHold       bool
	scrapeOutputDir  string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <query>",
	Short: "Run one search, extraction, and save in the foreground",
	Long:  "Runs a single lead search. Progress is printed as it happens. Type \"stop\" and press Enter, or press Ctrl-C, to stop the run.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if scrapeAPIKey != "" {
			cfg.Anthropic.Key = scrapeAPIKey
		}
		if scrapeMaxScrolls > 0 {
			cfg.Browser.MaxScrolls = scrapeMaxScrolls
		}
		if scrapeOutputDir != "" {
			cfg.Output.Dir = scrapeOutputDir
		}
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		hub := events.NewHub()
		sub := hub.Subscribe()
		defer hub.Unsubscribe(sub)

		session := newSession(st, hub, nil, pipeline.Options{
			MaxScrolls:    cfg.Browser.MaxScrolls,
			HoldUntilStop: scrapeHold,
		})

		printed := make(chan model.RunStatus, 1)
		go func() { printed <- printEvents(os.Stdout, sub) }()

		query := model.Query(strings.Join(args, " "))
		h, err := session.Start(ctx, query, session.Defaults())
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		sigs := make(chan os.Signal, 2)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)
		go watchSignals(sigs, session, cancel)
		go watchStdin(os.Stdin, session)

		res, runErr := h.Wait(context.Background())
		finishPrinting(hub, sub, printed)

		if res != nil {
			zap.L().Info("scrape finished",
				zap.String("run_id", res.RunID),
				zap.String("status", string(res.Status)),
			)
		}
		return runErr
	},
}

// printEvents writes progress lines and notifications from sub to w until
// a terminal status event arrives, and returns that status.
func printEvents(w io.Writer, sub <-chan string) model.RunStatus {
	for msg := range sub {
		var ev events.Event
		if err := json.Unmarshal([]byte(msg), &ev); err != nil {
			continue
		}
		switch ev.Type {
		case events.TypeProgress:
			var p struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(ev.Data, &p) == nil {
				fmt.Fprintln(w, p.Message) //nolint:errcheck
			}
		case events.TypeNotification:
			var n shell.Notification
			if json.Unmarshal(ev.Data, &n) == nil {
				fmt.Fprintf(w, "[%s] %s\n", n.Title, n.Message) //nolint:errcheck
			}
		case events.TypeStatus:
			var s struct {
				Status model.RunStatus `json:"status"`
			}
			if json.Unmarshal(ev.Data, &s) == nil && s.Status.Terminal() {
				return s.Status
			}
		}
	}
	return ""
}

// finishPrinting closes sub once the run is over and waits for the printer
// to flush what is still buffered. The hub may have dropped the final status
// event, so the printer cannot be relied on to stop by itself.
func finishPrinting(hub *events.Hub, sub chan string, printed <-chan model.RunStatus) {
	hub.Unsubscribe(sub)
	<-printed
}

// watchStdin stops the active run when a line reading "stop" is entered.
func watchStdin(r io.Reader, session *shell.Session) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if strings.EqualFold(strings.TrimSpace(sc.Text()), "stop") {
			session.Stop()
		}
	}
}

// watchSignals asks the run to stop on the first signal and cancels the
// run context on the second.
func watchSignals(sigs <-chan os.Signal, session *shell.Session, cancel context.CancelFunc) {
	stopped := false
	for range sigs {
		if stopped {
			zap.L().Warn("second interrupt, cancelling run")
			cancel()
			return
		}
		stopped = true
		session.Stop()
	}
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeAPIKey, "api-key", "", "Anthropic API key for this run (kept in memory only)")
	scrapeCmd.Flags().IntVar(&scrapeMaxScrolls, "max-scrolls", 0, "maximum scrolls of the results page (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeHold, "hold", false, "keep the run active after saving until stopped")
	scrapeCmd.Flags().StringVar(&scrapeOutputDir, "output-dir", "", "directory for output files (default from config)")
	rootCmd.AddCommand(scrapeCmd)
}
