package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zen-systems/taskgate/pkg/delegate"
	"github.com/zen-systems/taskgate/pkg/router"
	"github.com/zen-systems/taskgate/pkg/scorer"
	"github.com/zen-systems/taskgate/pkg/task"
)

// scoreReport is a score breakdown plus the lane the score falls into.
type scoreReport struct {
	scorer.Breakdown
	Lane router.Lane `json:"lane"`
}

// batchSummary is written to stderr after a batch dispatch.
type batchSummary struct {
	Total      int          `json:"total"`
	Failed     int          `json:"failed"`
	Lanes      router.Stats `json:"lanes"`
	Thresholds struct {
		Low  int `json:"low"`
		High int `json:"high"`
	} `json:"thresholds"`
}

func newBatchSummary(r *router.Router, total, failed int) batchSummary {
	s := batchSummary{Total: total, Failed: failed, Lanes: r.Stats()}
	s.Thresholds.Low, s.Thresholds.High = r.Thresholds()
	return s
}

func scoreCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "score [task-json]",
		Short: "Show the complexity score of a task and how it was reached",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			raw, err := readTask(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			t, err := task.Decode(raw)
			if err != nil {
				return err
			}
			b := a.scorer.Explain(t)
			return writeJSON(cmd.OutOrStdout(), scoreReport{Breakdown: b, Lane: a.router().Lane(b.Score)})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the task from a file")
	return cmd
}

func routeCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "route [task-json]",
		Short: "Print the routing decision for a task without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			raw, err := readTask(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			d, err := a.router().RouteJSON(raw)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), d)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the task from a file")
	return cmd
}

func dispatchCmd() *cobra.Command {
	var (
		file        string
		useMock     bool
		seed        uint64
		batch       bool
		metricsAddr string
		hold        bool
	)

	cmd := &cobra.Command{
		Use:   "dispatch [task-json]",
		Short: "Route a task and run it remotely or locally",
		Long: `Routes the task and runs it on the chosen executor. Medium-complexity
	tasks fall back to local execution when the remote agent fails.

	Use --mock to delegate to the built-in mock agent instead of a backend.
	Use --batch to read one task per line; a per-lane summary is written
	to stderr at the end. Use --metrics-addr to expose
	Prometheus metrics, and --hold to keep serving them after the run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := a.tracing()
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(flushCtx); err != nil {
					a.log.Warn().Err(err).Msg("trace shutdown failed")
				}
			}()

			if metricsAddr == "" {
				metricsAddr = a.cfg.Metrics.Addr
			}
			if metricsAddr != "" {
				srv := a.serveMetrics(metricsAddr)
				defer srv.Close()
			}

			var del delegate.Delegator
			if useMock {
				del = a.mockDelegator(seed)
			} else {
				del, err = a.clientDelegator()
				if err != nil {
					return err
				}
			}
			r := a.router()
			d := a.dispatcher(r, del)

			docs, err := readDocuments(cmd.InOrStdin(), args, file, batch)
			if err != nil {
				return err
			}

			var failed int
			for _, raw := range docs {
				res, err := d.DispatchJSON(ctx, raw)
				if err != nil {
					failed++
					a.log.Error().Err(err).Msg("dispatch failed")
					if !batch {
						return err
					}
					continue
				}
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			}

			if batch {
				summary := newBatchSummary(r, len(docs), failed)
				a.log.Info().
					Int("total", summary.Total).
					Int("failed", summary.Failed).
					Int64("remote_only", summary.Lanes.RemoteOnly).
					Int64("remote_with_fallback", summary.Lanes.RemoteWithFallback).
					Int64("local", summary.Lanes.Local).
					Msg("batch dispatch finished")
				if err := writeJSON(cmd.ErrOrStderr(), summary); err != nil {
					return err
				}
			}

			if hold && metricsAddr != "" {
				a.log.Info().Str("addr", metricsAddr).Msg("serving metrics until interrupted")
				<-ctx.Done()
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d tasks failed", failed, len(docs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the task from a file")
	cmd.Flags().BoolVar(&useMock, "mock", false, "delegate to the mock agent")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for the mock agent (0 picks a random seed)")
	cmd.Flags().BoolVar(&batch, "batch", false, "read one task JSON document per line")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&hold, "hold", false, "keep serving metrics after the run until interrupted")
	return cmd
}

func syntaxCmd() *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "syntax [prompt]",
		Short: "Print the delegation call for a prompt, or the call syntax reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				_, err := fmt.Fprintln(out, delegate.SyntaxHelp())
				return err
			}
			agentType := delegate.AgentType(agent)
			if err := delegate.Validate(args[0], agentType); err != nil {
				return err
			}
			_, err := fmt.Fprintln(out, delegate.FormatCall(args[0], agentType))
			return err
		},
	}

	cmd.Flags().StringVar(&agent, "agent", string(delegate.AgentGeneralPurpose), "agent type: task, explore, general-purpose")
	return cmd
}

func modelsCmd() *cobra.Command {
	var resolveFlag bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List backends, models, and aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			aliases := a.cfg.Models

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if resolveFlag {
				fmt.Fprintln(w, "ALIAS\tMODEL")
				for _, name := range aliases.ListAliases() {
					fmt.Fprintf(w, "%s\t%s\n", name, aliases.Resolve(name))
				}
				return w.Flush()
			}

			fmt.Fprintln(w, "BACKEND\tMODELS\tSTATUS")
			for _, name := range []string{"anthropic", "deepseek", "google", "openai", "mock"} {
				status := "no key"
				if a.cfg.HasBackend(name) {
					status = "ready"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(aliases.Providers[name], ", "), status)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&resolveFlag, "resolve", false, "show aliases and what they resolve to")
	return cmd
}

// readTask returns the task document from the argument, the file, or stdin.
func readTask(stdin io.Reader, args []string, file string) ([]byte, error) {
	switch {
	case len(args) > 0 && file != "":
		return nil, errors.New("pass the task as an argument or with --file, not both")
	case len(args) > 0:
		return []byte(args[0]), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read task file: %w", err)
		}
		return data, nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read task from stdin: %w", err)
		}
		return data, nil
	}
}

// readDocuments splits the input into one document per non-blank line when
// batch is set.
func readDocuments(stdin io.Reader, args []string, file string, batch bool) ([][]byte, error) {
	raw, err := readTask(stdin, args, file)
	if err != nil {
		return nil, err
	}
	if !batch {
		return [][]byte{raw}, nil
	}

	var docs [][]byte
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		docs = append(docs, []byte(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}
	return docs, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
