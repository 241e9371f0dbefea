// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/db47h/vcdtrace"
	"github.com/db47h/vcdtrace/internal/vcd"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type options struct {
	config  string
	verbose bool
	stats   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:           "vcdtrace",
		Short:         "Decode VCD traces of guarded atomic action designs",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "configuration file (.yaml, .yml or .toml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.stats, "stats", false, "print decoding counters to stderr")

	var output string
	decodeCmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Print the reconstructed method call trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := decodeFile(cmd, &opts, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrap(err, "create output")
				}
				defer f.Close()
				w = f
			}
			return vcdtrace.WriteTrace(w, s.Entries())
		},
	}
	decodeCmd.Flags().StringVarP(&output, "output", "o", "", "write the trace to this file instead of stdout")

	scopesCmd := &cobra.Command{
		Use:   "scopes <file>",
		Short: "List scopes and signals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, hdr, err := decodeFile(cmd, &opts, args[0])
			if err != nil {
				return err
			}
			return listScopes(cmd.OutOrStdout(), s, hdr)
		},
	}

	var id string
	valueCmd := &cobra.Command{
		Use:   "value <file> <time>",
		Short: "Print the value of a signal at a given time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid time %q", args[1])
			}
			s, _, err := decodeFile(cmd, &opts, args[0])
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), s, id, t)
		},
	}
	valueCmd.Flags().StringVar(&id, "id", "", "identifier code or alias path of the signal")
	_ = valueCmd.MarkFlagRequired("id")

	root.AddCommand(decodeCmd, scopesCmd, valueCmd)
	return root
}

func decodeFile(cmd *cobra.Command, opts *options, name string) (*vcdtrace.Session, *vcd.Header, error) {
	cfg := vcdtrace.DefaultConfig()
	if opts.config != "" {
		var err error
		if cfg, err = vcdtrace.LoadConfig(opts.config); err != nil {
			return nil, nil, err
		}
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	reg := prometheus.NewRegistry()
	m, err := vcdtrace.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open trace")
		}
		defer f.Close()
		r = f
	}

	s := vcdtrace.New(vcdtrace.WithConfig(cfg), vcdtrace.WithLogger(log), vcdtrace.WithMetrics(m))
	log.Debug("decoding", slog.String("file", name), slog.String("session", s.ID()))
	hdr, err := vcd.Parse(r, s)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "decode %s", name)
	}
	if opts.stats {
		if err = printStats(cmd.ErrOrStderr(), reg); err != nil {
			return nil, nil, err
		}
	}
	return s, hdr, nil
}

func listScopes(w io.Writer, s *vcdtrace.Session, hdr *vcd.Header) error {
	fmt.Fprintf(w, "Version:        %s\n", hdr.Version)
	fmt.Fprintf(w, "Date:           %s\n", hdr.Date)
	fmt.Fprintf(w, "Timescale:      %s\n", hdr.Timescale)
	fmt.Fprintf(w, "Signal count:   %d\n", len(s.Signals()))
	fmt.Fprintf(w, "Times recorded: %d\n", len(s.Times()))
	for _, sc := range s.Scopes() {
		path := sc.Path
		if path == "" {
			path = "/"
		}
		fmt.Fprintf(w, "Scope: %s (%s %s)\n", path, sc.Kind, sc.Name)
		for _, id := range sc.Signals {
			sig := s.Registry().Signal(id)
			fmt.Fprintf(w, "\t%s\t%s", sig.ID, sig.Name)
			if sig.Width > 1 {
				fmt.Fprintf(w, " [%d:0]", sig.Width-1)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func printValue(w io.Writer, s *vcdtrace.Session, id string, t uint64) error {
	code := id
	if len(s.Registry().Aliases(code)) == 0 {
		for _, sig := range s.Signals() {
			if sig.Path == id {
				code = sig.ID
				break
			}
		}
	}
	v, ok := s.ValueAt(code, t)
	if !ok {
		return errors.Errorf("no value for %s at %d", id, t)
	}
	_, err := fmt.Fprintln(w, v.String())
	return err
}

func printStats(w io.Writer, reg *prometheus.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, l := range m.GetLabel() {
				name += "{" + l.GetName() + "=" + l.GetValue() + "}"
			}
			fmt.Fprintf(w, "%s %v\n", name, m.GetCounter().GetValue())
		}
	}
	return nil
}
