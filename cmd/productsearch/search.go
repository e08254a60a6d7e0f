package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/productsearch/config"
	"github.com/jonwraymond/productsearch/search"
	"github.com/jonwraymond/productsearch/stream"
)

type searchOptions struct {
	stream    bool
	providers []string
	pretty    bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search and print the JSON result",
		Long:  "Run one search against the configured providers. With --stream each provider's outcome is printed as a JSON line when it settles.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if len(opts.providers) > 0 {
				cfg.Search.Providers = opts.providers
				cfg.Stream.Providers = opts.providers
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))

			if opts.stream {
				return runStream(ctx, a.service, args[0], cmd.OutOrStdout())
			}
			return runSearch(ctx, a.service, args[0], cmd.OutOrStdout(), opts.pretty)
		},
	}
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "print outcomes as they settle")
	cmd.Flags().StringSliceVar(&opts.providers, "providers", nil, "provider keys to query (default: configured set)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	return cmd
}

func runSearch(ctx context.Context, svc *search.Service, query string, w io.Writer, pretty bool) error {
	res, err := svc.Search(ctx, query)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}

// streamLine is one line of --stream output.
type streamLine struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func runStream(ctx context.Context, svc *search.Service, query string, w io.Writer) error {
	sess, err := svc.Stream(ctx, query)
	if err != nil {
		return err
	}
	defer sess.Close()

	enc := json.NewEncoder(w)
	write := func(ev stream.Event) error {
		return enc.Encode(streamLine{Event: ev.Name(), Data: ev.Payload})
	}

	for {
		select {
		case ev := <-sess.Events():
			if err := write(ev); err != nil {
				return err
			}
		case <-sess.Settled():
			for {
				select {
				case ev := <-sess.Events():
					if err := write(ev); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		case <-ctx.Done():
			return fmt.Errorf("search interrupted: %w", ctx.Err())
		}
	}
}
