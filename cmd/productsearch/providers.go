package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/productsearch/config"
	"github.com/jonwraymond/productsearch/scraper"
)

func newProvidersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List known providers and which are enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tSEARCH\tSTREAM")
			for _, s := range scraper.DefaultSites() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Key, s.Name,
					yesNo(enabled(cfg.Search.Providers, s.Key, true)),
					yesNo(enabled(cfg.Stream.Providers, s.Key, false)))
			}
			return tw.Flush()
		},
	}
}

// enabled reports whether key is in keys; an empty list means all when
// emptyMeansAll is set.
func enabled(keys []string, key string, emptyMeansAll bool) bool {
	if len(keys) == 0 {
		return emptyMeansAll
	}
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
