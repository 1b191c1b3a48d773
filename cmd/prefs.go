package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/jobease/jobfill/pkg/siteprefs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// prefsCmd represents the prefs command
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage learned site preferences",
}

func withPrefs(fn func(ctx context.Context, s *siteprefs.Store) error) error {
	db, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(context.Background(), siteprefs.NewStore(db, viper.GetInt("siteprefs.overlap")))
}

var prefsShowCmd = &cobra.Command{
	Use:   "show [host]",
	Short: "List learned sites, or print the entry of one host",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(ctx context.Context, s *siteprefs.Store) error {
			enabled, err := s.Enabled(ctx)
			if err != nil {
				return err
			}
			all, err := s.All(ctx)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				e, ok := all[args[0]]
				if !ok {
					return fmt.Errorf("nothing learned for %s", args[0])
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(e)
			}

			fmt.Printf("Site preferences: %s\n\n", onOff(enabled))
			if len(all) == 0 {
				fmt.Println("No sites learned yet.")
				return nil
			}
			hosts := make([]string, 0, len(all))
			for h := range all {
				hosts = append(hosts, h)
			}
			sort.Strings(hosts)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "HOST\tROOT\tVENDOR\tANSWERS\tUPDATED\t")
			for _, h := range hosts {
				e := all[h]
				answers := len(e.Radios) + len(e.Checkboxes) + len(e.Selects) + len(e.Texts)
				updated := time.UnixMilli(e.UpdatedAt).Format(time.DateTime)
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t\n", h, e.RootDomain, e.Vendor, answers, updated)
			}
			return w.Flush()
		})
	},
}

var prefsEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Learn and replay answers to site specific questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(ctx context.Context, s *siteprefs.Store) error {
			return s.SetEnabled(ctx, true)
		})
	},
}

var prefsDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop learning site preferences (learned entries are kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(ctx context.Context, s *siteprefs.Store) error {
			return s.SetEnabled(ctx, false)
		})
	},
}

var prefsClearCmd = &cobra.Command{
	Use:   "clear [host]",
	Short: "Forget what was learned for a host",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if len(args) == 0 && !all {
			return fmt.Errorf("give a host or --all")
		}
		host := ""
		if len(args) == 1 {
			host = args[0]
		}
		return withPrefs(func(ctx context.Context, s *siteprefs.Store) error {
			return s.Clear(ctx, host)
		})
	},
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsEnableCmd)
	prefsCmd.AddCommand(prefsDisableCmd)
	prefsCmd.AddCommand(prefsClearCmd)
	prefsClearCmd.Flags().Bool("all", false, "Forget every host")
}
