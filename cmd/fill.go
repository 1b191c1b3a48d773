package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jobease/jobfill/internal/utils"
	"github.com/jobease/jobfill/pkg/diag"
	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/engine"
	"github.com/jobease/jobfill/pkg/profile"
	"github.com/jobease/jobfill/pkg/storage"
	"github.com/jobease/jobfill/pkg/whttp"
	"github.com/spf13/cobra"
)

// fillCmd represents the fill command
var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill an application page and print the result",
	Long: `Loads a page from --url or --file, runs one fill pass with the stored profile
(or --profile) and writes the filled HTML to --out. Edits given with --edit
are applied afterwards as if typed by you, so that site preferences learn them.`,
	Example: `  jobfill fill --url https://boards.greenhouse.io/acme/jobs/123 --out filled.html
  jobfill fill --file form.html --host jobs.acme.com --edit remote_ok=on`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pageURL, _ := cmd.Flags().GetString("url")
		file, _ := cmd.Flags().GetString("file")
		host, _ := cmd.Flags().GetString("host")
		profilePath, _ := cmd.Flags().GetString("profile")
		out, _ := cmd.Flags().GetString("out")
		showDiag, _ := cmd.Flags().GetBool("diag")
		edits, _ := cmd.Flags().GetStringArray("edit")
		proxy, _ := rootCmd.PersistentFlags().GetString("proxy")

		ctx := context.Background()
		page, err := loadPage(ctx, pageURL, file, host, proxy)
		if err != nil {
			return err
		}

		var p *profile.Profile
		if profilePath != "" {
			data, err := os.ReadFile(profilePath)
			if err != nil {
				return err
			}
			if p, err = profile.Parse(data); err != nil {
				return fmt.Errorf("%s: %w", profilePath, err)
			}
		}

		kv, closeStore := openStoreOrMemory()
		defer closeStore()

		cfg := engineConfig()
		cfg.Diagnostics = cfg.Diagnostics || showDiag
		sess := engine.New(page, kv, cfg, utils.Log)
		defer sess.Close()

		res, err := sess.Run(ctx, p)
		if err != nil {
			return err
		}

		if len(edits) > 0 {
			if err := applyEdits(sess, edits, cfg.CaptureDelay); err != nil {
				return err
			}
		}

		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := sess.Render(f); err != nil {
				return err
			}
		}
		return diag.Report(os.Stdout, res)
	},
}

func loadPage(ctx context.Context, pageURL, file, host, proxy string) (*dom.Page, error) {
	switch {
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if pageURL == "" && host != "" {
			pageURL = "https://" + host + "/"
		}
		return dom.Parse(f, pageURL)
	case pageURL != "":
		client, err := whttp.NewClient(proxy, 3, 30*time.Second)
		if err != nil {
			return nil, err
		}
		return whttp.FetchPage(ctx, pageURL, client)
	}
	return nil, fmt.Errorf("either --url or --file is required")
}

// openStoreOrMemory opens the configured store. When that fails the pass
// still runs against an in-memory store and nothing is remembered.
func openStoreOrMemory() (storage.Store, func()) {
	db, closeStore, err := openStore()
	if err != nil {
		utils.Log.Warnf("store unavailable, nothing will be remembered: %v", err)
		return storage.NewMemory(), func() {}
	}
	return db, closeStore
}

// applyEdits waits for the capture window and replays name=value edits as
// user input.
func applyEdits(sess *engine.Session, edits []string, delay time.Duration) error {
	deadline := time.Now().Add(delay + 2*time.Second)
	for !sess.Capturing() {
		if time.Now().After(deadline) {
			utils.Log.Warn("site preferences are disabled, edits will not be remembered")
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	for _, e := range edits {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			return fmt.Errorf("bad edit %q, want name=value", e)
		}
		c, err := sess.Edit(key, value)
		if err != nil {
			return err
		}
		utils.Log.Debugf("edited %s", c.Describe())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(fillCmd)
	fillCmd.Flags().StringP("url", "u", "", "URL of the application page")
	fillCmd.Flags().StringP("file", "f", "", "Read the page from a local HTML file")
	fillCmd.Flags().String("host", "", "Hostname to use for --file pages (site preferences are per host)")
	fillCmd.Flags().StringP("profile", "p", "", "Profile JSON to use instead of the stored one")
	fillCmd.Flags().StringP("out", "o", "", "Write the filled HTML to this file")
	fillCmd.Flags().Bool("diag", false, "Inject the diagnostics overlay into the output")
	fillCmd.Flags().StringArray("edit", nil, "name=value edit to apply after the fill, repeatable")
}
