package cmd

import (
	"context"
	"fmt"

	"github.com/jobease/jobfill/pkg/siteprefs"
	"github.com/spf13/cobra"
)

// hostCmd represents the host command
var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Print the hostname, root domain and vendor of a page",
	RunE: func(cmd *cobra.Command, args []string) error {
		pageURL, _ := cmd.Flags().GetString("url")
		file, _ := cmd.Flags().GetString("file")
		proxy, _ := rootCmd.PersistentFlags().GetString("proxy")

		page, err := loadPage(context.Background(), pageURL, file, "", proxy)
		if err != nil {
			return err
		}
		host := page.Hostname()
		fmt.Println(host)
		fmt.Printf("root domain: %s\n", siteprefs.RootDomain(host))
		if v := siteprefs.DetectVendor(page); v != "" {
			fmt.Printf("vendor: %s\n", v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.Flags().StringP("url", "u", "", "URL of the application page")
	hostCmd.Flags().StringP("file", "f", "", "Read the page from a local HTML file")
}
