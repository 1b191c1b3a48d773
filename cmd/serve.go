package cmd

import (
	"context"
	"time"

	"github.com/jobease/jobfill/internal/server"
	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/whttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API that opens pages and runs fill passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("bind")
		proxy, _ := rootCmd.PersistentFlags().GetString("proxy")

		db, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		client, err := whttp.NewClient(proxy, 3, 30*time.Second)
		if err != nil {
			return err
		}

		srv := server.New(db, engineConfig(), viper.GetString("server.username"), viper.GetString("server.password"))
		srv.Fetch = func(ctx context.Context, url string) (*dom.Page, error) {
			return whttp.FetchPage(ctx, url, client)
		}
		defer srv.Shutdown()
		return srv.Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("bind", "b", "127.0.0.1:9999", "Address to bind the server to")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	viper.BindPFlag("server.username", serveCmd.Flags().Lookup("username"))
	viper.BindPFlag("server.password", serveCmd.Flags().Lookup("password"))
}
