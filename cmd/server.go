package cmd

import (
	"github.com/spf13/cobra"

	"lukachat/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Luka HTTP server",
	Long:  `Start the Luka companion backend, serving the chat and health endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
