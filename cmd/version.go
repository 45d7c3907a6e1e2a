package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the release build; dev builds report "dev".
const Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("novel-downloader " + Version)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
