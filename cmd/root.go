package cmd

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "novel-downloader",
	Short: "Download web novels chapter by chapter",
	Long:  "Download web novels chapter by chapter, skipping what a previous run already saved",
}
