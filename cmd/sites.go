package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"novel-downloader/config"
	"novel-downloader/rule"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the configured site rules",
	Long:  "List the configured site rules",
	RunE:  runSites,
}

type sitesArgs struct {
	configPath string
	rulesFile  string
}

var sArgs sitesArgs

func init() {
	sitesCmd.Flags().StringVarP(&sArgs.configPath, "config", "c", "", "config file path")
	sitesCmd.Flags().StringVarP(&sArgs.rulesFile, "rules", "r", "", "site rule file, overrides the config")
	RootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(sArgs.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	rulesFile := cfg.Download.RulesFile
	if sArgs.rulesFile != "" {
		rulesFile = sArgs.rulesFile
	}

	rules, err := rule.Load(rulesFile)
	if err != nil {
		return fmt.Errorf("failed to load site rules: %v", err)
	}
	for _, site := range rules.Sites() {
		fmt.Printf("%s (%s): %s\n", site.Name, site.Encoding, strings.Join(site.Domains, ", "))
	}
	return nil
}
