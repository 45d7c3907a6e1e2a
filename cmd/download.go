package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"novel-downloader/config"
	"novel-downloader/downloader"
	"novel-downloader/fetch"
	"novel-downloader/logging"
	"novel-downloader/progress"
	"novel-downloader/rule"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a book from its table-of-contents URL",
	Long:  "Download a book from its table-of-contents URL, skipping chapters a previous run already saved",
	RunE:  runDownload,
}

type downloadArgs struct {
	url         string
	name        string
	author      string
	configPath  string
	rulesFile   string
	outputDir   string
	concurrency int
}

var dArgs downloadArgs

func init() {
	downloadCmd.Flags().StringVarP(&dArgs.url, "url", "u", "", "table-of-contents url")
	downloadCmd.Flags().StringVarP(&dArgs.name, "name", "n", "", "book name, used as the directory name")
	downloadCmd.Flags().StringVarP(&dArgs.author, "author", "a", "", "author name")
	downloadCmd.Flags().StringVarP(&dArgs.configPath, "config", "c", "", "config file path")
	downloadCmd.Flags().StringVarP(&dArgs.rulesFile, "rules", "r", "", "site rule file, overrides the config")
	downloadCmd.Flags().StringVarP(&dArgs.outputDir, "output-dir", "o", "", "output directory, overrides the config")
	downloadCmd.Flags().IntVar(&dArgs.concurrency, "concurrency", 0, "parallel chapter downloads, overrides the config")
	RootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	if dArgs.url == "" {
		return fmt.Errorf("url is required")
	}
	if dArgs.name == "" {
		return fmt.Errorf("name is required")
	}

	cfg, err := config.Load(dArgs.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	if dArgs.rulesFile != "" {
		cfg.Download.RulesFile = dArgs.rulesFile
	}
	if dArgs.outputDir != "" {
		cfg.Download.OutputDir = dArgs.outputDir
	}
	if dArgs.concurrency > 0 {
		cfg.Download.Concurrency = dArgs.concurrency
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	rules, err := rule.Load(cfg.Download.RulesFile)
	if err != nil {
		return fmt.Errorf("failed to load site rules: %v", err)
	}

	client := fetch.New(fetch.Options{
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     cfg.HTTP.Timeout(),
		MaxAttempts: cfg.HTTP.MaxAttempts,
		RetryWait:   cfg.HTTP.RetryWait(),
	}, logger)

	dl := downloader.New(downloader.Config{
		OutputDir:   cfg.Download.OutputDir,
		Concurrency: cfg.Download.Concurrency,
		Politeness:  cfg.Download.Politeness(),
	}, rules, client, progress.NewLogSink(logger), logger)

	if err := dl.Download(cmd.Context(), dArgs.url, dArgs.name, dArgs.author); err != nil {
		return fmt.Errorf("failed to download book: %v", err)
	}
	return nil
}
