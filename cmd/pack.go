package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"novel-downloader/storage"
	"novel-downloader/text"
	"novel-downloader/utils"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Merge a downloaded book into a single text file",
	Long:  "Merge a downloaded book into a single text file, chapters in index order",
	RunE:  runPack,
}

type packArgs struct {
	bookDir string
	outFile string
}

var pArgs packArgs

func init() {
	packCmd.Flags().StringVarP(&pArgs.bookDir, "dir-path", "d", "", "book directory, the one holding meta.json")
	packCmd.Flags().StringVarP(&pArgs.outFile, "out", "o", "", "output file, defaults to <dir-path>/<book name>.txt")
	RootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	if pArgs.bookDir == "" {
		return fmt.Errorf("dir-path is required")
	}

	outFile := pArgs.outFile
	if outFile == "" {
		meta, err := storage.ReadMeta(pArgs.bookDir)
		if err != nil {
			return fmt.Errorf("failed to read meta file: %v", err)
		}
		outFile = filepath.Join(pArgs.bookDir, utils.CleanFileName(meta.Name)+".txt")
	}

	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %v", err)
	}
	defer f.Close()

	if err := text.MergeBook(pArgs.bookDir, f); err != nil {
		return fmt.Errorf("failed to merge book: %v", err)
	}
	return nil
}
