/*
Copyright © 2026 The Quill Authors
*/

// init.go implements "quill init": creates the data directory and
// writes a default config for the operator to edit.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/config"
	"github.com/quillwiki/quill/internal/log"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new wiki data directory",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(c *cobra.Command, _ []string) error {
	var err error
	defer func() {
		log.Event("wiki:init", "init").Author(author).Detail("dir", dataDir).Write(err)
	}()

	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(dataDir, "config.yaml")
	}
	if _, statErr := os.Stat(cfgPath); statErr == nil {
		err = fmt.Errorf("%s already exists", cfgPath)
		return err
	}

	if err = os.MkdirAll(filepath.Join(dataDir, "data"), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err = config.Default().Save(cfgPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(c.OutOrStdout(), "Initialised wiki in %s\n", dataDir)
	return nil
}
