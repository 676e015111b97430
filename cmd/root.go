/*
Copyright © 2026 The Quill Authors
*/

// root.go defines the root command and CLI execution entry point.
//
// Design: PersistentPreRunE opens the store lazily - only commands that
// need a wiki trigger it. Bootstrap commands (init) work without one.
// The noStoreCommands map controls which commands skip opening.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/config"
	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/storage/badgerstore"
	"github.com/quillwiki/quill/internal/talk"
	"github.com/quillwiki/quill/internal/wiki"
)

var (
	dataDir    string
	configPath string
	author     string

	store  *badgerstore.Store
	engine *wiki.Engine
	talks  *talk.Service
	opts   config.Options
)

// noStoreCommands work without an existing wiki directory.
var noStoreCommands = map[string]bool{
	"init": true,
	"help": true,
}

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Wiki content platform with versioned pages and a live link graph",
	Long:  `A wiki engine with delta-compressed page history, bidirectional link tracking, redirect resolution, categories, archives and discussion topics.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if author == "" {
			author = detectAuthor()
		}
		if noStoreCommands[cmd.Name()] {
			return nil
		}
		return openWiki()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", defaultDataDir(), "Wiki data directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <data>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&author, "author", "", "Editor name recorded on revisions")
}

func defaultDataDir() string {
	if dir := os.Getenv("QUILL_DATA"); dir != "" {
		return dir
	}
	return ".quill"
}

// detectAuthor falls back on the OS user when --author is not given.
func detectAuthor() string {
	if a := os.Getenv("QUILL_AUTHOR"); a != "" {
		return a
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "anonymous"
}

// openWiki loads config and opens the store and engine.
func openWiki() error {
	if engine != nil {
		return nil
	}
	if configPath == "" {
		configPath = filepath.Join(dataDir, "config.yaml")
	}
	var err error
	opts, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err = badgerstore.Open(badgerstore.DefaultConfig(filepath.Join(dataDir, "data")))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	engine = wiki.New(store, opts)
	talks = talk.NewService(store, engine.Renderer(), engine)
	log.SetWiki(dataDir)
	return nil
}

// Execute runs the root command and handles process lifecycle: audit
// logging, command execution and store shutdown. Exit code 1 on error.
func Execute() {
	if err := log.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log unavailable: %v\n", err)
	}
	defer log.Close()

	err := rootCmd.Execute()

	if store != nil {
		if closeErr := store.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing store: %v\n", closeErr)
		}
	}

	if err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for tests.
func RootCmd() *cobra.Command {
	return rootCmd
}

// Author returns the effective editor name.
func Author() string {
	return author
}
