// Package config loads wiki options from a YAML file and supplies the
// defaults. Options are an explicit value passed to the engine and the
// markdown pipeline; nothing in quill consults process-global state for
// configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Options carries the wiki's namespace naming and rendering limits.
// Namespace names are display names: two wikis may call the same
// semantic namespace different things, which is why archive import
// remaps them (see internal/archive).
type Options struct {
	CategoryNamespace     string `yaml:"category_namespace"`
	FileNamespace         string `yaml:"file_namespace"`
	UserNamespace         string `yaml:"user_namespace"`
	GroupNamespace        string `yaml:"group_namespace"`
	ScriptNamespace       string `yaml:"script_namespace"`
	TalkNamespace         string `yaml:"talk_namespace"`
	TransclusionNamespace string `yaml:"transclusion_namespace"`

	// MainPageTitle is the well-known front page name.
	MainPageTitle string `yaml:"main_page_title"`

	// PreviewLength bounds the plain-text preview stored per page.
	PreviewLength int `yaml:"preview_length"`
}

// Default returns the stock English naming.
func Default() Options {
	return Options{
		CategoryNamespace:     "Category",
		FileNamespace:         "File",
		UserNamespace:         "User",
		GroupNamespace:        "Group",
		ScriptNamespace:       "Script",
		TalkNamespace:         "Talk",
		TransclusionNamespace: "Transclusion",
		MainPageTitle:         "Main Page",
		PreviewLength:         200,
	}
}

// Load reads options from a YAML file, filling unset fields from
// Default. A missing file yields the defaults without error; a present
// but malformed file is reported.
func Load(path string) (Options, error) {
	opts := Default()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("parse config %s: %w", path, err)
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = Default().PreviewLength
	}
	return opts, nil
}

// Save writes options as YAML.
func (o Options) Save(path string) error {
	raw, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
