package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/joe/init-project/internal/rules"
	"github.com/joe/init-project/pkg/filesystem"
)

// Placeholder is an extra token defined in a rules file.
type Placeholder struct {
	Token string `yaml:"token" toml:"token"`
	Value string `yaml:"value" toml:"value"`
}

// RulesFile is the optional rules file, written in YAML or TOML.
type RulesFile struct {
	Placeholders []Placeholder `yaml:"placeholders" toml:"placeholders"`
	Exclude      []string      `yaml:"exclude" toml:"exclude"`
}

// ParseRulesFile decodes a rules file, as TOML when source ends in .toml and
// as YAML otherwise. Unknown keys are rejected so that a misspelt section is
// not silently ignored. An empty document is valid.
func ParseRulesFile(r io.Reader, source string) (*RulesFile, error) {
	var (
		rf  RulesFile
		err error
	)

	if strings.EqualFold(path.Ext(source), ".toml") {
		err = toml.NewDecoder(r).DisallowUnknownFields().Decode(&rf)
	} else {
		decoder := yaml.NewDecoder(r)
		decoder.KnownFields(true)
		if err = decoder.Decode(&rf); errors.Is(err, io.EOF) {
			err = nil
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", source, err)
	}

	for i, p := range rf.Placeholders {
		if p.Token == "" {
			return nil, fmt.Errorf("rules file %s: placeholder %d has an empty token", source, i+1)
		}
	}

	return &rf, nil
}

// LoadRulesFile opens and parses the rules file at path on fsys.
func LoadRulesFile(fsys filesystem.FileSystem, path string) (*RulesFile, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ParseRulesFile(file, path)
}

// Rules returns the placeholder rules defined by the file, in file order.
func (rf *RulesFile) Rules() []rules.Rule {
	out := make([]rules.Rule, 0, len(rf.Placeholders))
	for _, p := range rf.Placeholders {
		out = append(out, rules.Literal(p.Token, p.Value))
	}

	return out
}

// ResolveRules builds the full substitution rule set and the glob excludes
// for a run: the three fixed placeholders first, then those of the rules
// file. The rules file is cfg.RulesFile if set, which must then exist,
// otherwise the first of RulesFileName and TOMLRulesFileName present in the
// root.
func (cfg *Config) ResolveRules(fsys filesystem.FileSystem, root string) (rules.Set, []string, error) {
	set := rules.Placeholders(cfg.ProjectID, cfg.ProjectName, cfg.ExecName)
	excludes := append([]string(nil), cfg.Excludes...)

	rulesPath := cfg.RulesFile
	if rulesPath == "" {
		rulesPath = findRulesFile(fsys, root)
		if rulesPath == "" {
			return set, excludes, nil
		}
	}

	rf, err := LoadRulesFile(fsys, rulesPath)
	if err != nil {
		return nil, nil, err
	}

	return set.With(rf.Rules()...), append(excludes, rf.Exclude...), nil
}

// findRulesFile returns the default rules file in root, or "" if there is
// none.
func findRulesFile(fsys filesystem.FileSystem, root string) string {
	for _, name := range []string{RulesFileName, TOMLRulesFileName} {
		candidate := fsys.Join(root, name)
		if _, err := fsys.Stat(candidate); !errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
	}

	return ""
}

// RulesFileUnder returns the explicit rules file's path relative to root,
// in slash form, when it lies inside root. Such a file is not part of the
// template and must be left untouched by both passes.
func (cfg *Config) RulesFileUnder(root string) (string, bool) {
	if cfg.RulesFile == "" {
		return "", false
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}

	absFile, err := filepath.Abs(cfg.RulesFile)
	if err != nil {
		return "", false
	}

	rel, err := filepath.Rel(absRoot, absFile)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return filepath.ToSlash(rel), true
}
