// Package kind holds the per-record-kind configuration tables. One generic engine runs every
// kind, the kinds only differ in markers, labels, cascades and field types.
package kind

import (
	"embed"
	"fmt"
	"path"
	"slices"
	"strings"

	"shuassist-backend/internal/components/configutil"
	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/cascade"
	"shuassist-backend/internal/extract/classify"
	"shuassist-backend/internal/extract/dedup"
	"shuassist-backend/internal/extract/normalize"
	"shuassist-backend/internal/extract/strategy"
	"shuassist-backend/internal/extract/summary"

	"dario.cat/mergo"
)

//go:embed builtin/*.json5
var builtinFS embed.FS

type Config struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Cascade lists the strategies in priority order.
	Cascade []string `json:"cascade"`
	// InitialSection is the section a run starts in when the caller supplies none.
	InitialSection string `json:"initial_section"`

	Classifier classify.Config        `json:"classifier"`
	Tabular    strategy.TabularConfig `json:"tabular"`
	Lexical    strategy.LexicalConfig `json:"lexical"`
	Block      strategy.BlockConfig   `json:"block"`
	Pattern    strategy.PatternConfig `json:"pattern"`
	Normalize  normalize.Config       `json:"normalize"`
	Dedup      dedup.Config           `json:"dedup"`

	// Summary is only used when it names at least one aggregate kind.
	Summary     summary.Config `json:"summary"`
	SummarySort []string       `json:"summary_sort"`
}

// HasSummaries reports whether the kind aggregates summary records.
func (c Config) HasSummaries() bool {
	return len(c.Summary.Kinds) > 0
}

// withDefaults fills every classifier setting the kind leaves unset.
func withDefaults(cfg Config) (Config, error) {
	err := mergo.Merge(&cfg.Classifier, classify.DefaultConfig())
	if err != nil {
		return Config{}, fmt.Errorf("kind %s: merge classifier defaults: %w", cfg.Name, err)
	}
	if len(cfg.Normalize.Sentinels) == 0 {
		cfg.Normalize.Sentinels = normalize.DefaultSentinels()
	}
	return cfg, nil
}

// Names returns the built-in kind names in lexical order.
func Names() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		panic(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	slices.Sort(names)
	return names
}

// Builtin returns the embedded configuration of a built-in kind.
func Builtin(name string) (Config, error) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+".json5"))
	if err != nil {
		return Config{}, fmt.Errorf("unknown kind %q (built-in kinds: %s)", name, strings.Join(Names(), ", "))
	}
	cfg, err := configutil.Parse[Config](data)
	if err != nil {
		return Config{}, fmt.Errorf("kind %s: %w", name, err)
	}
	return withDefaults(cfg)
}

// Load reads a kind configuration file (and its .local override). A file naming a built-in
// kind is merged over that kind, any other file only receives the classifier defaults.
func Load(filepath string) (Config, error) {
	user, err := configutil.ReadConfig[Config](filepath)
	if err != nil {
		return Config{}, err
	}

	cfg := user
	if slices.Contains(Names(), user.Name) {
		cfg, err = Builtin(user.Name)
		if err != nil {
			return Config{}, err
		}
		err = mergo.Merge(&cfg, user, mergo.WithOverride)
		if err != nil {
			return Config{}, fmt.Errorf("kind %s: merge %s: %w", user.Name, filepath, err)
		}
	}
	cfg, err = withDefaults(cfg)
	if err != nil {
		return Config{}, err
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate compiles the classifier and every strategy of the cascade so configuration errors
// surface before any content is read.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("kind: name is required")
	}
	if len(c.Cascade) == 0 {
		return fmt.Errorf("kind %s: cascade is empty", c.Name)
	}
	_, err := c.Strategies(telemetry.Nop{})
	if err != nil {
		return err
	}
	_, err = normalize.NewNormalizer(c.Normalize, telemetry.Nop{})
	if err != nil {
		return fmt.Errorf("kind %s: %w", c.Name, err)
	}
	if c.HasSummaries() {
		classifier, err := classify.NewClassifier(c.Classifier)
		if err != nil {
			return fmt.Errorf("kind %s: %w", c.Name, err)
		}
		_, err = summary.NewAggregator(c.Summary, classifier, telemetry.Nop{})
		if err != nil {
			return fmt.Errorf("kind %s: %w", c.Name, err)
		}
	}
	return nil
}

// Strategies builds the cascade strategies in priority order.
func (c Config) Strategies(tel telemetry.API) ([]cascade.Strategy, error) {
	classifier, err := classify.NewClassifier(c.Classifier)
	if err != nil {
		return nil, fmt.Errorf("kind %s: %w", c.Name, err)
	}

	out := make([]cascade.Strategy, 0, len(c.Cascade))
	for _, name := range c.Cascade {
		var s cascade.Strategy
		switch name {
		case strategy.TABULAR:
			s, err = strategy.NewTabular(c.Tabular, classifier, tel)
		case strategy.LEXICAL:
			s, err = strategy.NewLexical(c.Lexical, classifier, tel)
		case strategy.BLOCK:
			s, err = strategy.NewBlock(c.Block, classifier, tel)
		case strategy.PATTERN:
			s, err = strategy.NewPattern(c.Pattern, classifier, tel)
		default:
			return nil, fmt.Errorf("kind %s: unknown strategy %q", c.Name, name)
		}
		if err != nil {
			return nil, fmt.Errorf("kind %s: %w", c.Name, err)
		}
		out = append(out, s)
	}
	return out, nil
}
