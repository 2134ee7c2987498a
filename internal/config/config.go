package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models tiller.yml.
type Config struct {
	Journal struct {
		ID       string `yaml:"id"`
		Owner    string `yaml:"owner"`
		Timezone string `yaml:"timezone"`
	} `yaml:"journal"`
	Themes struct {
		// Catalog order doubles as suggestion tie-break order.
		Catalog []ThemeKeywords `yaml:"catalog"`
	} `yaml:"themes"`
	Questions struct {
		Quick   []string            `yaml:"quick"`
		Project []string            `yaml:"project"`
		Weekly  []string            `yaml:"weekly"`
		Periods map[string][]string `yaml:"periods"`
	} `yaml:"questions"`
}

type ThemeKeywords struct {
	Theme    string   `yaml:"theme"`
	Keywords []string `yaml:"keywords"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with tl config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Journal.ID == "" {
		return fmt.Errorf("config.journal.id is required")
	}
	seen := map[string]bool{}
	for i, tk := range c.Themes.Catalog {
		if tk.Theme == "" {
			return fmt.Errorf("themes.catalog[%d] has empty theme name", i)
		}
		if seen[tk.Theme] {
			return fmt.Errorf("themes.catalog duplicates theme %s", tk.Theme)
		}
		seen[tk.Theme] = true
		if len(tk.Keywords) == 0 {
			return fmt.Errorf("theme %s has no keywords", tk.Theme)
		}
		for _, kw := range tk.Keywords {
			if kw == "" {
				return fmt.Errorf("theme %s has empty keyword", tk.Theme)
			}
		}
	}
	if len(c.Questions.Quick) != 1 {
		return fmt.Errorf("questions.quick must list exactly one question")
	}
	if len(c.Questions.Weekly) == 0 {
		return fmt.Errorf("questions.weekly is required")
	}
	for period, qs := range c.Questions.Periods {
		switch period {
		case "weekly", "monthly", "quarterly":
		default:
			return fmt.Errorf("questions.periods has unknown period %s", period)
		}
		if len(qs) == 0 {
			return fmt.Errorf("questions.periods.%s is empty", period)
		}
	}
	return nil
}

// QuestionsFor returns the question set for a periodic reflection, falling
// back to the weekly set when no per-period override exists.
func (c *Config) QuestionsFor(period string) []string {
	if qs, ok := c.Questions.Periods[period]; ok {
		return qs
	}
	return c.Questions.Weekly
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "tiller.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(journalID string) string {
	return fmt.Sprintf(defaultTemplate, journalID)
}

// Default returns the default Config struct for a journal.
func Default(journalID string) *Config {
	var cfg Config
	cfg.Journal.ID = journalID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, journalID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `journal:
  id: %s
  owner: ""
  timezone: UTC

themes:
  catalog:
    - theme: delegation
      keywords: [delegate, handed off, hand off, own it]
    - theme: hiring
      keywords: [interview, candidate, recruit, offer]
    - theme: conflict
      keywords: [disagree, tension, pushback, friction]
    - theme: focus
      keywords: [distract, context switch, too many]
    - theme: energy
      keywords: [tired, drained, burned out, exhausted]
    - theme: communication
      keywords: [misunderstood, unclear, alignment]
    - theme: strategy
      keywords: [roadmap, long-term, vision, bet]

questions:
  quick:
    - "What stood out about this?"
  weekly:
    - "What went well this week?"
    - "What drained you?"
    - "What is the one thing to change next week?"
  project:
    - "Is this project moving at the pace you expected?"
    - "What is blocked and who can unblock it?"
  periods:
    monthly:
      - "What did you learn this month?"
      - "Which decision are you least sure about?"
    quarterly:
      - "Did this quarter advance your long-term bets?"
      - "What should you stop doing?"
`
