package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/cnbean/pkg/models"
)

// SameAsNarrationKeyword is the payee_keywords value that reuses the
// narration keywords.
const SameAsNarrationKeyword = "same_as_narration"

// Mapping is the configuration form of a Rule, shared by the YAML rule files
// and the inline detail_mappings of the main config.
type Mapping struct {
	Name               string         `yaml:"name"`
	NarrationKeywords  []string       `yaml:"narration_keywords"`
	PayeeKeywords      any            `yaml:"payee_keywords"`
	DestinationAccount string         `yaml:"destination_account"`
	AdditionalTags     []string       `yaml:"additional_tags"`
	AdditionalMetadata map[string]any `yaml:"additional_metadata"`
	Priority           int            `yaml:"priority"`
	MatchLogic         string         `yaml:"match_logic"`
}

// File is the layout of a standalone rule file.
type File struct {
	Rules []Mapping `yaml:"detail_mappings"`
}

// Rule converts the mapping. name is used when the mapping carries none.
func (s Mapping) Rule(name string) (Rule, error) {
	if s.Name != "" {
		name = s.Name
	}
	payee, err := payeeKeywords(s.PayeeKeywords)
	if err != nil {
		return Rule{}, &ValidationError{Rule: name, Reason: err.Error()}
	}
	var meta models.Metadata
	if len(s.AdditionalMetadata) > 0 {
		meta = models.Metadata(s.AdditionalMetadata).Clone()
	}
	return Rule{
		Name:               name,
		NarrationKeywords:  s.NarrationKeywords,
		PayeeKeywords:      payee,
		DestinationAccount: s.DestinationAccount,
		AdditionalTags:     s.AdditionalTags,
		AdditionalMetadata: meta,
		Priority:           s.Priority,
		MatchLogic:         MatchLogic(s.MatchLogic),
	}, nil
}

// FromMappings converts mappings in order. Unnamed rules are called "<origin> #N".
func FromMappings(origin string, mappings []Mapping) ([]Rule, error) {
	out := make([]Rule, 0, len(mappings))
	for i, s := range mappings {
		r, err := s.Rule(fmt.Sprintf("%s #%d", origin, i+1))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadFile reads a YAML rule file.
func LoadFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}
	return FromMappings(path, f.Rules)
}

func payeeKeywords(v any) (PayeeKeywords, error) {
	switch val := v.(type) {
	case nil:
		return PayeeKeywords{}, nil
	case string:
		if val == SameAsNarrationKeyword {
			return SameAsNarration(), nil
		}
		return PayeeKeywords{}, fmt.Errorf("payee_keywords must be a list or %q, got %q", SameAsNarrationKeyword, val)
	case []string:
		return Keywords(val...), nil
	case []any:
		keywords := make([]string, 0, len(val))
		for _, item := range val {
			switch kw := item.(type) {
			case string:
				keywords = append(keywords, kw)
			case int, int64, float64, bool:
				keywords = append(keywords, fmt.Sprint(kw))
			default:
				return PayeeKeywords{}, fmt.Errorf("unsupported payee keyword %v", item)
			}
		}
		return Keywords(keywords...), nil
	default:
		return PayeeKeywords{}, fmt.Errorf("unsupported payee_keywords value %v", v)
	}
}
