package llm

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider kinds understood by the OpenAI-compatible adapter.
const (
	KindGroq        = "groq"
	KindHuggingFace = "huggingface"
	KindOpenAI      = "openai"
	KindAnthropic   = "anthropic"
	KindMistral     = "mistral"
)

// ProviderSpec describes one ranked provider.
type ProviderSpec struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"apiKeyEnv"`
	BaseURL   string `yaml:"baseURL"`
	Disabled  bool   `yaml:"disabled"`
}

type providersFile struct {
	Providers []ProviderSpec `yaml:"providers"`
}

// DefaultProviderSpecs is the built-in ranking used when no file is configured.
func DefaultProviderSpecs() []ProviderSpec {
	return []ProviderSpec{
		{Name: KindGroq, Kind: KindGroq, APIKeyEnv: "GROQ_API_KEY"},
		{Name: KindHuggingFace, Kind: KindHuggingFace, APIKeyEnv: "HUGGINGFACE_API_KEY"},
		{Name: KindOpenAI, Kind: KindOpenAI, APIKeyEnv: "OPENAI_API_KEY"},
		{Name: KindAnthropic, Kind: KindAnthropic, APIKeyEnv: "ANTHROPIC_API_KEY"},
		{Name: KindMistral, Kind: KindMistral, APIKeyEnv: "MISTRAL_API_KEY"},
	}
}

// LoadProviderSpecs reads the ranking from path, or returns the defaults when path is empty.
func LoadProviderSpecs(path string) ([]ProviderSpec, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultProviderSpecs(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	return ParseProviderSpecs(data)
}

// ParseProviderSpecs decodes a YAML provider ranking.
func ParseProviderSpecs(data []byte) ([]ProviderSpec, error) {
	var file providersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	specs := make([]ProviderSpec, 0, len(file.Providers))
	seen := map[string]bool{}
	for i, spec := range file.Providers {
		spec.Kind = strings.ToLower(strings.TrimSpace(spec.Kind))
		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			spec.Name = spec.Kind
		}
		if !knownKind(spec.Kind) {
			return nil, fmt.Errorf("provider %d: unknown kind %q", i, spec.Kind)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("provider %d: duplicate name %q", i, spec.Name)
		}
		seen[spec.Name] = true
		if spec.APIKeyEnv == "" {
			spec.APIKeyEnv = strings.ToUpper(spec.Kind) + "_API_KEY"
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// APIKey looks up the spec's key and ignores sample placeholders.
func (s ProviderSpec) APIKey(getenv func(string) string) (string, bool) {
	key := strings.TrimSpace(getenv(s.APIKeyEnv))
	if key == "" || isPlaceholderKey(key) {
		return "", false
	}
	return key, true
}

func isPlaceholderKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "your-") ||
		strings.Contains(lower, "-your") ||
		strings.HasSuffix(lower, "-here") ||
		lower == "changeme"
}

func knownKind(kind string) bool {
	switch kind {
	case KindGroq, KindHuggingFace, KindOpenAI, KindAnthropic, KindMistral:
		return true
	}
	return false
}
