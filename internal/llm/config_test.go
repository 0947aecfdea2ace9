package llm

import "testing"

func TestParseProviderSpecs(t *testing.T) {
	data := []byte(`
providers:
  - name: fast
    kind: Groq
    model: llama-3.1-8b-instant
  - kind: openai
    apiKeyEnv: FILMDECKS_OPENAI_KEY
    baseURL: https://proxy.internal/v1
`)
	specs, err := ParseProviderSpecs(data)
	if err != nil {
		t.Fatalf("ParseProviderSpecs: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].Name != "fast" || specs[0].Kind != KindGroq || specs[0].APIKeyEnv != "GROQ_API_KEY" {
		t.Fatalf("unexpected first spec %+v", specs[0])
	}
	if specs[1].Name != "openai" || specs[1].APIKeyEnv != "FILMDECKS_OPENAI_KEY" || specs[1].BaseURL != "https://proxy.internal/v1" {
		t.Fatalf("unexpected second spec %+v", specs[1])
	}
}

func TestParseProviderSpecsRejectsUnknownKind(t *testing.T) {
	if _, err := ParseProviderSpecs([]byte("providers:\n  - kind: cohere\n")); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestParseProviderSpecsRejectsDuplicates(t *testing.T) {
	if _, err := ParseProviderSpecs([]byte("providers:\n  - kind: groq\n  - kind: groq\n")); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestDefaultProviderOrder(t *testing.T) {
	want := []string{"groq", "huggingface", "openai", "anthropic", "mistral"}
	specs, err := LoadProviderSpecs("")
	if err != nil {
		t.Fatalf("LoadProviderSpecs: %v", err)
	}
	for i, spec := range specs {
		if spec.Name != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], spec.Name)
		}
	}
}

func TestAPIKeyIgnoresPlaceholders(t *testing.T) {
	spec := ProviderSpec{APIKeyEnv: "OPENAI_API_KEY"}
	for _, v := range []string{"", "sk-your-openai-key-here", "your-mistral-key-here", "sk-ant-your-key"} {
		if _, ok := spec.APIKey(func(string) string { return v }); ok {
			t.Fatalf("expected %q to be ignored", v)
		}
	}
	if key, ok := spec.APIKey(func(string) string { return " sk-live " }); !ok || key != "sk-live" {
		t.Fatalf("expected real key, got %q %v", key, ok)
	}
}
