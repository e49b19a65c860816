package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/glosshover/internal/glossary"
	"github.com/ppiankov/glosshover/internal/logging"
	"github.com/ppiankov/glosshover/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func TestResolveRender_Precedence(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Render.DefinitionCharLimit = 100

	limit := 40
	caseSensitive := false
	src := &termSource{overrides: &glossary.RenderOverrides{
		DefinitionCharLimit: &limit,
		CaseSensitive:       &caseSensitive,
	}}

	cmd := &cobra.Command{Use: "test"}
	var f renderFlags
	addRenderFlags(cmd, &f)
	if err := cmd.Flags().Set("limit", "10"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("disable-tag", "code,pre"); err != nil {
		t.Fatal(err)
	}

	render := resolveRender(cmd, cfg, src, &f)

	if render.DefinitionCharLimit != 10 {
		t.Errorf("Expected flag to win with limit 10, got %d", render.DefinitionCharLimit)
	}
	if render.CaseSensitive {
		t.Error("Expected glossary override to disable case sensitivity")
	}
	if !reflect.DeepEqual(render.DisabledTags, []string{"code", "pre"}) {
		t.Errorf("Expected disabled tags [code pre], got %v", render.DisabledTags)
	}
	if render.LinkMode {
		t.Error("Expected unset --link to keep the configured value")
	}
}

func TestResolveRender_NoOverrides(t *testing.T) {
	cfg := model.DefaultConfig()
	cmd := &cobra.Command{Use: "test"}
	var f renderFlags
	addRenderFlags(cmd, &f)

	render := resolveRender(cmd, cfg, &termSource{}, &f)
	if !reflect.DeepEqual(render, cfg.Render) {
		t.Errorf("Expected configured render settings, got %+v", render)
	}
}

func TestSetDefaults_EnvOverrides(t *testing.T) {
	t.Setenv("GLOSSHOVER_CACHE_BACKEND", "redis")
	t.Setenv("GLOSSHOVER_HTTP_TIMEOUT", "5s")
	t.Setenv("GLOSSHOVER_HTTP_HTTPS_PROXY", "http://proxy:3128")
	t.Setenv("GLOSSHOVER_LLM_API_KEY", "sk-test")
	t.Setenv("GLOSSHOVER_GLOSSARY_LONGEST_FIRST", "true")

	v := viper.New()
	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("setDefaults failed: %v", err)
	}
	v.SetEnvPrefix("GLOSSHOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg model.Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if cfg.Cache.Backend != "redis" {
		t.Errorf("Expected cache backend redis, got %q", cfg.Cache.Backend)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("Expected proxy from env, got %q", cfg.HTTP.HTTPSProxy)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("Expected api key from env, got %q", cfg.LLM.APIKey)
	}
	if !cfg.Glossary.LongestFirst {
		t.Error("Expected longest_first from env")
	}

	// Untouched keys keep their defaults
	defaults := model.DefaultConfig()
	if !reflect.DeepEqual(cfg.Render, defaults.Render) {
		t.Errorf("Expected default render settings, got %+v", cfg.Render)
	}
	if cfg.Cache.TTL != defaults.Cache.TTL {
		t.Errorf("Expected default TTL %v, got %v", defaults.Cache.TTL, cfg.Cache.TTL)
	}
}

func TestConfigFile_HostRatesAndKinds(t *testing.T) {
	v := viper.New()
	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("setDefaults failed: %v", err)
	}
	v.SetConfigType("yaml")
	file := `
rate_limiting:
  hosts:
    slow.example.com:
      requests_per_second: 0.5
      burst_size: 1
`
	if err := v.ReadConfig(strings.NewReader(file)); err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	var cfg model.Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := model.HostRateLimit{RequestsPerSecond: 0.5, BurstSize: 1}
	if got := cfg.RateLimiting.Hosts["slow.example.com"]; got != want {
		t.Errorf("Expected host limit %+v, got %+v", want, got)
	}
	if cfg.RateLimiting.RequestsPerSecond != 2 {
		t.Errorf("Expected default rate 2 to survive, got %v", cfg.RateLimiting.RequestsPerSecond)
	}
	if !reflect.DeepEqual(cfg.Content.EnabledKinds, []string{"post"}) {
		t.Errorf("Expected default enabled kinds [post], got %v", cfg.Content.EnabledKinds)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Written config is not valid YAML: %v", err)
	}
	if !reflect.DeepEqual(&cfg, model.DefaultConfig()) {
		t.Errorf("Expected written config to match defaults, got %+v", cfg)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when config already exists")
	}
}

func TestOpenSource(t *testing.T) {
	log := logging.Discard()

	cfg := model.DefaultConfig()
	if _, err := openSource(cfg, log); err != errNoGlossary {
		t.Errorf("Expected errNoGlossary, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "glossary.yaml")
	content := "render:\n  link_mode: true\nterms:\n  - term: cat\n    definition: feline\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Glossary.File = path

	src, err := openSource(cfg, log)
	if err != nil {
		t.Fatalf("openSource failed: %v", err)
	}
	if src.store != nil {
		t.Error("Expected file source, got term store")
	}
	if render := src.overrides.Apply(cfg.Render); !render.LinkMode {
		t.Error("Expected glossary render overrides to be loaded")
	}

	cfg.Glossary.DB = filepath.Join(t.TempDir(), "terms.db")
	src, err = openSource(cfg, log)
	if err != nil {
		t.Fatalf("openSource with db failed: %v", err)
	}
	defer func() { _ = src.Close() }()
	if src.store == nil {
		t.Error("Expected the term store to take precedence")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), "glosshover "+Version) {
		t.Errorf("Unexpected version output: %q", out.String())
	}
}
