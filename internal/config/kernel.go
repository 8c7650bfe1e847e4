package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/broomva/aios/pkg/protocol"
)

// KernelConfig is the on-disk policy-set and model-routing configuration
// for a new session, loaded from a single YAML document with environment
// variables expanded and unknown fields rejected, then defaulted.
type KernelConfig struct {
	Policy struct {
		AllowCapabilities  []string `yaml:"allow_capabilities"`
		GateCapabilities   []string `yaml:"gate_capabilities"`
		MaxToolRuntimeSecs uint64   `yaml:"max_tool_runtime_secs"`
		MaxEventsPerTurn   uint64   `yaml:"max_events_per_turn"`
	} `yaml:"policy"`
	ModelRouting struct {
		PrimaryModel   string   `yaml:"primary_model"`
		FallbackModels []string `yaml:"fallback_models"`
		Temperature    float32  `yaml:"temperature"`
	} `yaml:"model_routing"`
}

// LoadKernelConfig reads and decodes path into a KernelConfig. When the
// document lists neither allow nor gate capabilities, the whole policy block
// (including max_tool_runtime_secs and max_events_per_turn) is taken from
// protocol.DefaultPolicySet; when primary_model is empty, the whole routing
// block is taken from protocol.DefaultModelRouting. Any other zero field is
// kept as written.
func LoadKernelConfig(path string) (*KernelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kernel config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	var cfg KernelConfig
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse kernel config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("parse kernel config: expected single document")
	}

	applyKernelConfigDefaults(&cfg)
	return &cfg, nil
}

func applyKernelConfigDefaults(cfg *KernelConfig) {
	if len(cfg.Policy.AllowCapabilities) == 0 && len(cfg.Policy.GateCapabilities) == 0 {
		def := protocol.DefaultPolicySet()
		for _, c := range def.AllowCapabilities {
			cfg.Policy.AllowCapabilities = append(cfg.Policy.AllowCapabilities, string(c))
		}
		for _, c := range def.GateCapabilities {
			cfg.Policy.GateCapabilities = append(cfg.Policy.GateCapabilities, string(c))
		}
		cfg.Policy.MaxToolRuntimeSecs = def.MaxToolRuntimeSecs
		cfg.Policy.MaxEventsPerTurn = def.MaxEventsPerTurn
	}
	if cfg.ModelRouting.PrimaryModel == "" {
		def := protocol.DefaultModelRouting()
		cfg.ModelRouting.PrimaryModel = def.PrimaryModel
		cfg.ModelRouting.FallbackModels = def.FallbackModels
		cfg.ModelRouting.Temperature = def.Temperature
	}
}

// PolicySet converts the decoded document into a protocol.PolicySet.
func (c *KernelConfig) PolicySet() protocol.PolicySet {
	ps := protocol.PolicySet{
		MaxToolRuntimeSecs: c.Policy.MaxToolRuntimeSecs,
		MaxEventsPerTurn:   c.Policy.MaxEventsPerTurn,
	}
	for _, cap := range c.Policy.AllowCapabilities {
		ps.AllowCapabilities = append(ps.AllowCapabilities, protocol.Capability(cap))
	}
	for _, cap := range c.Policy.GateCapabilities {
		ps.GateCapabilities = append(ps.GateCapabilities, protocol.Capability(cap))
	}
	return ps
}

// Routing converts the decoded document into a protocol.ModelRouting.
func (c *KernelConfig) Routing() protocol.ModelRouting {
	return protocol.ModelRouting{
		PrimaryModel:   c.ModelRouting.PrimaryModel,
		FallbackModels: c.ModelRouting.FallbackModels,
		Temperature:    c.ModelRouting.Temperature,
	}
}
