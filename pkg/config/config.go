// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the harness configuration and binds it to a
// cluster session.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/google/uuid"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/resource"
	"sigs.k8s.io/yaml"
)

// KubeconfigEnv names the environment variable pointing at the cluster
// credentials.
const KubeconfigEnv = "KUBECONFIG"

// DefaultNodeSelector selects the nodes workloads are scheduled on.
const DefaultNodeSelector = "node-role.kubernetes.io/compute=true"

// Config holds the settings shared by every fixture of a test run.
type Config struct {
	// Kubeconfig is the path of the cluster credentials file.
	Kubeconfig string `json:"kubeconfig,omitempty"`
	// Context selects a kubeconfig context other than the current one.
	Context string `json:"context,omitempty"`

	KubectlBinary string `json:"kubectl,omitempty"`
	VirtctlBinary string `json:"virtctl,omitempty"`

	DefaultTimeout  metav1.Duration `json:"defaultTimeout,omitempty"`
	DefaultInterval metav1.Duration `json:"defaultInterval,omitempty"`

	// NodeSelector selects the nodes fixtures prepare.
	NodeSelector string `json:"nodeSelector,omitempty"`
	// Namespaces maps a suite name to the namespace its fixtures use.
	Namespaces map[string]string `json:"namespaces,omitempty"`
}

// Default returns a configuration with every optional field set.
func Default() *Config {
	return &Config{
		KubectlBinary:   resource.DefaultKubectl,
		VirtctlBinary:   resource.DefaultVirtctl,
		DefaultTimeout:  metav1.Duration{Duration: resource.DefaultTimeout},
		DefaultInterval: metav1.Duration{Duration: resource.DefaultInterval},
		NodeSelector:    DefaultNodeSelector,
		Namespaces:      map[string]string{},
	}
}

// Load reads a configuration file on top of the defaults and applies
// the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(b, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config file %s: %w", path, err)
		}
		klog.V(4).Infof("loaded harness config from %s", path)
	}
	cfg.ApplyEnv()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path. An existing file is only
// replaced when overwrite is set.
func (c *Config) Save(path string, overwrite bool) error {
	if fileExists(path) && !overwrite {
		return fmt.Errorf("config file %s already exists", path)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	klog.V(4).Infof("writing harness config to %s", path)
	return os.WriteFile(path, b, 0600)
}

// ApplyEnv fills Kubeconfig from the environment when it is not set.
func (c *Config) ApplyEnv() {
	if c.Kubeconfig == "" {
		c.Kubeconfig = os.Getenv(KubeconfigEnv)
	}
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.KubectlBinary == "" {
		c.KubectlBinary = d.KubectlBinary
	}
	if c.VirtctlBinary == "" {
		c.VirtctlBinary = d.VirtctlBinary
	}
	if c.DefaultTimeout.Duration == 0 {
		c.DefaultTimeout = d.DefaultTimeout
	}
	if c.DefaultInterval.Duration == 0 {
		c.DefaultInterval = d.DefaultInterval
	}
	if c.NodeSelector == "" {
		c.NodeSelector = d.NodeSelector
	}
	if c.Namespaces == nil {
		c.Namespaces = map[string]string{}
	}
}

// Validate checks the wait bounds and the namespace names.
func (c *Config) Validate() error {
	if c.DefaultTimeout.Duration < 0 {
		return fmt.Errorf("defaultTimeout must not be negative: %s", c.DefaultTimeout.Duration)
	}
	if c.DefaultInterval.Duration < 0 {
		return fmt.Errorf("defaultInterval must not be negative: %s", c.DefaultInterval.Duration)
	}
	for suite, ns := range c.Namespaces {
		if !ValidateNamespaceName(ns) {
			return fmt.Errorf("invalid namespace %q for suite %s", ns, suite)
		}
	}
	return nil
}

// CheckKubeconfig fails when the configured credentials file does not
// exist. An unset path is accepted; the client then falls back to the
// in-cluster or home directory configuration.
func (c *Config) CheckKubeconfig() error {
	if c.Kubeconfig == "" {
		return nil
	}
	if !fileExists(c.Kubeconfig) {
		return &backend.UnavailableError{Reason: fmt.Sprintf("kubeconfig %s does not exist", c.Kubeconfig)}
	}
	return nil
}

// WaitOptions returns the configured wait bounds.
func (c *Config) WaitOptions() resource.WaitOptions {
	return resource.Within(c.DefaultTimeout.Duration, c.DefaultInterval.Duration)
}

// Namespace returns the namespace configured for a suite, or def.
func (c *Config) Namespace(suite, def string) string {
	if ns := c.Namespaces[suite]; ns != "" {
		return ns
	}
	return def
}

// RandomNamespace returns prefix followed by a random suffix, usable as
// a throw-away namespace name.
func RandomNamespace(prefix string) (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	name := prefix + u.String()[:8]
	if !ValidateNamespaceName(name) {
		return "", fmt.Errorf("invalid namespace prefix: %q", prefix)
	}
	return name, nil
}

// Must begin and end with a lowercase alphanumeric character with
// dashes and lowercase alphanumerics between.
const namespaceRegexp = `^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`

var namespaceRe = regexp.MustCompile(namespaceRegexp)

// ValidateNamespaceName returns true if name is a valid namespace name.
// It must not be empty nor longer than 63 characters.
func ValidateNamespaceName(name string) bool {
	if len(name) == 0 || len(name) > 63 {
		return false
	}
	return namespaceRe.MatchString(name)
}

// fileExists returns true if a file at path already exists;
// false otherwise.
func fileExists(path string) bool {
	f, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !f.IsDir()
}

// durationOrDefault keeps zero durations from leaking into samplers.
func durationOrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
