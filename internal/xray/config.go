// Package xray manages the proxy server's JSON configuration: listing and
// editing VLESS clients, restarting the service, and building share links
// for Reality inbounds. Every config edit is backed up first and rolled
// back if the service fails to come back up.
package xray

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/xrayboard/internal/model"
	"github.com/user/xrayboard/internal/util"
)

// CommandRunner executes an external command and returns its combined
// output. It exists so tests can stub out systemctl and the xray binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Manager edits the proxy configuration at cfg.XrayConfigPath.
type Manager struct {
	cfg    *util.Config
	log    *util.Logger
	runner CommandRunner
}

// NewManager creates a manager over the configured proxy installation.
func NewManager(cfg *util.Config) *Manager {
	return &Manager{
		cfg:    cfg,
		log:    util.GetLogger(),
		runner: &execRunner{},
	}
}

// NewManagerWithRunner is NewManager with an injected command runner.
func NewManagerWithRunner(cfg *util.Config, runner CommandRunner) *Manager {
	m := NewManager(cfg)
	m.runner = runner
	return m
}

// loadConfig parses the proxy config file. The structure is kept as
// generic JSON because only the clients list and Reality settings are
// touched; everything else must survive a round-trip untouched.
func (m *Manager) loadConfig() (map[string]any, error) {
	data, err := os.ReadFile(m.cfg.XrayConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy config: %w", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse proxy config: %w", err)
	}
	return cfg, nil
}

// saveConfig writes the config atomically: a temp file in the same
// directory followed by a rename, so a crash never leaves a half-written
// config for the service to choke on.
func (m *Manager) saveConfig(cfg map[string]any) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode proxy config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(m.cfg.XrayConfigPath)
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp config: %w", err)
	}
	if err := os.Rename(tmpName, m.cfg.XrayConfigPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace proxy config: %w", err)
	}
	return nil
}

// findInbound locates the inbound to manage: the one matching the
// configured tag when set, otherwise the first VLESS inbound.
func (m *Manager) findInbound(cfg map[string]any) map[string]any {
	inbounds, _ := cfg["inbounds"].([]any)
	if m.cfg.InboundTag != "" {
		for _, raw := range inbounds {
			ib, ok := raw.(map[string]any)
			if ok && ib["tag"] == m.cfg.InboundTag {
				return ib
			}
		}
	}
	for _, raw := range inbounds {
		ib, ok := raw.(map[string]any)
		if ok && ib["protocol"] == "vless" {
			return ib
		}
	}
	return nil
}

// clientsOf extracts the client list from an inbound.
func clientsOf(ib map[string]any) []model.Client {
	settings, _ := ib["settings"].(map[string]any)
	raw, _ := settings["clients"].([]any)

	clients := make([]model.Client, 0, len(raw))
	for _, r := range raw {
		c, ok := r.(map[string]any)
		if !ok {
			continue
		}
		email, _ := c["email"].(string)
		id, _ := c["id"].(string)
		flow, _ := c["flow"].(string)
		clients = append(clients, model.Client{Email: email, ID: id, Flow: flow})
	}
	return clients
}

// ListClients returns the provisioned VLESS clients.
func (m *Manager) ListClients() ([]model.Client, error) {
	cfg, err := m.loadConfig()
	if err != nil {
		return nil, err
	}
	ib := m.findInbound(cfg)
	if ib == nil {
		return nil, fmt.Errorf("no VLESS inbound in proxy config")
	}
	return clientsOf(ib), nil
}

// ListUsers returns the provisioned client emails. An unreadable proxy
// config degrades to an empty list so usage reporting keeps working on
// hosts where the dashboard runs without the proxy.
func (m *Manager) ListUsers() []string {
	clients, err := m.ListClients()
	if err != nil {
		m.log.Debug("client list unavailable: %v", err)
		return nil
	}
	users := make([]string, 0, len(clients))
	for _, c := range clients {
		if c.Email != "" {
			users = append(users, c.Email)
		}
	}
	return users
}
