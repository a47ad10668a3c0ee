package xray

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/user/xrayboard/internal/model"
)

const defaultFlow = "xtls-rprx-vision"

var labelSafe = regexp.MustCompile(`[^a-zA-Z0-9_\-.]+`)

// AddClient provisions a new client under the given email with a fresh
// UUID and the default flow, then applies and restarts.
func (m *Manager) AddClient(ctx context.Context, email string) (model.Client, error) {
	if email == "" {
		return model.Client{}, fmt.Errorf("email required")
	}
	clients, err := m.ListClients()
	if err != nil {
		return model.Client{}, err
	}
	for _, c := range clients {
		if c.Email == email {
			return model.Client{}, fmt.Errorf("client %s already exists", email)
		}
	}

	client := model.Client{
		Email: email,
		ID:    uuid.New().String(),
		Flow:  defaultFlow,
	}
	if err := m.setClients(ctx, append(clients, client)); err != nil {
		return model.Client{}, err
	}
	m.log.Info("client added: %s", email)
	return client, nil
}

// RemoveClient deletes a client by email, then applies and restarts.
func (m *Manager) RemoveClient(ctx context.Context, email string) error {
	clients, err := m.ListClients()
	if err != nil {
		return err
	}
	kept := clients[:0]
	for _, c := range clients {
		if c.Email != email {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(clients) {
		return fmt.Errorf("client %s not found", email)
	}
	if err := m.setClients(ctx, kept); err != nil {
		return err
	}
	m.log.Info("client removed: %s", email)
	return nil
}

// RotateClient replaces a client's UUID, invalidating any link the old
// credential was shared through. Active sessions drop on restart.
func (m *Manager) RotateClient(ctx context.Context, email string) (model.Client, error) {
	clients, err := m.ListClients()
	if err != nil {
		return model.Client{}, err
	}
	var rotated *model.Client
	for i := range clients {
		if clients[i].Email == email {
			clients[i].ID = uuid.New().String()
			rotated = &clients[i]
			break
		}
	}
	if rotated == nil {
		return model.Client{}, fmt.Errorf("client %s not found", email)
	}
	if err := m.setClients(ctx, clients); err != nil {
		return model.Client{}, err
	}
	m.log.Info("client rotated: %s", email)
	return *rotated, nil
}

// setClients replaces the inbound's client list: backup, write, restart.
// If the service fails to restart the backup is restored and the service
// restarted again, so a bad edit never leaves the proxy down.
func (m *Manager) setClients(ctx context.Context, clients []model.Client) error {
	cfg, err := m.loadConfig()
	if err != nil {
		return err
	}
	ib := m.findInbound(cfg)
	if ib == nil {
		return fmt.Errorf("no VLESS inbound in proxy config")
	}

	raw := make([]any, 0, len(clients))
	for _, c := range clients {
		entry := map[string]any{"id": c.ID, "email": c.Email}
		if c.Flow != "" {
			entry["flow"] = c.Flow
		}
		raw = append(raw, entry)
	}
	settings, ok := ib["settings"].(map[string]any)
	if !ok {
		settings = map[string]any{}
		ib["settings"] = settings
	}
	settings["clients"] = raw

	backup, err := m.backupConfig("clients_update")
	if err != nil {
		return err
	}
	if err := m.saveConfig(cfg); err != nil {
		return err
	}

	if err := m.Restart(ctx, m.cfg.XrayService); err != nil {
		m.log.Error("restart failed, rolling back: %v", err)
		if rbErr := copyFile(backup, m.cfg.XrayConfigPath); rbErr != nil {
			return fmt.Errorf("restart failed and rollback failed: %v (restart: %w)", rbErr, err)
		}
		m.Restart(ctx, m.cfg.XrayService)
		return fmt.Errorf("restart failed, rolled back: %w", err)
	}
	return nil
}

// backupConfig copies the current config into the backups directory under
// a timestamped name and returns the backup path.
func (m *Manager) backupConfig(label string) (string, error) {
	if err := os.MkdirAll(m.cfg.BackupsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backups dir: %w", err)
	}
	ts := time.Now().UTC().Format("20060102_150405")
	label = labelSafe.ReplaceAllString(label, "_")
	name := fmt.Sprintf("%s__%s__%s", ts, label, filepath.Base(m.cfg.XrayConfigPath))
	dst := filepath.Join(m.cfg.BackupsDir, name)
	if err := copyFile(m.cfg.XrayConfigPath, dst); err != nil {
		return "", fmt.Errorf("failed to back up config: %w", err)
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
