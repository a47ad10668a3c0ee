package xray

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/user/xrayboard/internal/model"
)

const (
	restartTimeout = 30 * time.Second
	statusTimeout  = 10 * time.Second
)

// execRunner shells out for real. Tests substitute a stub.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// allowed guards the systemctl surface: only the configured proxy service
// (plus the stock unit name) may be restarted through the dashboard.
func (m *Manager) allowed(service string) bool {
	return service == "xray" || service == m.cfg.XrayService
}

// Restart restarts a service via systemctl.
func (m *Manager) Restart(ctx context.Context, service string) error {
	if !m.allowed(service) {
		return fmt.Errorf("service not allowed: %s", service)
	}
	ctx, cancel := context.WithTimeout(ctx, restartTimeout)
	defer cancel()

	out, err := m.runner.Run(ctx, "systemctl", "restart", service)
	if err != nil {
		msg := strings.TrimSpace(out)
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("failed to restart %s: %s", service, msg)
	}
	return nil
}

// Status queries a service's systemd state.
func (m *Manager) Status(ctx context.Context, service string) model.ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	out, err := m.runner.Run(ctx, "systemctl", "is-active", service)
	state := strings.TrimSpace(out)
	if state == "" && err != nil {
		state = "unknown"
	}
	return model.ServiceStatus{
		Service: service,
		Active:  err == nil && state == "active",
		State:   state,
	}
}
