package xray

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// RealityParams is everything a client needs to connect to a Reality
// inbound, extracted from the proxy config plus dashboard settings.
type RealityParams struct {
	Host        string
	Port        int
	PublicKey   string
	SNI         string
	ShortID     string
	Fingerprint string
	Flow        string
}

var base64Key = regexp.MustCompile(`[A-Za-z0-9_-]{43,44}`)

// RealityParams reads the managed inbound's Reality settings. The public
// key comes from the reality_pbk setting when present, otherwise it is
// derived from the inbound's private key via `xray x25519`.
func (m *Manager) RealityParams(ctx context.Context) (*RealityParams, error) {
	cfg, err := m.loadConfig()
	if err != nil {
		return nil, err
	}
	ib := m.findInbound(cfg)
	if ib == nil {
		return nil, fmt.Errorf("no VLESS inbound in proxy config")
	}

	stream, _ := ib["streamSettings"].(map[string]any)
	if stream["security"] != "reality" {
		return nil, fmt.Errorf("inbound has no Reality security")
	}
	rs, _ := stream["realitySettings"].(map[string]any)

	port := 443
	if p, ok := ib["port"].(float64); ok && p > 0 {
		port = int(p)
	}

	sni := "www.cloudflare.com"
	if names, ok := rs["serverNames"].([]any); ok && len(names) > 0 {
		if s, ok := names[0].(string); ok && s != "" {
			sni = s
		}
	}
	sid := ""
	if ids, ok := rs["shortIds"].([]any); ok && len(ids) > 0 {
		sid, _ = ids[0].(string)
	}

	priv, _ := rs["privateKey"].(string)
	pbk, err := m.publicKey(ctx, priv)
	if err != nil {
		return nil, err
	}

	return &RealityParams{
		Host:        m.cfg.PublicHost,
		Port:        port,
		PublicKey:   pbk,
		SNI:         sni,
		ShortID:     sid,
		Fingerprint: m.cfg.Fingerprint,
		Flow:        m.cfg.Flow,
	}, nil
}

// publicKey resolves the Reality public key: configured override first,
// then derivation from the private key through the xray binary.
func (m *Manager) publicKey(ctx context.Context, priv string) (string, error) {
	if pbk := strings.TrimSpace(m.cfg.RealityPBK); pbk != "" {
		return pbk, nil
	}
	priv = strings.TrimSpace(priv)
	if priv == "" {
		return "", fmt.Errorf("no Reality private key and no reality_pbk configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := m.runner.Run(ctx, "xray", "x25519", "-i", priv)
	if err != nil {
		return "", fmt.Errorf("failed to derive public key: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if key := base64Key.FindString(line); key != "" && key != priv {
			return key, nil
		}
	}
	return "", fmt.Errorf("no public key in x25519 output")
}

// BuildLink produces the vless:// share URL for a provisioned client.
func (m *Manager) BuildLink(ctx context.Context, email string) (string, error) {
	clients, err := m.ListClients()
	if err != nil {
		return "", err
	}
	id := ""
	for _, c := range clients {
		if c.Email == email {
			id = c.ID
			break
		}
	}
	if id == "" {
		return "", fmt.Errorf("client %s not found", email)
	}

	params, err := m.RealityParams(ctx)
	if err != nil {
		return "", err
	}
	if params.Host == "" {
		return "", fmt.Errorf("public_host not configured")
	}

	q := url.Values{}
	q.Set("encryption", "none")
	q.Set("security", "reality")
	q.Set("sni", params.SNI)
	q.Set("fp", params.Fingerprint)
	q.Set("pbk", params.PublicKey)
	q.Set("sid", params.ShortID)
	q.Set("type", "tcp")
	q.Set("flow", params.Flow)

	return fmt.Sprintf("vless://%s@%s:%d?%s#%s",
		id, params.Host, params.Port, q.Encode(), url.QueryEscape(email)), nil
}
