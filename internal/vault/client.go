// Package vault resolves the externally-provisioned market data API key from
// HashiCorp Vault, with a config fallback when Vault is disabled.
package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"squad-markets/config"
)

// Client wraps the HashiCorp Vault client
type Client struct {
	client *api.Client
	config config.VaultConfig

	mu        sync.RWMutex
	cachedKey string
}

// NewClient creates a new Vault client. When Vault is disabled the client
// only serves the fallback key.
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{CACert: cfg.CACert}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// MarketDataAPIKey returns the bearer credential for the market data service.
// With Vault enabled the key is read from the KV v2 secret at the configured
// path and cached for the process lifetime; otherwise fallback is returned.
func (c *Client) MarketDataAPIKey(ctx context.Context, fallback string) (string, error) {
	if !c.config.Enabled {
		return fallback, nil
	}

	c.mu.RLock()
	if c.cachedKey != "" {
		defer c.mu.RUnlock()
		return c.cachedKey, nil
	}
	c.mu.RUnlock()

	path := fmt.Sprintf("%s/data/%s", c.config.MountPath, c.config.SecretPath)
	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read market data secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("market data secret not found at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected secret format at %s", path)
	}

	key, ok := data["api_key"].(string)
	if !ok || key == "" {
		return "", fmt.Errorf("api_key missing from secret at %s", path)
	}

	c.mu.Lock()
	c.cachedKey = key
	c.mu.Unlock()

	return key, nil
}
