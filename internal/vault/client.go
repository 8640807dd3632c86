// Package vault reads exchange API credentials from a HashiCorp Vault KV v2
// secret so keys never have to live in the environment on shared hosts.
package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// Config holds Vault connection settings.
type Config struct {
	Enabled    bool
	Address    string
	Token      string
	MountPath  string // KV v2 mount, e.g. "secret"
	SecretPath string // path under the mount, e.g. "signal-bot/binance"
}

// Client wraps the HashiCorp Vault client.
type Client struct {
	client *api.Client
	cfg    Config
}

// NewClient creates a new Vault client.
func NewClient(cfg Config) (*Client, error) {
	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, cfg: cfg}, nil
}

// ReadAPIKey fetches the exchange api_key/secret_key pair from the
// configured secret path.
func (c *Client) ReadAPIKey(ctx context.Context) (apiKey, secretKey string, err error) {
	path := fmt.Sprintf("%s/data/%s", c.cfg.MountPath, c.cfg.SecretPath)

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read secret at %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", "", fmt.Errorf("no secret found at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("unexpected secret format at %s", path)
	}

	apiKey, _ = data["api_key"].(string)
	secretKey, _ = data["secret_key"].(string)
	if apiKey == "" || secretKey == "" {
		return "", "", fmt.Errorf("secret at %s is missing api_key or secret_key", path)
	}
	return apiKey, secretKey, nil
}
