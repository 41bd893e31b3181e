package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"
)

// resolveVault reads one key of a Vault secret, for `${VAULT:path#key}`
// references in the source or destination credentials. The client is built
// fresh per reference from VAULT_ADDR and VAULT_TOKEN; config loading is
// rare enough that caching it would buy nothing.
func resolveVault(ref string) (string, error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok {
		return "", fmt.Errorf("invalid Vault reference %q: want path#key", ref)
	}

	addr := os.Getenv("VAULT_ADDR")
	if addr == "" {
		return "", fmt.Errorf("resolving %q: VAULT_ADDR not set", ref)
	}
	token := os.Getenv("VAULT_TOKEN")
	if token == "" {
		return "", fmt.Errorf("resolving %q: VAULT_TOKEN not set", ref)
	}

	vcfg := api.DefaultConfig()
	vcfg.Address = addr

	client, err := api.NewClient(vcfg)
	if err != nil {
		return "", fmt.Errorf("creating Vault client: %w", err)
	}
	client.SetToken(token)

	secret, err := client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("reading Vault secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no Vault secret at %s", path)
	}

	// KV v2 wraps the payload in a "data" sub-key
	data := secret.Data
	if inner, ok := data["data"].(map[string]interface{}); ok {
		data = inner
	}

	val, ok := data[key]
	if !ok {
		return "", fmt.Errorf("Vault secret %s has no key %q", path, key)
	}
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("Vault secret %s key %q is not a string", path, key)
	}
	return str, nil
}
