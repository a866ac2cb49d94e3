package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups this app’s secrets in the OS keychain.
	KeyringService = "job-validator"

	AccountOpenAI   = "openai_api_key"
	AccountOpenCage = "opencage_api_key"
)

// APIKey resolves a provider key: environment variable first, OS keyring
// as the fallback. Returns an error only when neither is set.
func APIKey(envName, keyringAccount string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v, nil
	}
	if strings.TrimSpace(keyringAccount) != "" {
		v, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	return "", errors.New("API key not found (set " + envName + " or store it in the keychain)")
}

func SetAPIKey(keyringAccount, value string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, value)
}

func DeleteAPIKey(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}
