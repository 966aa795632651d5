package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

// Secrets file parameters.
const (
	secretsFileName = "secrets.json.enc"
	saltSize        = 16
	nonceSize       = 12
	scryptN         = 32768 // 2^15
	scryptR         = 8
	scryptP         = 1
	keySize         = 32 // AES-256
)

// Environment variable names checked for API keys, by provider.
//
//nolint:gochecknoglobals // static lookup table
var providerKeyEnvVars = map[string]string{
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderGoogle:    "GEMINI_API_KEY",
}

// Secrets holds decrypted secret values in memory.
type Secrets struct {
	values map[string]string
}

// NewSecrets creates an empty in-memory secrets set.
func NewSecrets() *Secrets {
	return &Secrets{values: make(map[string]string)}
}

// Set stores a secret value in memory.
func (s *Secrets) Set(name, value string) {
	s.values[name] = value
}

// Get returns a secret by name with standard precedence: the decrypted
// secrets file first, then the environment.
func (s *Secrets) Get(name string) (string, error) {
	if s != nil {
		if value, ok := s.values[name]; ok && value != "" {
			return value, nil
		}
	}
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("secret %s not found in secrets file or environment", name)
}

// APIKeyFor resolves the API key for an LLM provider. Ollama needs no key.
func (s *Secrets) APIKeyFor(provider string) (string, error) {
	if provider == ProviderOllama {
		return "", nil
	}
	envVar, ok := providerKeyEnvVars[provider]
	if !ok {
		return "", fmt.Errorf("unknown provider: %s", provider)
	}
	return s.Get(envVar)
}

// SecretsFileExists checks whether an encrypted secrets file is present.
func SecretsFileExists(storageDir string) bool {
	_, err := os.Stat(filepath.Join(storageDir, secretsFileName))
	return err == nil
}

// SaveSecretsFile encrypts the secrets with a password-derived key and writes
// them to storageDir. File layout: salt || nonce || GCM ciphertext, mode 0600.
func SaveSecretsFile(storageDir, password string, secrets *Secrets) error {
	passwordBytes := []byte(password)
	defer zero(passwordBytes)

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key(passwordBytes, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return fmt.Errorf("failed to derive encryption key: %w", err)
	}
	defer zero(key)

	plaintext, err := json.Marshal(secrets.values)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	payload := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	payload = append(payload, salt...)
	payload = append(payload, nonce...)
	payload = append(payload, ciphertext...)

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}
	path := filepath.Join(storageDir, secretsFileName)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

// LoadSecretsFile decrypts the secrets file with the given password.
func LoadSecretsFile(storageDir, password string) (*Secrets, error) {
	path := filepath.Join(storageDir, secretsFileName)
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	if len(payload) < saltSize+nonceSize {
		return nil, fmt.Errorf("secrets file is truncated")
	}
	salt := payload[:saltSize]
	nonce := payload[saltSize : saltSize+nonceSize]
	ciphertext := payload[saltSize+nonceSize:]

	passwordBytes := []byte(password)
	defer zero(passwordBytes)

	key, err := scrypt.Key(passwordBytes, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive decryption key: %w", err)
	}
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secrets (wrong password?): %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted secrets: %w", err)
	}
	return &Secrets{values: values}, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
