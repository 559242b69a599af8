package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPITimeout           = 30 * time.Second
	defaultMaxResponseBodyBytes = 10 << 20 // 10 MiB
	defaultIdentityAuthURL      = "https://identitytoolkit.googleapis.com/v1"
	defaultIdentityTokenURL     = "https://securetoken.googleapis.com/v1/token"
	defaultIdentityRenewBefore  = 2 * time.Minute
	defaultUserAgent            = "go-attendance"
	defaultServiceName          = "attendance"
	maxAllowedResponseBodyBytes = 256 << 20
	minimumAllowedAPITimeout    = 100 * time.Millisecond
	maxIdentityRenewBefore      = time.Hour
)

type APIConfig struct {
	BaseURL              string        `koanf:"base_url" mapstructure:"base_url"`
	Timeout              time.Duration `koanf:"timeout" mapstructure:"timeout"`
	MaxResponseBodyBytes int64         `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
	UserAgent            string        `koanf:"user_agent" mapstructure:"user_agent"`
}

type IdentityConfig struct {
	APIKey      string        `koanf:"api_key" mapstructure:"api_key"`
	AuthURL     string        `koanf:"auth_url" mapstructure:"auth_url"`
	TokenURL    string        `koanf:"token_url" mapstructure:"token_url"`
	RenewBefore time.Duration `koanf:"renew_before" mapstructure:"renew_before"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	API         APIConfig      `koanf:"api" mapstructure:"api"`
	Identity    IdentityConfig `koanf:"identity" mapstructure:"identity"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: defaultServiceName,
		API: APIConfig{
			Timeout:              defaultAPITimeout,
			MaxResponseBodyBytes: defaultMaxResponseBodyBytes,
			UserAgent:            defaultUserAgent,
		},
		Identity: IdentityConfig{
			AuthURL:     defaultIdentityAuthURL,
			TokenURL:    defaultIdentityTokenURL,
			RenewBefore: defaultIdentityRenewBefore,
		},
	}
}

// Validate reports configuration errors. It does not mutate the receiver; use
// Normalized to obtain the canonical form used by the client.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if base := strings.TrimSpace(c.API.BaseURL); base != "" {
		parsed, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("core: api.base_url is invalid: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("core: api.base_url scheme must be http or https")
		}
		if parsed.Host == "" {
			return fmt.Errorf("core: api.base_url host is required")
		}
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("core: api.timeout must be >= 0")
	}
	if c.API.Timeout > 0 && c.API.Timeout < minimumAllowedAPITimeout {
		return fmt.Errorf("core: api.timeout must be at least %s", minimumAllowedAPITimeout)
	}
	if c.API.MaxResponseBodyBytes < 0 || c.API.MaxResponseBodyBytes > maxAllowedResponseBodyBytes {
		return fmt.Errorf("core: api.max_response_body_bytes is out of range")
	}
	if c.Identity.RenewBefore < 0 || c.Identity.RenewBefore > maxIdentityRenewBefore {
		return fmt.Errorf("core: identity.renew_before is out of range")
	}
	return nil
}

func (c Config) Normalized() Config {
	out := c
	out.ServiceName = strings.TrimSpace(out.ServiceName)
	if out.ServiceName == "" {
		out.ServiceName = defaultServiceName
	}
	out.API.BaseURL = strings.TrimRight(strings.TrimSpace(out.API.BaseURL), "/")
	if out.API.Timeout == 0 {
		out.API.Timeout = defaultAPITimeout
	}
	if out.API.MaxResponseBodyBytes == 0 {
		out.API.MaxResponseBodyBytes = defaultMaxResponseBodyBytes
	}
	out.API.UserAgent = strings.TrimSpace(out.API.UserAgent)
	if out.API.UserAgent == "" {
		out.API.UserAgent = defaultUserAgent
	}
	out.Identity.APIKey = strings.TrimSpace(out.Identity.APIKey)
	out.Identity.AuthURL = strings.TrimRight(strings.TrimSpace(out.Identity.AuthURL), "/")
	if out.Identity.AuthURL == "" {
		out.Identity.AuthURL = defaultIdentityAuthURL
	}
	out.Identity.TokenURL = strings.TrimSpace(out.Identity.TokenURL)
	if out.Identity.TokenURL == "" {
		out.Identity.TokenURL = defaultIdentityTokenURL
	}
	if out.Identity.RenewBefore == 0 {
		out.Identity.RenewBefore = defaultIdentityRenewBefore
	}
	return out
}
