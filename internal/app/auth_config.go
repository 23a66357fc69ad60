package app

import (
	"strings"

	"github.com/kidslab/kidsmove/internal/auth"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// MagicLinkServiceConfig converts AuthConfig into MagicLinkService parameters.
func (c AuthConfig) MagicLinkServiceConfig(baseURL string) auth.MagicLinkConfig {
	ttl := c.MagicLink.TTL
	if ttl <= 0 {
		ttl = auth.DefaultMagicLinkTTL
	}

	return auth.MagicLinkConfig{
		BaseURL: strings.TrimSpace(baseURL),
		TTL:     ttl,
	}
}
