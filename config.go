package accounts

// BaseConfig is the concrete Config used by applications that do not carry
// their own configuration container. Construct it once at startup and hand
// it to NewAuthenticator and NewTokenService.
type BaseConfig struct {
	SigningKey      string   `json:"signing_key"`
	SigningMethod   string   `json:"signing_method"`
	ContextKey      string   `json:"context_key"`
	AccessTokenTTL  int      `json:"access_token_ttl"`
	RefreshTokenTTL int      `json:"refresh_token_ttl"`
	TokenLookup     string   `json:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme"`
	Issuer          string   `json:"issuer"`
	Audience        []string `json:"audience"`
}

var _ Config = (*BaseConfig)(nil)

func (c *BaseConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *BaseConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

func (c *BaseConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

// GetAccessTokenTTL returns the access token lifetime in minutes.
func (c *BaseConfig) GetAccessTokenTTL() int {
	if c.AccessTokenTTL <= 0 {
		return 30
	}
	return c.AccessTokenTTL
}

// GetRefreshTokenTTL returns the refresh token lifetime in days.
func (c *BaseConfig) GetRefreshTokenTTL() int {
	if c.RefreshTokenTTL <= 0 {
		return 7
	}
	return c.RefreshTokenTTL
}

func (c *BaseConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

func (c *BaseConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *BaseConfig) GetIssuer() string {
	return c.Issuer
}

func (c *BaseConfig) GetAudience() []string {
	return c.Audience
}
