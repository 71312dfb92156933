package config

type OidcConfig interface {
	OidcEnabled() bool
	GetOidcIssuer() string
	GetOidcClientID() string
	GetOidcClientSecret() string
	GetOidcRedirectURL() string
}

type Oidc struct{}

var _ OidcConfig = Oidc{}

// OidcEnabled reports whether federated login is configured. All four values
// below are required for the flow to be exposed.
func (o Oidc) OidcEnabled() bool {
	return o.GetOidcIssuer() != "" && o.GetOidcClientID() != "" &&
		o.GetOidcClientSecret() != "" && o.GetOidcRedirectURL() != ""
}

func (Oidc) GetOidcIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Oidc) GetOidcClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Oidc) GetOidcClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (Oidc) GetOidcRedirectURL() string {
	return GetEnv("OIDC_REDIRECT_URL", "")
}
