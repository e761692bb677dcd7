package config

import "fmt"

// FederatedConfig identifies the external identity issuer trusted for
// federated login. The defaults follow the Firebase token scheme, where the
// issuer URL embeds the project id and the audience is the project id itself.
type FederatedConfig interface {
	GetFederatedIssuer() string
	GetFederatedAudience() string
}

type Federated struct{}

var _ FederatedConfig = Federated{}

func (Federated) GetFederatedIssuer() string {
	if issuer := GetEnv("OIDC_ISSUER", ""); issuer != "" {
		return issuer
	}
	return fmt.Sprintf("https://securetoken.google.com/%s", GetEnv("PROJECT_ID", ""))
}

func (Federated) GetFederatedAudience() string {
	if aud := GetEnv("OIDC_AUDIENCE", ""); aud != "" {
		return aud
	}
	return GetEnv("PROJECT_ID", "")
}
