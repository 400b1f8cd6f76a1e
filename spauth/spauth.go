package spauth

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// Strategy identifies how the process authenticates against the tenant.
type Strategy string

const (
	// StrategyManagedIdentity authenticates with the hosting platform's
	// managed identity (user-assigned when a client ID is configured).
	StrategyManagedIdentity Strategy = "managed_identity"

	// StrategyAzureCLI authenticates with the developer's CLI login. The
	// materialized credential chains the Azure CLI and Azure Developer CLI
	// so either login satisfies it.
	StrategyAzureCLI Strategy = "azure_cli"

	// StrategyAzureDeveloperCLI authenticates with the Azure Developer CLI
	// login only.
	StrategyAzureDeveloperCLI Strategy = "azure_developer_cli"

	// StrategyClientCertificate authenticates as an app registration with a
	// client certificate.
	StrategyClientCertificate Strategy = "client_certificate"

	// StrategyDefaultChain walks the SDK's default credential chain.
	StrategyDefaultChain Strategy = "default_chain"
)

// Config holds the identity configuration for the process.
type Config struct {
	TenantID             string
	ClientID             string
	UserAssignedClientID string
	CertPath             string
	CertPassword         string
	Strategy             Strategy
	LocalEnvironment     bool
	SharePointDomain     string
}

// FromEnv loads identity configuration from environment variables.
func FromEnv() (Config, error) {
	// Environment should already be loaded by main.go
	localEnv, _ := strconv.ParseBool(os.Getenv("SP_LOCAL_ENVIRONMENT"))
	cfg := Config{
		TenantID:             os.Getenv("SP_TENANT_ID"),
		ClientID:             os.Getenv("SP_CLIENT_ID"),
		UserAssignedClientID: os.Getenv("SP_USER_ASSIGNED_CLIENT_ID"),
		CertPath:             os.Getenv("SP_CERT_PATH"),
		CertPassword:         os.Getenv("SP_CERT_PASSWORD"),
		Strategy:             Strategy(os.Getenv("SP_AUTH_STRATEGY")),
		LocalEnvironment:     localEnv,
		SharePointDomain:     os.Getenv("SP_DOMAIN"),
	}
	if cfg.SharePointDomain == "" {
		cfg.SharePointDomain = "sharepoint.com"
	}

	switch cfg.Strategy {
	case "", StrategyManagedIdentity, StrategyAzureCLI, StrategyAzureDeveloperCLI,
		StrategyClientCertificate, StrategyDefaultChain:
	default:
		return cfg, fmt.Errorf("unknown auth strategy %q", cfg.Strategy)
	}

	if cfg.CertPath != "" && (cfg.TenantID == "" || cfg.ClientID == "") {
		return cfg, fmt.Errorf("missing required configuration: SP_TENANT_ID and SP_CLIENT_ID are required with SP_CERT_PATH")
	}
	return cfg, nil
}

// ResolveStrategy picks the credential strategy for this process. The choice
// is made once at startup from configuration, never per request.
func ResolveStrategy(cfg Config) Strategy {
	if cfg.Strategy != "" {
		return cfg.Strategy
	}
	switch {
	case cfg.CertPath != "":
		return StrategyClientCertificate
	case cfg.LocalEnvironment:
		return StrategyAzureCLI
	case cfg.UserAssignedClientID != "":
		return StrategyManagedIdentity
	default:
		return StrategyDefaultChain
	}
}

// NewTokenCredential materializes the resolved strategy as a token
// credential. Called once per process; every site connection shares the
// returned credential.
func NewTokenCredential(cfg Config) (azcore.TokenCredential, error) {
	strategy := ResolveStrategy(cfg)
	switch strategy {
	case StrategyManagedIdentity:
		if cfg.UserAssignedClientID != "" {
			return azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
				ID: azidentity.ClientID(cfg.UserAssignedClientID),
			})
		}
		return azidentity.NewManagedIdentityCredential(nil)

	case StrategyAzureCLI:
		cli, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
			TenantID: cfg.TenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("create azure cli credential: %w", err)
		}
		azd, err := azidentity.NewAzureDeveloperCLICredential(&azidentity.AzureDeveloperCLICredentialOptions{
			TenantID: cfg.TenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("create azure developer cli credential: %w", err)
		}
		return azidentity.NewChainedTokenCredential([]azcore.TokenCredential{cli, azd}, nil)

	case StrategyAzureDeveloperCLI:
		return azidentity.NewAzureDeveloperCLICredential(&azidentity.AzureDeveloperCLICredentialOptions{
			TenantID: cfg.TenantID,
		})

	case StrategyClientCertificate:
		certData, err := os.ReadFile(cfg.CertPath)
		if err != nil {
			return nil, fmt.Errorf("read certificate %s: %w", cfg.CertPath, err)
		}
		var password []byte
		if cfg.CertPassword != "" {
			password = []byte(cfg.CertPassword)
		}
		certs, key, err := azidentity.ParseCertificates(certData, password)
		if err != nil {
			return nil, fmt.Errorf("parse certificate %s: %w", cfg.CertPath, err)
		}
		return azidentity.NewClientCertificateCredential(cfg.TenantID, cfg.ClientID, certs, key, nil)

	default:
		return azidentity.NewDefaultAzureCredential(nil)
	}
}
