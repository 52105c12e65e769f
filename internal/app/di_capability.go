package app

import (
	"context"
	"errors"
	"fmt"

	capHTTP "github.com/sovereignos/guard/internal/capability/http"
	capMySQL "github.com/sovereignos/guard/internal/capability/repository/mysql"
	capPostgreSQL "github.com/sovereignos/guard/internal/capability/repository/postgresql"
	capService "github.com/sovereignos/guard/internal/capability/service"
	capUseCase "github.com/sovereignos/guard/internal/capability/usecase"
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// CapabilityEnforcement returns the parsed capability enforcement mode.
func (c *Container) CapabilityEnforcement() (capService.Enforcement, error) {
	var err error
	c.capabilityEnforcementInit.Do(func() {
		c.capabilityEnforcement, err = capService.ParseEnforcement(c.config.CapabilityEnforcement)
		if err != nil {
			c.initErrors["capabilityEnforcement"] = err
		}
	})
	if err != nil {
		return "", err
	}
	if storedErr, exists := c.initErrors["capabilityEnforcement"]; exists {
		return "", storedErr
	}
	return c.capabilityEnforcement, nil
}

// CapabilitySigner returns the capability signer backed by the issuer's
// active signing key. Returns nil on verify-only deployments, which are
// recognized by CAPABILITY_PUBLIC_KEY being set: those nodes verify
// capabilities signed elsewhere and never mint their own.
func (c *Container) CapabilitySigner() (*capService.Signer, error) {
	var err error
	c.capabilitySignerInit.Do(func() {
		if c.config.CapabilityPublicKey != "" {
			return
		}
		c.capabilitySigner, err = c.initCapabilitySigner()
		if err != nil {
			c.initErrors["capabilitySigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["capabilitySigner"]; exists {
		return nil, storedErr
	}
	return c.capabilitySigner, nil
}

// CapabilityVerifier returns the capability verifier. The key comes from
// CAPABILITY_PUBLIC_KEY when set, otherwise from the issuer's active signing
// key in the database.
func (c *Container) CapabilityVerifier() (*capService.Verifier, error) {
	var err error
	c.capabilityVerifierInit.Do(func() {
		c.capabilityVerifier, err = c.initCapabilityVerifier()
		if err != nil {
			c.initErrors["capabilityVerifier"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["capabilityVerifier"]; exists {
		return nil, storedErr
	}
	return c.capabilityVerifier, nil
}

// GrantRepository returns the capability grant repository based on database driver.
func (c *Container) GrantRepository() (capUseCase.GrantRepository, error) {
	var err error
	c.grantRepositoryInit.Do(func() {
		c.grantRepository, err = c.initGrantRepository()
		if err != nil {
			c.initErrors["grantRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["grantRepository"]; exists {
		return nil, storedErr
	}
	return c.grantRepository, nil
}

// CapabilityUseCase returns the capability use case.
func (c *Container) CapabilityUseCase() (capUseCase.CapabilityUseCase, error) {
	var err error
	c.capabilityUseCaseInit.Do(func() {
		c.capabilityUseCase, err = c.initCapabilityUseCase()
		if err != nil {
			c.initErrors["capabilityUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["capabilityUseCase"]; exists {
		return nil, storedErr
	}
	return c.capabilityUseCase, nil
}

// CapabilityHandler returns the HTTP handler for capability operations.
func (c *Container) CapabilityHandler() (*capHTTP.CapabilityHandler, error) {
	var err error
	c.capabilityHandlerInit.Do(func() {
		var useCase capUseCase.CapabilityUseCase
		useCase, err = c.CapabilityUseCase()
		if err != nil {
			c.initErrors["capabilityHandler"] = err
			return
		}
		c.capabilityHandler = capHTTP.NewCapabilityHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["capabilityHandler"]; exists {
		return nil, storedErr
	}
	return c.capabilityHandler, nil
}

// initCapabilitySigner unseals the issuer's active signing seed and builds
// the signer from it.
func (c *Container) initCapabilitySigner() (*capService.Signer, error) {
	signingKeyUseCase, err := c.SigningKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key use case for capability signer: %w", err)
	}

	masterKeyChain, err := c.MasterKeyChain()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key chain for capability signer: %w", err)
	}

	signer, err := signingKeyUseCase.ActiveSigner(
		context.Background(),
		masterKeyChain,
		c.config.CapabilityIssuer,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to load active signing key for issuer %s: %w",
			c.config.CapabilityIssuer,
			err,
		)
	}
	return signer, nil
}

// initCapabilityVerifier builds the verifier from the configured public key
// or, absent one, from the issuer's active key. An issuer with no key yet
// yields a keyless verifier; with enforcement enabled the capability
// middleware then fails closed rather than approving unsigned tokens.
func (c *Container) initCapabilityVerifier() (*capService.Verifier, error) {
	publicKeyHex := c.config.CapabilityPublicKey

	if publicKeyHex == "" {
		signingKeyUseCase, err := c.SigningKeyUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get signing key use case for capability verifier: %w", err)
		}

		publicKeyHex, err = signingKeyUseCase.ActivePublicKey(
			context.Background(),
			c.config.CapabilityIssuer,
		)
		if err != nil && !errors.Is(err, keysDomain.ErrNoActiveSigningKey) {
			return nil, fmt.Errorf(
				"failed to load active public key for issuer %s: %w",
				c.config.CapabilityIssuer,
				err,
			)
		}
	}

	return capService.NewVerifier(publicKeyHex)
}

// initGrantRepository creates the grant repository based on the database driver.
func (c *Container) initGrantRepository() (capUseCase.GrantRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for grant repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return capPostgreSQL.NewPostgreSQLGrantRepository(db), nil
	case "mysql":
		return capMySQL.NewMySQLGrantRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCapabilityUseCase creates the capability use case with all its dependencies.
func (c *Container) initCapabilityUseCase() (capUseCase.CapabilityUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for capability use case: %w", err)
	}

	grantRepository, err := c.GrantRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get grant repository for capability use case: %w", err)
	}

	outboxRepository, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for capability use case: %w", err)
	}

	signer, err := c.CapabilitySigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get signer for capability use case: %w", err)
	}

	verifier, err := c.CapabilityVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get verifier for capability use case: %w", err)
	}

	baseUseCase := capUseCase.NewCapabilityUseCase(
		txManager,
		grantRepository,
		outboxRepository,
		signer,
		verifier,
		c.config.CapabilityDefaultTTL,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for capability use case: %w", err)
		}
		return capUseCase.NewCapabilityUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
