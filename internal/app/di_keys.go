package app

import (
	"context"
	"fmt"

	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
	keysHTTP "github.com/sovereignos/guard/internal/keys/http"
	keysMySQL "github.com/sovereignos/guard/internal/keys/repository/mysql"
	keysPostgreSQL "github.com/sovereignos/guard/internal/keys/repository/postgresql"
	keysService "github.com/sovereignos/guard/internal/keys/service"
	keysUseCase "github.com/sovereignos/guard/internal/keys/usecase"
)

// KMSService returns the KMS service for wrapping and unwrapping key material.
func (c *Container) KMSService() keysService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = keysService.NewKMSService()
	})
	return c.kmsService
}

// KMSKeeper returns the keeper opened for the configured KMS key URI.
// Returns nil when no KMS is configured; master keys are then used as-is
// from the environment, which is only acceptable for development.
func (c *Container) KMSKeeper() (keysDomain.KMSKeeper, error) {
	var err error
	c.kmsKeeperInit.Do(func() {
		if c.config.KMSKeyURI == "" {
			return
		}
		c.kmsKeeper, err = c.KMSService().OpenKeeper(context.Background(), c.config.KMSKeyURI)
		if err != nil {
			c.initErrors["kmsKeeper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kmsKeeper"]; exists {
		return nil, storedErr
	}
	return c.kmsKeeper, nil
}

// MasterKeyChain returns the master key chain loaded from environment
// variables, unwrapped through the KMS keeper when one is configured.
func (c *Container) MasterKeyChain() (*keysDomain.MasterKeyChain, error) {
	var err error
	c.masterKeyChainInit.Do(func() {
		c.masterKeyChain, err = c.initMasterKeyChain()
		if err != nil {
			c.initErrors["masterKeyChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKeyChain"]; exists {
		return nil, storedErr
	}
	return c.masterKeyChain, nil
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() keysService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = keysService.NewAEADManager()
	})
	return c.aeadManager
}

// SeedSealer returns the seed sealer service.
func (c *Container) SeedSealer() keysService.SeedSealer {
	c.seedSealerInit.Do(func() {
		c.seedSealer = keysService.NewSeedSealer(c.AEADManager())
	})
	return c.seedSealer
}

// SigningKeyRepository returns the signing key repository based on database driver.
func (c *Container) SigningKeyRepository() (keysUseCase.SigningKeyRepository, error) {
	var err error
	c.signingKeyRepositoryInit.Do(func() {
		c.signingKeyRepository, err = c.initSigningKeyRepository()
		if err != nil {
			c.initErrors["signingKeyRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingKeyRepository"]; exists {
		return nil, storedErr
	}
	return c.signingKeyRepository, nil
}

// SigningKeyUseCase returns the signing key use case.
func (c *Container) SigningKeyUseCase() (keysUseCase.SigningKeyUseCase, error) {
	var err error
	c.signingKeyUseCaseInit.Do(func() {
		c.signingKeyUseCase, err = c.initSigningKeyUseCase()
		if err != nil {
			c.initErrors["signingKeyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.signingKeyUseCase, nil
}

// SigningKeyHandler returns the HTTP handler for issuer key listings.
func (c *Container) SigningKeyHandler() (*keysHTTP.SigningKeyHandler, error) {
	var err error
	c.signingKeyHandlerInit.Do(func() {
		var useCase keysUseCase.SigningKeyUseCase
		useCase, err = c.SigningKeyUseCase()
		if err != nil {
			c.initErrors["signingKeyHandler"] = err
			return
		}
		c.signingKeyHandler = keysHTTP.NewSigningKeyHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingKeyHandler"]; exists {
		return nil, storedErr
	}
	return c.signingKeyHandler, nil
}

// initMasterKeyChain loads the master key chain, using the KMS keeper to
// unwrap each key when a KMS is configured.
func (c *Container) initMasterKeyChain() (*keysDomain.MasterKeyChain, error) {
	keeper, err := c.KMSKeeper()
	if err != nil {
		return nil, fmt.Errorf("failed to open kms keeper for master key chain: %w", err)
	}

	masterKeyChain, err := keysDomain.LoadMasterKeyChain(context.Background(), keeper)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key chain: %w", err)
	}
	return masterKeyChain, nil
}

// initSigningKeyRepository creates the signing key repository based on the database driver.
func (c *Container) initSigningKeyRepository() (keysUseCase.SigningKeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for signing key repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return keysPostgreSQL.NewPostgreSQLSigningKeyRepository(db), nil
	case "mysql":
		return keysMySQL.NewMySQLSigningKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSigningKeyUseCase creates the signing key use case with all its dependencies.
func (c *Container) initSigningKeyUseCase() (keysUseCase.SigningKeyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for signing key use case: %w", err)
	}

	repo, err := c.SigningKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key repository for signing key use case: %w", err)
	}

	baseUseCase := keysUseCase.NewSigningKeyUseCase(txManager, repo, c.SeedSealer())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for signing key use case: %w", err)
		}
		return keysUseCase.NewSigningKeyUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
