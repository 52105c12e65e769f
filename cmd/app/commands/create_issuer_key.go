package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
	keysUseCase "github.com/sovereignos/guard/internal/keys/usecase"
)

// RunCreateIssuerKey mints an issuer's first Ed25519 signing key, sealing its
// seed with the active master key. The public key is printed so verify-only
// deployments can be configured with it.
//
// Requirements: Database must be migrated and the master key chain loaded.
func RunCreateIssuerKey(
	ctx context.Context,
	signingKeyUseCase keysUseCase.SigningKeyUseCase,
	masterKeyChain *keysDomain.MasterKeyChain,
	logger *slog.Logger,
	writer io.Writer,
	issuer, algorithm, format string,
) error {
	if issuer == "" {
		return fmt.Errorf("issuer is required")
	}

	alg, err := parseSealAlgorithm(algorithm)
	if err != nil {
		return err
	}

	logger.Info("creating issuer signing key",
		slog.String("issuer", issuer),
		slog.String("algorithm", string(alg)),
	)

	key, err := signingKeyUseCase.Create(ctx, masterKeyChain, issuer, alg)
	if err != nil {
		return fmt.Errorf("failed to create issuer signing key: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputSigningKeyJSON(writer, key); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputSigningKeyText(writer, key)
	}

	logger.Info("issuer signing key created",
		slog.String("issuer", key.Issuer),
		slog.Uint64("version", uint64(key.Version)),
	)

	return nil
}

// parseSealAlgorithm validates the AEAD algorithm used to seal signing seeds.
func parseSealAlgorithm(raw string) (keysDomain.Algorithm, error) {
	switch raw {
	case "aes-gcm":
		return keysDomain.AESGCM, nil
	case "chacha20-poly1305":
		return keysDomain.ChaCha20, nil
	default:
		return "", fmt.Errorf(
			"invalid algorithm: %s (valid options: aes-gcm, chacha20-poly1305)",
			raw,
		)
	}
}

// outputSigningKeyText outputs the created key in human-readable text format.
func outputSigningKeyText(writer io.Writer, key *keysDomain.SigningKey) {
	_, _ = fmt.Fprintln(writer, "\nIssuer signing key created successfully!")
	_, _ = fmt.Fprintf(writer, "Issuer: %s\n", key.Issuer)
	_, _ = fmt.Fprintf(writer, "Version: %d\n", key.Version)
	_, _ = fmt.Fprintf(writer, "Public Key: %s\n", key.PublicKey)
	_, _ = fmt.Fprintf(writer, "Master Key ID: %s\n", key.MasterKeyID)
	_, _ = fmt.Fprintln(writer, "\n# Configure verify-only deployments with:")
	_, _ = fmt.Fprintf(writer, "CAPABILITY_PUBLIC_KEY=\"%s\"\n", key.PublicKey)
}

// outputSigningKeyJSON outputs the created key in JSON format for machine consumption.
func outputSigningKeyJSON(writer io.Writer, key *keysDomain.SigningKey) error {
	result := map[string]interface{}{
		"issuer":        key.Issuer,
		"version":       key.Version,
		"public_key":    key.PublicKey,
		"master_key_id": key.MasterKeyID,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
