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

// RunRotateIssuerKey retires an issuer's active signing key and mints the next
// version in one transaction. Capabilities signed with the old key keep
// verifying against its published public key; new capabilities use the new
// key. With no existing keys this behaves like create-issuer-key.
//
// Requirements: Database must be migrated and the master key chain loaded.
func RunRotateIssuerKey(
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

	logger.Info("rotating issuer signing key",
		slog.String("issuer", issuer),
		slog.String("algorithm", string(alg)),
	)

	key, err := signingKeyUseCase.Rotate(ctx, masterKeyChain, issuer, alg)
	if err != nil {
		return fmt.Errorf("failed to rotate issuer signing key: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputRotatedKeyJSON(writer, key); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputRotatedKeyText(writer, key)
	}

	logger.Info("issuer signing key rotated",
		slog.String("issuer", key.Issuer),
		slog.Uint64("version", uint64(key.Version)),
	)

	return nil
}

// outputRotatedKeyText outputs the rotated key in human-readable text format.
func outputRotatedKeyText(writer io.Writer, key *keysDomain.SigningKey) {
	_, _ = fmt.Fprintln(writer, "\nIssuer signing key rotated successfully!")
	_, _ = fmt.Fprintf(writer, "Issuer: %s\n", key.Issuer)
	_, _ = fmt.Fprintf(writer, "Version: %d\n", key.Version)
	_, _ = fmt.Fprintf(writer, "Public Key: %s\n", key.PublicKey)
	_, _ = fmt.Fprintf(writer, "Master Key ID: %s\n", key.MasterKeyID)
	_, _ = fmt.Fprintln(writer, "\n# Update verify-only deployments with:")
	_, _ = fmt.Fprintf(writer, "CAPABILITY_PUBLIC_KEY=\"%s\"\n", key.PublicKey)
	_, _ = fmt.Fprintln(writer, "\n# Tokens signed with earlier key versions remain verifiable")
	_, _ = fmt.Fprintln(writer, "# against their published public keys until they expire.")
}

// outputRotatedKeyJSON outputs the rotated key in JSON format for machine consumption.
func outputRotatedKeyJSON(writer io.Writer, key *keysDomain.SigningKey) error {
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
