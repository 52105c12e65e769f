package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	keysService "github.com/sovereignos/guard/internal/keys/service"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte master key.
// Master keys seal issuer signing seeds and sign audit records. Key material
// is zeroed from memory after encoding. If keyID is empty, generates a default
// ID in format "master-key-YYYY-MM-DD".
//
// KMS parameters (kmsProvider and kmsKeyURI) are required. The master key is
// encrypted with KMS before output. For local development, use
// kmsProvider="localsecrets" with kmsKeyURI="base64key://...".
//
// Output format:
//   - MASTER_KEYS="<keyID>:<base64-encoded-kms-ciphertext>"
//   - KMS_PROVIDER="<provider>"
//   - KMS_KEY_URI="<uri>"
//
// Security: Never use the localsecrets provider in production. Use cloud KMS
// providers (gcpkms, awskms, azurekeyvault).
func RunCreateMasterKey(
	ctx context.Context,
	kmsService keysService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	keyID, kmsProvider, kmsKeyURI string,
) error {
	// Validate required KMS parameters
	if kmsProvider == "" || kmsKeyURI == "" {
		return fmt.Errorf(
			"--kms-provider and --kms-key-uri are required\n\nFor local development, use:\n  --kms-provider=localsecrets --kms-key-uri=\"base64key://<32-byte-base64-key>\"\n\nFor production, use cloud KMS providers:\n  --kms-provider=gcpkms --kms-key-uri=\"gcpkms://projects/.../cryptoKeys/...\"\n  --kms-provider=awskms --kms-key-uri=\"awskms:///alias/...\"\n  --kms-provider=azurekeyvault --kms-key-uri=\"azurekeyvault://...\"",
		)
	}

	// Generate default key ID if not provided
	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	logger.Info("generating master key",
		slog.String("key_id", keyID),
		slog.String("kms_provider", kmsProvider),
	)

	// Generate a cryptographically secure 32-byte master key
	masterKey := make([]byte, 32)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer func() {
		// Zero out the master key from memory for security
		for i := range masterKey {
			masterKey[i] = 0
		}
	}()

	_, _ = fmt.Fprintln(writer, "# KMS Mode: Encrypting master key with KMS")
	_, _ = fmt.Fprintf(writer, "# KMS Provider: %s\n", kmsProvider)
	_, _ = fmt.Fprintln(writer)

	// Open the KMS keeper and encrypt the key material
	keeper, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(writer, "Warning: failed to close KMS keeper: %v\n", closeErr)
		}
	}()

	ciphertext, err := keeper.Encrypt(ctx, masterKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt master key with KMS: %w", err)
	}

	// Encode the ciphertext to base64
	encodedKey := base64.StdEncoding.EncodeToString(ciphertext)

	// Print KMS configuration
	_, _ = fmt.Fprintln(writer, "# Master Key Configuration (KMS Mode)")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "MASTER_KEYS=\"%s:%s\"\n", keyID, encodedKey)
	_, _ = fmt.Fprintf(writer, "ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "# For multiple master keys (key rotation), encrypt each key with the same KMS key:")
	_, _ = fmt.Fprintf(writer, "# MASTER_KEYS=\"%s:%s,new-key:base64-encoded-kms-ciphertext\"\n", keyID, encodedKey)
	_, _ = fmt.Fprintln(writer, "# ACTIVE_MASTER_KEY_ID=\"new-key\"")

	return nil
}
