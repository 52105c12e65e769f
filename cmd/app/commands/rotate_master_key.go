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

// RunRotateMasterKey generates a new master key and appends it to the existing
// key set so previously sealed signing seeds and signed audit logs remain
// readable. The new key becomes active; old keys stay in the chain until all
// seeds are rewrapped.
func RunRotateMasterKey(
	ctx context.Context,
	kmsService keysService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	keyID, kmsProvider, kmsKeyURI, existingMasterKeys, existingActiveKeyID string,
) error {
	// Validate required KMS parameters
	if kmsProvider == "" || kmsKeyURI == "" {
		return fmt.Errorf(
			"KMS_PROVIDER and KMS_KEY_URI are required for master key rotation\n\nFor local development, use:\n  KMS_PROVIDER=localsecrets\n  KMS_KEY_URI=\"base64key://<32-byte-base64-key>\"",
		)
	}

	// Validate existing configuration
	if existingMasterKeys == "" {
		return fmt.Errorf("MASTER_KEYS is not set - cannot rotate without existing keys")
	}
	if existingActiveKeyID == "" {
		return fmt.Errorf("ACTIVE_MASTER_KEY_ID is not set")
	}

	// Generate default key ID if not provided
	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	logger.Info("rotating master key",
		slog.String("new_key_id", keyID),
		slog.String("previous_active_key_id", existingActiveKeyID),
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

	_, _ = fmt.Fprintln(writer, "# KMS Mode: Encrypting new master key with KMS")
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

	// Combine with existing keys (new key last, will be set as active)
	newMasterKeys := fmt.Sprintf("%s,%s:%s", existingMasterKeys, keyID, encodedKey)

	// Print KMS configuration
	_, _ = fmt.Fprintln(writer, "# Master Key Rotation (KMS Mode)")
	_, _ = fmt.Fprintln(writer, "# Update these environment variables in your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "MASTER_KEYS=\"%s\"\n", newMasterKeys)
	_, _ = fmt.Fprintf(writer, "ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "# Rotation Workflow:")
	_, _ = fmt.Fprintln(writer, "# 1. Update the above environment variables")
	_, _ = fmt.Fprintln(writer, "# 2. Restart the application")
	_, _ = fmt.Fprintln(writer, "# 3. Rotate issuer keys: app rotate-issuer-key --issuer <issuer>")
	_, _ = fmt.Fprintf(writer,
		"# 4. After all issuer keys rotated, remove old master keys: MASTER_KEYS=\"%s:%s\"\n",
		keyID,
		encodedKey,
	)

	return nil
}
