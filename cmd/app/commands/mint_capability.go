package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	capUseCase "github.com/sovereignos/guard/internal/capability/usecase"
)

// RunMintCapability mints a signed root capability and prints its portable
// token. A TTL of zero selects the configured default; uses of zero or less
// means unlimited.
//
// Requirements: Database must be migrated and an active issuer signing key
// provisioned (see create-issuer-key).
func RunMintCapability(
	ctx context.Context,
	capabilityUseCase capUseCase.CapabilityUseCase,
	logger *slog.Logger,
	writer io.Writer,
	subject, action, resource, constraintsJSON string,
	ttl time.Duration,
	uses int,
	format string,
) error {
	if subject == "" {
		return fmt.Errorf("subject is required")
	}
	if resource == "" {
		return fmt.Errorf("resource is required")
	}

	parsedAction, err := capDomain.ParseAction(action)
	if err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}

	// Parse optional constraints
	var constraints map[string]any
	if constraintsJSON != "" {
		if err := json.Unmarshal([]byte(constraintsJSON), &constraints); err != nil {
			return fmt.Errorf("failed to parse constraints JSON: %w", err)
		}
	}

	input := &capUseCase.IssueCapabilityInput{
		Subject:     subject,
		Action:      parsedAction,
		Resource:    resource,
		Constraints: constraints,
		TTL:         ttl,
	}
	if uses > 0 {
		input.Uses = &uses
	}

	logger.Info("minting capability",
		slog.String("subject", subject),
		slog.String("action", string(parsedAction)),
		slog.String("resource", resource),
	)

	capability, err := capabilityUseCase.Issue(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to mint capability: %w", err)
	}

	token, err := capDomain.EncodeToken(*capability)
	if err != nil {
		return fmt.Errorf("failed to encode capability token: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputCapabilityJSON(writer, capability, token); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputCapabilityText(writer, capability, token)
	}

	logger.Info("capability minted",
		slog.String("capability_id", capability.ID),
		slog.Time("expires_at", capability.ExpiresAt),
	)

	return nil
}

// outputCapabilityText outputs the minted capability in human-readable text format.
func outputCapabilityText(writer io.Writer, capability *capDomain.Capability, token string) {
	_, _ = fmt.Fprintln(writer, "\nCapability minted successfully!")
	_, _ = fmt.Fprintf(writer, "Capability ID: %s\n", capability.ID)
	_, _ = fmt.Fprintf(writer, "Subject: %s\n", capability.Subject)
	_, _ = fmt.Fprintf(writer, "Action: %s\n", capability.Action)
	_, _ = fmt.Fprintf(writer, "Resource: %s\n", capability.Resource)
	_, _ = fmt.Fprintf(writer, "Expires At: %s\n", capability.ExpiresAt.Format(time.RFC3339))
	if capability.UsesRemaining != nil {
		_, _ = fmt.Fprintf(writer, "Uses: %d\n", *capability.UsesRemaining)
	} else {
		_, _ = fmt.Fprintln(writer, "Uses: unlimited")
	}
	_, _ = fmt.Fprintf(writer, "\nToken:\n%s\n", token)
}

// outputCapabilityJSON outputs the minted capability in JSON format for machine consumption.
func outputCapabilityJSON(writer io.Writer, capability *capDomain.Capability, token string) error {
	result := map[string]interface{}{
		"capability_id": capability.ID,
		"subject":       capability.Subject,
		"action":        capability.Action,
		"resource":      capability.Resource,
		"expires_at":    capability.ExpiresAt.Format(time.RFC3339),
		"token":         token,
	}
	if capability.UsesRemaining != nil {
		result["uses_remaining"] = *capability.UsesRemaining
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
