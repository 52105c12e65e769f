package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	capUseCase "github.com/sovereignos/guard/internal/capability/usecase"
)

// RunVerifyCapability runs the full verification decision for a capability
// token against a required action and resource. Returns a non-nil error when
// the token is malformed or the decision is a denial, so exit codes can drive
// scripting.
func RunVerifyCapability(
	ctx context.Context,
	capabilityUseCase capUseCase.CapabilityUseCase,
	logger *slog.Logger,
	writer io.Writer,
	token, action, resource, format string,
) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}
	if resource == "" {
		return fmt.Errorf("resource is required")
	}

	parsedAction, err := capDomain.ParseAction(action)
	if err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}

	result, err := capabilityUseCase.VerifyToken(ctx, token, parsedAction, resource)
	if err != nil {
		return fmt.Errorf("failed to verify capability token: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputVerifyResultJSON(writer, result); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputVerifyResultText(writer, result)
	}

	logger.Info("capability verification completed",
		slog.String("capability_id", result.Capability.ID),
		slog.Bool("allowed", result.Allowed),
		slog.String("reason", result.Reason),
	)

	if !result.Allowed {
		return fmt.Errorf("capability denied: %s", result.Reason)
	}

	return nil
}

// outputVerifyResultText outputs the decision in human-readable text format.
func outputVerifyResultText(writer io.Writer, result *capUseCase.VerifyResult) {
	_, _ = fmt.Fprintln(writer, "Capability Verification")
	_, _ = fmt.Fprintln(writer, "=======================")
	_, _ = fmt.Fprintf(writer, "Capability ID: %s\n", result.Capability.ID)
	_, _ = fmt.Fprintf(writer, "Subject: %s\n", result.Capability.Subject)
	_, _ = fmt.Fprintf(writer, "Action: %s\n", result.Capability.Action)
	_, _ = fmt.Fprintf(writer, "Resource: %s\n", result.Capability.Resource)

	if result.Allowed {
		_, _ = fmt.Fprintln(writer, "\nDecision: ALLOWED")
	} else {
		_, _ = fmt.Fprintf(writer, "\nDecision: DENIED (%s)\n", result.Reason)
	}
}

// outputVerifyResultJSON outputs the decision in JSON format for machine consumption.
func outputVerifyResultJSON(writer io.Writer, result *capUseCase.VerifyResult) error {
	out := map[string]interface{}{
		"allowed":       result.Allowed,
		"reason":        result.Reason,
		"capability_id": result.Capability.ID,
		"subject":       result.Capability.Subject,
		"action":        result.Capability.Action,
		"resource":      result.Capability.Resource,
	}

	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
