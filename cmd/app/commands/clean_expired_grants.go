package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	capUseCase "github.com/sovereignos/guard/internal/capability/usecase"
)

// RunCleanExpiredGrants deletes capability grants whose expiry has passed.
// This is storage housekeeping, not revocation: an expired grant's token was
// already unusable. Supports both text and JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanExpiredGrants(
	ctx context.Context,
	capabilityUseCase capUseCase.CapabilityUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("cleaning expired grants")

	count, err := capabilityUseCase.CleanExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired grants: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputCleanGrantsJSON(writer, count); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputCleanGrantsText(writer, count)
	}

	logger.Info("cleanup completed", slog.Int64("count", count))

	return nil
}

// outputCleanGrantsText outputs the result in human-readable text format.
func outputCleanGrantsText(writer io.Writer, count int64) {
	_, _ = fmt.Fprintf(writer, "Successfully deleted %d expired grant(s)\n", count)
}

// outputCleanGrantsJSON outputs the result in JSON format for machine consumption.
func outputCleanGrantsJSON(writer io.Writer, count int64) error {
	result := map[string]interface{}{
		"count": count,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
