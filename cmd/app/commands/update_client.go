package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	authUseCase "github.com/sovereignos/guard/internal/auth/usecase"
	"github.com/sovereignos/guard/internal/scopes"
)

// RunUpdateClient updates an existing client's name, active status, and scope
// grant. The subject and secret are immutable. Supports both interactive mode
// (when scopesRaw is empty) and non-interactive mode.
//
// Requirements: Database must be migrated and accessible.
func RunUpdateClient(
	ctx context.Context,
	clientUseCase authUseCase.ClientUseCase,
	logger *slog.Logger,
	io IOTuple,
	clientIDStr string,
	name string,
	isActive bool,
	scopesRaw string,
	format string,
) error {
	logger.Info("updating client", slog.String("client_id", clientIDStr))

	// Parse client ID
	clientID, err := uuid.Parse(clientIDStr)
	if err != nil {
		return fmt.Errorf("invalid client ID format: %w", err)
	}

	// Get existing client to display current values if in interactive mode
	existingClient, err := clientUseCase.Get(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to get existing client: %w", err)
	}

	var grantScopes []string

	if scopesRaw == "" {
		// Interactive mode - show the current grant and prompt for the new one
		grantScopes, err = promptForScopesUpdate(io, existingClient.Scopes)
		if err != nil {
			return fmt.Errorf("failed to get scopes: %w", err)
		}
	} else {
		grantScopes = splitScopeList(scopesRaw)
	}

	// Validate that at least one scope was provided
	if len(grantScopes) == 0 {
		return fmt.Errorf("at least one scope is required")
	}

	// Create update input
	input := &authDomain.UpdateClientInput{
		Name:     name,
		IsActive: isActive,
		Scopes:   grantScopes,
	}

	// Update the client
	if err := clientUseCase.Update(ctx, clientID, input); err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputUpdateJSON(io.Writer, clientID, name, isActive); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputUpdateText(io.Writer, clientID, name, isActive)
	}

	logger.Info("client updated successfully",
		slog.String("client_id", clientID.String()),
		slog.String("name", name),
		slog.Bool("is_active", isActive),
	)

	return nil
}

// promptForScopesUpdate shows the client's current scope grant and prompts for
// the replacement list.
func promptForScopesUpdate(io IOTuple, current []scopes.Scope) ([]string, error) {
	reader := bufio.NewReader(io.Reader)

	currentStrs := make([]string, len(current))
	for i, s := range current {
		currentStrs[i] = string(s)
	}

	_, _ = fmt.Fprintf(io.Writer, "\nCurrent scopes: [%s]\n", strings.Join(currentStrs, ", "))
	_, _ = fmt.Fprintln(io.Writer, "\nEnter the new scope grant for the client")
	_, _ = fmt.Fprintf(io.Writer, "Available bundles: %s\n", strings.Join(scopes.BundleNames(), ", "))
	_, _ = fmt.Fprintln(io.Writer)

	_, _ = fmt.Fprint(io.Writer, "Enter scopes (comma-separated, e.g., 'memory.read,tools.execute' or a bundle name): ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read scopes: %w", err)
	}

	grantScopes := splitScopeList(line)
	if len(grantScopes) == 0 {
		return nil, fmt.Errorf("at least one scope is required")
	}

	return grantScopes, nil
}

// outputUpdateText outputs the result in human-readable text format.
func outputUpdateText(writer io.Writer, clientID uuid.UUID, name string, isActive bool) {
	_, _ = fmt.Fprintln(writer, "\nClient updated successfully!")
	_, _ = fmt.Fprintf(writer, "Client ID: %s\n", clientID.String())
	_, _ = fmt.Fprintf(writer, "Name: %s\n", name)
	_, _ = fmt.Fprintf(writer, "Active: %t\n", isActive)
}

// outputUpdateJSON outputs the result in JSON format for machine consumption.
func outputUpdateJSON(writer io.Writer, clientID uuid.UUID, name string, isActive bool) error {
	result := map[string]interface{}{
		"client_id": clientID.String(),
		"name":      name,
		"is_active": isActive,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
