package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	authUseCase "github.com/sovereignos/guard/internal/auth/usecase"
	"github.com/sovereignos/guard/internal/scopes"
)

// RunCreateClient creates a new authentication client with a scope grant.
// Supports both interactive mode (when scopesRaw is empty) and non-interactive
// mode (when scopesRaw is a comma-separated list of scope strings or bundle
// names). Outputs client ID and plain secret in either text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateClient(
	ctx context.Context,
	clientUseCase authUseCase.ClientUseCase,
	logger *slog.Logger,
	name, subject string,
	isActive bool,
	scopesRaw string,
	format string,
	io IOTuple,
) error {
	logger.Info("creating new client",
		slog.String("name", name),
		slog.String("subject", subject),
	)

	var grantScopes []string
	var err error

	if scopesRaw == "" {
		// Interactive mode
		grantScopes, err = promptForScopes(io)
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

	// Create input
	input := &authDomain.CreateClientInput{
		Name:     name,
		Subject:  subject,
		IsActive: isActive,
		Scopes:   grantScopes,
	}

	// Create the client
	output, err := clientUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputClientJSON(output, io.Writer); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputClientText(output, io.Writer)
	}

	logger.Info("client created successfully",
		slog.String("client_id", output.ID.String()),
		slog.String("name", name),
		slog.Bool("is_active", isActive),
	)

	return nil
}

// promptForScopes interactively prompts the user to enter the client's scope
// grant as a comma-separated list of scope strings or bundle names.
func promptForScopes(io IOTuple) ([]string, error) {
	reader := bufio.NewReader(io.Reader)
	writer := io.Writer

	_, _ = fmt.Fprintln(writer, "\nEnter the scope grant for the client")
	_, _ = fmt.Fprintf(writer, "Available bundles: %s\n", strings.Join(scopes.BundleNames(), ", "))
	_, _ = fmt.Fprintln(writer)

	_, _ = fmt.Fprint(writer, "Enter scopes (comma-separated, e.g., 'memory.read,tools.execute' or a bundle name): ")
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

// splitScopeList converts a comma-separated string into a cleaned slice of
// scope names, dropping empty entries.
func splitScopeList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// outputClientText outputs the result in human-readable text format.
func outputClientText(output *authDomain.CreateClientOutput, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nClient created successfully!")
	_, _ = fmt.Fprintf(writer, "Client ID: %s\n", output.ID.String())
	_, _ = fmt.Fprintf(writer, "Secret: %s\n", output.PlainSecret)
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The secret is shown only once. Store it securely.")
}

// outputClientJSON outputs the result in JSON format for machine consumption.
func outputClientJSON(output *authDomain.CreateClientOutput, writer io.Writer) error {
	result := map[string]string{
		"client_id": output.ID.String(),
		"secret":    output.PlainSecret,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
