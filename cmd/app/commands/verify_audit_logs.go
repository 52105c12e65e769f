package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	authUseCase "github.com/sovereignos/guard/internal/auth/usecase"
)

// verifyPageSize is the number of audit logs re-checked per repository page.
const verifyPageSize = 500

// RunVerifyAuditLogs verifies cryptographic integrity of audit logs within a time range.
// Validates Ed25519-era master key signatures for tamper detection, paging through the
// range until exhausted.
//
// Requirements: Database must be migrated and the master key chain loaded.
func RunVerifyAuditLogs(
	ctx context.Context,
	auditLogUseCase authUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	startDate, endDate string,
	format string,
) error {
	// Parse date strings to time.Time
	start, err := parseDate(startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	end, err := parseDate(endDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	// Validate time range
	if !end.After(start) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Info("verifying audit logs",
		slog.Time("start_date", start),
		slog.Time("end_date", end),
	)

	// Page through the range, aggregating per-page reports
	report := &authDomain.AuditVerificationReport{}
	for offset := 0; ; offset += verifyPageSize {
		page, err := auditLogUseCase.VerifySignatures(ctx, offset, verifyPageSize, &start, &end)
		if err != nil {
			return fmt.Errorf("failed to verify audit logs: %w", err)
		}

		report.Checked += page.Checked
		report.Valid += page.Valid
		report.Invalid += page.Invalid
		report.Unsigned += page.Unsigned
		report.InvalidIDs = append(report.InvalidIDs, page.InvalidIDs...)

		if page.Checked < verifyPageSize {
			break
		}
	}

	// Output result based on format
	if format == "json" {
		if err := outputVerifyJSON(writer, report); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputVerifyText(writer, report, start, end)
	}

	// Log summary
	logger.Info("verification completed",
		slog.Int("checked", report.Checked),
		slog.Int("valid", report.Valid),
		slog.Int("invalid", report.Invalid),
		slog.Int("unsigned", report.Unsigned),
	)

	// Exit with error code if integrity check failed
	if report.Invalid > 0 {
		return fmt.Errorf("integrity check failed: %d invalid signature(s)", report.Invalid)
	}

	return nil
}

// parseDate parses a date string in format "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS" to time.Time.
func parseDate(dateStr string) (time.Time, error) {
	// Try full datetime format first
	t, err := time.Parse("2006-01-02 15:04:05", dateStr)
	if err == nil {
		return t, nil
	}

	// Try date-only format (defaults to start of day)
	t, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"invalid date format (expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS): %s",
			dateStr,
		)
	}

	return t, nil
}

// outputVerifyText outputs the verification result in human-readable text format.
func outputVerifyText(
	writer io.Writer,
	report *authDomain.AuditVerificationReport,
	start, end time.Time,
) {
	_, _ = fmt.Fprintf(writer, "Audit Log Integrity Verification\n")
	_, _ = fmt.Fprintf(writer, "=================================\n\n")
	_, _ = fmt.Fprintf(writer,
		"Time Range: %s to %s\n\n",
		start.Format("2006-01-02 15:04:05"),
		end.Format("2006-01-02 15:04:05"),
	)

	_, _ = fmt.Fprintf(writer, "Total Checked:  %d\n", report.Checked)
	_, _ = fmt.Fprintf(writer, "Unsigned:       %d (legacy)\n", report.Unsigned)
	_, _ = fmt.Fprintf(writer, "Valid:          %d\n", report.Valid)
	_, _ = fmt.Fprintf(writer, "Invalid:        %d\n\n", report.Invalid)

	switch {
	case report.Invalid > 0:
		_, _ = fmt.Fprintf(writer, "WARNING: %d log(s) failed integrity check!\n\n", report.Invalid)
		_, _ = fmt.Fprintf(writer, "Invalid Log IDs:\n")
		for _, id := range report.InvalidIDs {
			_, _ = fmt.Fprintf(writer, "  - %s\n", id)
		}
		_, _ = fmt.Fprintf(writer, "\nStatus: FAILED\n")
	case report.Checked == 0:
		_, _ = fmt.Fprintf(writer, "Status: No logs found in specified time range\n")
	default:
		_, _ = fmt.Fprintf(writer, "Status: PASSED\n")
	}
}

// outputVerifyJSON outputs the verification result in JSON format for machine consumption.
func outputVerifyJSON(writer io.Writer, report *authDomain.AuditVerificationReport) error {
	result := map[string]interface{}{
		"checked":        report.Checked,
		"unsigned_count": report.Unsigned,
		"valid_count":    report.Valid,
		"invalid_count":  report.Invalid,
		"invalid_ids":    report.InvalidIDs,
		"passed":         report.Invalid == 0,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
