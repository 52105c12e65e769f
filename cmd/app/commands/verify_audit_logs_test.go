package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	authMocks "github.com/sovereignos/guard/internal/auth/usecase/mocks"
)

func TestRunVerifyAuditLogs(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	startDate := "2025-01-01"
	endDate := "2025-01-02"

	report := &authDomain.AuditVerificationReport{
		Checked: 10,
		Valid:   10,
	}

	t.Run("success-text", func(t *testing.T) {
		mockUseCase := &authMocks.MockAuditLogUseCase{}
		mockUseCase.On("VerifySignatures", ctx, 0, verifyPageSize,
			mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
			Return(report, nil)

		var out bytes.Buffer
		err := RunVerifyAuditLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Audit Log Integrity Verification")
		require.Contains(t, out.String(), "Status: PASSED")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("success-json", func(t *testing.T) {
		mockUseCase := &authMocks.MockAuditLogUseCase{}
		mockUseCase.On("VerifySignatures", ctx, 0, verifyPageSize,
			mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
			Return(report, nil)

		var out bytes.Buffer
		err := RunVerifyAuditLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "json")
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(out.Bytes(), &result)
		require.NoError(t, err)
		require.Equal(t, float64(10), result["checked"])
		require.Equal(t, true, result["passed"])
		mockUseCase.AssertExpectations(t)
	})

	t.Run("pages-through-range", func(t *testing.T) {
		fullPage := &authDomain.AuditVerificationReport{
			Checked: verifyPageSize,
			Valid:   verifyPageSize,
		}
		lastPage := &authDomain.AuditVerificationReport{
			Checked: 3,
			Valid:   3,
		}

		mockUseCase := &authMocks.MockAuditLogUseCase{}
		mockUseCase.On("VerifySignatures", ctx, 0, verifyPageSize,
			mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
			Return(fullPage, nil)
		mockUseCase.On("VerifySignatures", ctx, verifyPageSize, verifyPageSize,
			mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
			Return(lastPage, nil)

		var out bytes.Buffer
		err := RunVerifyAuditLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "json")
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(out.Bytes(), &result)
		require.NoError(t, err)
		require.Equal(t, float64(verifyPageSize+3), result["checked"])
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-dates", func(t *testing.T) {
		err := RunVerifyAuditLogs(ctx, nil, logger, nil, "invalid", endDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid start date")
	})

	t.Run("end-before-start", func(t *testing.T) {
		err := RunVerifyAuditLogs(ctx, nil, logger, nil, endDate, startDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "end date must be after start date")
	})

	t.Run("integrity-failure", func(t *testing.T) {
		failureReport := &authDomain.AuditVerificationReport{
			Checked:    10,
			Valid:      8,
			Invalid:    2,
			InvalidIDs: []uuid.UUID{uuid.New(), uuid.New()},
		}

		mockUseCase := &authMocks.MockAuditLogUseCase{}
		mockUseCase.On("VerifySignatures", ctx, 0, verifyPageSize,
			mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
			Return(failureReport, nil)

		var out bytes.Buffer
		err := RunVerifyAuditLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "integrity check failed")
		require.Contains(t, out.String(), "WARNING: 2 log(s) failed integrity check!")
		require.Contains(t, out.String(), "Status: FAILED")
	})
}
