package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	capService "github.com/sovereignos/guard/internal/capability/service"
	"github.com/sovereignos/guard/internal/database"
	apperrors "github.com/sovereignos/guard/internal/errors"
	outboxDomain "github.com/sovereignos/guard/internal/outbox/domain"
)

// capabilityUseCase implements CapabilityUseCase.
type capabilityUseCase struct {
	txManager  database.TxManager
	grantRepo  GrantRepository
	outboxRepo OutboxEventRepository
	signer     *capService.Signer
	verifier   *capService.Verifier
	defaultTTL time.Duration
}

// Issue mints, signs, and persists a new root capability.
func (u *capabilityUseCase) Issue(
	ctx context.Context,
	input *IssueCapabilityInput,
) (*capDomain.Capability, error) {
	return u.mint(ctx, input, "", outboxDomain.EventTypeCapabilityIssued)
}

// Delegate mints a child capability attenuated from an existing grant.
func (u *capabilityUseCase) Delegate(
	ctx context.Context,
	parentCapabilityID string,
	input *IssueCapabilityInput,
) (*capDomain.Capability, error) {
	parent, err := u.grantRepo.GetByCapabilityID(ctx, parentCapabilityID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	parentCap := parent.Capability()
	if parentCap.IsExpiredAt(now) {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "parent capability is expired")
	}
	if parent.UsesRemaining != nil && *parent.UsesRemaining <= 0 {
		return nil, capDomain.ErrGrantExhausted
	}

	child, err := u.mintCapability(input, parentCapabilityID)
	if err != nil {
		return nil, err
	}
	// Containment is checked against the grant row, which carries the
	// authoritative use count, not against whatever token the caller holds.
	if err := parentCap.CoversDelegation(child); err != nil {
		return nil, err
	}

	if err := u.persist(ctx, child, outboxDomain.EventTypeCapabilityDelegated); err != nil {
		return nil, err
	}
	return &child, nil
}

// VerifyToken decodes a token and runs the full verification decision.
func (u *capabilityUseCase) VerifyToken(
	ctx context.Context,
	token string,
	requiredAction capDomain.Action,
	resource string,
) (*VerifyResult, error) {
	c, err := capDomain.DecodeToken(token)
	if err != nil {
		return nil, err
	}

	ok, reason := u.verifier.VerifyCapability(c, requiredAction, resource)
	return &VerifyResult{Allowed: ok, Reason: reason, Capability: c}, nil
}

// Consume records one successful authorized use of a capability.
func (u *capabilityUseCase) Consume(
	ctx context.Context,
	capabilityID string,
) (*capDomain.Grant, error) {
	grant, err := u.grantRepo.GetByCapabilityID(ctx, capabilityID)
	if err != nil {
		return nil, err
	}

	if grant.Capability().IsExpiredAt(time.Now().UTC()) {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "capability is expired")
	}

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if grant.UsesRemaining != nil {
			affected, err := u.grantRepo.DecrementUses(ctx, capabilityID)
			if err != nil {
				return err
			}
			if affected == 0 {
				return capDomain.ErrGrantExhausted
			}
		}
		return u.enqueueEvent(ctx, outboxDomain.EventTypeCapabilityConsumed, map[string]any{
			"capability_id": grant.CapabilityID,
			"subject":       grant.Subject,
			"action":        grant.Action,
			"resource":      grant.Resource,
		})
	})
	if err != nil {
		return nil, err
	}

	return u.grantRepo.GetByCapabilityID(ctx, capabilityID)
}

// Get retrieves a grant by capability ID.
func (u *capabilityUseCase) Get(
	ctx context.Context,
	capabilityID string,
) (*capDomain.Grant, error) {
	return u.grantRepo.GetByCapabilityID(ctx, capabilityID)
}

// CleanExpired removes grants whose expiry has passed.
func (u *capabilityUseCase) CleanExpired(ctx context.Context) (int64, error) {
	return u.grantRepo.DeleteExpired(ctx, time.Now().UTC())
}

// mint builds, signs, and persists a capability with the given parent link.
func (u *capabilityUseCase) mint(
	ctx context.Context,
	input *IssueCapabilityInput,
	parentID string,
	eventType string,
) (*capDomain.Capability, error) {
	c, err := u.mintCapability(input, parentID)
	if err != nil {
		return nil, err
	}
	if err := u.persist(ctx, c, eventType); err != nil {
		return nil, err
	}
	return &c, nil
}

// mintCapability builds and signs a capability without persisting it.
func (u *capabilityUseCase) mintCapability(
	input *IssueCapabilityInput,
	parentID string,
) (capDomain.Capability, error) {
	if u.signer == nil {
		return capDomain.Capability{}, apperrors.Wrap(
			apperrors.ErrConfiguration,
			"capability issuance requires a signing key",
		)
	}

	ttl := input.TTL
	if ttl == 0 {
		ttl = u.defaultTTL
	}

	c, err := capDomain.New(capDomain.NewCapabilityInput{
		Subject:     input.Subject,
		Action:      input.Action,
		Resource:    input.Resource,
		Constraints: input.Constraints,
		TTL:         ttl,
		Uses:        input.Uses,
		Issuer:      u.signer.Issuer(),
		ParentID:    parentID,
	})
	if err != nil {
		return capDomain.Capability{}, err
	}

	if _, err := u.signer.Sign(&c); err != nil {
		return capDomain.Capability{}, err
	}
	return c, nil
}

// persist writes the grant row and its lifecycle event in one transaction.
func (u *capabilityUseCase) persist(
	ctx context.Context,
	c capDomain.Capability,
	eventType string,
) error {
	grant := capDomain.NewGrant(c)

	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.grantRepo.Create(ctx, &grant); err != nil {
			return err
		}

		payload := map[string]any{
			"capability_id": c.ID,
			"subject":       c.Subject,
			"action":        c.Action,
			"resource":      c.Resource,
			"expires_at":    c.ExpiresAt,
			"issuer":        c.Issuer,
		}
		if c.ParentID != "" {
			payload["parent_id"] = c.ParentID
		}
		return u.enqueueEvent(ctx, eventType, payload)
	})
}

// enqueueEvent marshals the payload and writes a pending outbox event.
// Must be called inside a transaction alongside the state change it announces.
func (u *capabilityUseCase) enqueueEvent(
	ctx context.Context,
	eventType string,
	payload map[string]any,
) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event payload")
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(payloadJSON),
		Status:    outboxDomain.OutboxEventStatusPending,
		Retries:   0,
	}

	if err := u.outboxRepo.Create(ctx, outboxEvent); err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// NewCapabilityUseCase creates a new CapabilityUseCase with the provided
// dependencies. A nil signer disables Issue and Delegate (verify-only
// deployments); the verifier is required.
func NewCapabilityUseCase(
	txManager database.TxManager,
	grantRepo GrantRepository,
	outboxRepo OutboxEventRepository,
	signer *capService.Signer,
	verifier *capService.Verifier,
	defaultTTL time.Duration,
) CapabilityUseCase {
	return &capabilityUseCase{
		txManager:  txManager,
		grantRepo:  grantRepo,
		outboxRepo: outboxRepo,
		signer:     signer,
		verifier:   verifier,
		defaultTTL: defaultTTL,
	}
}
