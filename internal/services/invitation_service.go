package services

import (
	"context"
	"fmt"
	"time"

	"heartgram/internal/common"
	"heartgram/internal/models"
	"heartgram/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// InvitationService mails the event's shared secret to its guests
type InvitationService interface {
	Dispatch(ctx context.Context, tenant *models.Tenant, sharedSecret string, memberIDs []uuid.UUID) (*models.DispatchResult, error)
}

type InvitationConfig struct {
	Concurrency int
	SendTimeout time.Duration
	BaseURL     string
}

type invitationService struct {
	identity IdentityService
	hasher   *Hasher
	mailer   Mailer
	cfg      InvitationConfig
	log      *logger.Logger
}

func NewInvitationService(identity IdentityService, hasher *Hasher, mailer Mailer, cfg InvitationConfig, log *logger.Logger) InvitationService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &invitationService{identity: identity, hasher: hasher, mailer: mailer, cfg: cfg, log: log}
}

// Dispatch sends one invitation per targeted guest. An empty memberIDs targets
// the whole roster; unknown ids are ignored. Before each send the guest's secret
// is replaced by the shared one so the mailed password works.
//
// Sends run in parallel and fail independently. Guests never attempted because
// ctx ended are reported as failures. Errors follow roster order. Nothing is
// recorded about sent invitations, so a repeated call sends again.
func (s *invitationService) Dispatch(ctx context.Context, tenant *models.Tenant, sharedSecret string, memberIDs []uuid.UUID) (*models.DispatchResult, error) {
	if sharedSecret == "" {
		return nil, fmt.Errorf("%w: wedding password is required", common.ErrValidation)
	}
	if err := ValidateSecretLength(sharedSecret); err != nil {
		return nil, err
	}

	members, err := s.identity.ListMembers(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	members = filterMembers(members, memberIDs)

	hash, err := s.hasher.Hash(sharedSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: hash secret: %v", common.ErrInternal, err)
	}

	log := s.log.WithContext(ctx).WithFields(zap.String("event_id", tenant.ID.String()))
	outcomes := make([]error, len(members))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, member := range members {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = err
				return nil
			}
			outcomes[i] = s.deliver(ctx, tenant, member, hash, sharedSecret)
			return nil
		})
	}
	_ = g.Wait()

	result := &models.DispatchResult{Errors: []string{}}
	for i, member := range members {
		if outcomes[i] == nil {
			result.Sent++
			continue
		}
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to send invitation to %s", member.Name))
		log.Warn("Invitation failed",
			zap.String("member_id", member.ID.String()),
			zap.Error(fmt.Errorf("%w: %v", common.ErrDispatchFailure, outcomes[i])))
	}

	log.Info("Invitations dispatched", zap.Int("sent", result.Sent), zap.Int("failed", len(result.Errors)))
	return result, nil
}

func (s *invitationService) deliver(ctx context.Context, tenant *models.Tenant, member *models.Member, hash, sharedSecret string) error {
	if s.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SendTimeout)
		defer cancel()
	}

	msg, err := ComposeGuestInvitation(s.cfg.BaseURL, tenant, member, sharedSecret)
	if err != nil {
		return err
	}
	if err := s.identity.SetMemberSecretHash(ctx, member.ID, hash); err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

func filterMembers(members []*models.Member, ids []uuid.UUID) []*models.Member {
	if len(ids) == 0 {
		return members
	}
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	filtered := make([]*models.Member, 0, len(ids))
	for _, m := range members {
		if _, ok := wanted[m.ID]; ok {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
