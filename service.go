package authcore

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hauldesk/authcore/logging"
	"github.com/hauldesk/authcore/password"
	"github.com/hauldesk/authcore/token"
)

// Service is the credential and session lifecycle engine. It is constructed
// through [Builder.Build] and is safe for concurrent use; all blocking work
// takes a context.
type Service struct {
	config Config

	users      UserStore
	hasher     *password.Argon2
	tokens     *token.Manager
	challenges *challengeEngine
	revoked    RevocationCache
	mailer     Mailer
	verifier   IdentityVerifier
	logger     logging.Logger
	metrics    *Metrics
	audit      *auditDispatcher
}

// Close flushes the audit dispatcher. Safe to call more than once.
func (s *Service) Close() {
	if s != nil && s.audit != nil {
		s.audit.Close()
	}
}

// MetricsSnapshot returns a point-in-time copy of the service counters. The
// snapshot is empty when metrics are disabled.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (s *Service) AuditDropped() uint64 {
	if s == nil || s.audit == nil {
		return 0
	}
	return s.audit.Dropped()
}

func (s *Service) metricInc(id MetricID) {
	s.metrics.Inc(id)
}

// normalizeEmail canonicalizes an address for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func formatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseUserID(uid string) (int64, bool) {
	id, err := strconv.ParseInt(uid, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// issueTokenPair mints a fresh access/refresh pair for user.
func (s *Service) issueTokenPair(user User) (*TokenPair, error) {
	uid := formatUserID(user.ID)

	access, err := s.tokens.CreateAccess(uid, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.CreateRefresh(uid, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// stampLastLogin records the login time. Best effort: a store failure here
// must not fail an otherwise successful login.
func (s *Service) stampLastLogin(ctx context.Context, userID int64) {
	now := time.Now()
	if _, err := s.users.Update(ctx, userID, UserUpdate{LastLoginAt: &now}); err != nil {
		s.logger.Warn(ctx, "last login stamp failed", "user_id", userID, "error", err)
	}
}

// sendMail dispatches mail off the request path. Delivery failure is logged
// and counted, never surfaced to the caller.
func (s *Service) sendMail(ctx context.Context, mail Mail) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		if err := s.mailer.Send(sendCtx, mail); err != nil {
			s.metricInc(MetricMailDispatchFailure)
			s.logger.Error(sendCtx, "mail dispatch failed",
				"kind", string(mail.Kind), "to", mail.To, "error", err)
		}
	}()
}
