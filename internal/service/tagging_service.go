package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/peterbiondo/solar-calculator-proxy/internal/domain"
	apperrors "github.com/peterbiondo/solar-calculator-proxy/pkg/util"
)

// ContactTagger is the CRM surface the tagging flow needs.
type ContactTagger interface {
	EnsureContact(ctx context.Context, email string) (*domain.Contact, error)
	AttachTag(ctx context.Context, contactID, tagID string) error
}

// TaggingService orchestrates the linear tagging flow:
// validate input -> resolve contact -> attach tag.
type TaggingService struct {
	crm    ContactTagger
	tagIDs map[string]string
	logger *zap.Logger
}

// NewTaggingService builds the service. tagIDs maps allowed tag names to
// their externally-assigned CRM ids.
func NewTaggingService(crm ContactTagger, tagIDs map[string]string, logger *zap.Logger) *TaggingService {
	return &TaggingService{crm: crm, tagIDs: tagIDs, logger: logger}
}

// TagContact resolves the contact for email (creating it when absent) and
// attaches the named tag. Validation failures return 400 DomainErrors with
// caller-facing messages; any upstream failure collapses to a 500.
func (s *TaggingService) TagContact(ctx context.Context, email, tag string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return apperrors.NewValidationError("Valid email required")
	}
	tagID, ok := s.tagIDs[tag]
	if !ok {
		return apperrors.NewValidationError(invalidTagMessage())
	}
	if tagID == "" {
		s.logger.Error("tag id not configured", zap.String("tag", tag))
		return apperrors.NewUpstreamError("tag lookup", fmt.Errorf("no id configured for tag %q", tag))
	}

	contact, err := s.crm.EnsureContact(ctx, email)
	if err != nil {
		s.logger.Error("contact resolution failed", zap.String("email", email), zap.Error(err))
		return apperrors.NewUpstreamError("contact resolution", err)
	}

	if err := s.crm.AttachTag(ctx, contact.ID, tagID); err != nil {
		s.logger.Error("tag attach failed",
			zap.String("contact_id", contact.ID),
			zap.String("tag", tag),
			zap.Error(err))
		return apperrors.NewUpstreamError("tag attach", err)
	}

	s.logger.Info("tagged contact", zap.String("contact_id", contact.ID), zap.String("tag", tag))
	return nil
}

func invalidTagMessage() string {
	names := domain.TagNames()
	return fmt.Sprintf("Invalid tag. Must be: %s, %s, or %s", names[0], names[1], names[2])
}
