package app

import (
	"context"
	"strings"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// Verification uploads identity documents for the viewer
type Verification struct {
	api     outbound.UserAPI
	session *Session
	logger  zerolog.Logger

	viewState
}

type VerificationParams struct {
	API     outbound.UserAPI
	Session *Session
	Logger  zerolog.Logger
}

// NewVerification creates a new verification view-model
func NewVerification(params VerificationParams) *Verification {
	return &Verification{
		api:     params.API,
		session: params.Session,
		logger:  params.Logger.With().Str("component", "verification").Logger(),
	}
}

// Upload sends the document number and images, then reloads the session
// user so the pending status shows.
func (v *Verification) Upload(ctx context.Context, number string, images []shared.Upload) error {
	user, err := v.session.RequireUser()
	if err != nil {
		return v.fail(err)
	}
	if strings.TrimSpace(number) == "" || len(images) == 0 {
		return v.fail(shared.NewValidationError("documents", shared.ErrDocumentRequired))
	}

	v.begin()
	v.logger.Info().Str("user_id", user.ID).Int("images", len(images)).Msg("Uploading identity documents")
	if err := v.api.UploadDocuments(ctx, number, images); err != nil {
		v.logger.Warn().Err(err).Str("user_id", user.ID).Msg("Document upload failed")
		return v.finish(err)
	}
	v.finish(nil)

	if err := v.session.Reload(ctx); err != nil {
		v.logger.Warn().Err(err).Msg("Could not reload user after upload")
	}
	return nil
}

// Status is the session user's verification status
func (v *Verification) Status() shared.VerificationStatus {
	u, ok := v.session.User()
	if !ok {
		return ""
	}
	return u.VerificationStatus
}
