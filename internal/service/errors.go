package service

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/repository"
)

// storeErr converts an error escaping a unit of work into a coded error.
// Coded errors pass through; context expiry and store failures become
// Unavailable.
func storeErr(log *zerolog.Logger, err error, op string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if cerr := apperr.FromContext(err, op+" timed out"); cerr != err {
		return cerr
	}
	log.Error().Err(err).Str("op", op).Msg("store failure")
	return apperr.Unavailable(op+" failed", err)
}

// notFound maps repository.ErrNotFound to a NOT_FOUND error for kind/id and
// returns other errors unchanged.
func notFound(err error, kind string, id uint64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(kind, id)
	}
	return err
}
