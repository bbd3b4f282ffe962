package archive

import (
	"context"

	"github.com/markpostal/kiln-watch/internal/errors"
	"github.com/markpostal/kiln-watch/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
}

// No-op implementation
type noopArchiver struct{}

// NewService returns an Archiver for cfg. A disabled archive yields a no-op.
func NewService(cfg Config, log logger.Logger) (Archiver, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Report archive disabled, using no-op archiver")
		return &noopArchiver{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create archive repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Bool("enabled", cfg.Enabled).
		Msg("Archive service initialized successfully")

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, entry *Entry) error {
	errFactory := errors.New()

	if entry == nil {
		return errFactory.New(ErrInvalidEntry)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(entry); err != nil {
			return errFactory.Wrap(ErrRecordFailed, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	errFactory := errors.New()

	if err := s.repo.Close(); err != nil {
		return errFactory.Wrap(ErrServiceShutdown, err)
	}
	return nil
}

func (*service) Enabled() bool {
	return true
}

// Nop returns an Archiver that discards every entry
func Nop() Archiver {
	return &noopArchiver{}
}

func (*noopArchiver) Record(_ context.Context, _ *Entry) error {
	return nil
}

func (*noopArchiver) Close() error {
	return nil
}

func (*noopArchiver) Enabled() bool {
	return false
}
