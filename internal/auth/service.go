package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/noticeboard-app/noticeboard/internal/shared"
	"github.com/noticeboard-app/noticeboard/internal/uploads"
)

// allowedAvatarTypes is the image MIME set accepted for avatar uploads.
var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadRemover deletes a stored upload. Removing an absent file must be a
// soft no-op.
type UploadRemover interface {
	Remove(path string) error
}

// ServiceConfig carries policy knobs for the auth service.
type ServiceConfig struct {
	// RequireAvatar rejects registrations without an uploaded avatar.
	RequireAvatar bool
}

// Service wraps the authentication business rules: credential validation,
// password hashing, user creation and login verification.
type Service struct {
	repo    Repository
	hasher  PasswordHasher
	uploads UploadRemover
	logger  *slog.Logger
	cfg     ServiceConfig
}

// NewService constructs a new Service.
func NewService(repo Repository, hasher PasswordHasher, uploads UploadRemover, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, uploads: uploads, logger: logger, cfg: cfg}
}

// RegisterInput carries a registration request. Avatar is the descriptor of
// an already stored upload, or nil when none was sent.
type RegisterInput struct {
	Login       string
	Password    string
	PhoneNumber string
	Avatar      *uploads.StoredFile
}

// Register creates a new user account. On any failure the stored avatar
// upload is discarded so no orphaned file survives a rejected registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user *User, err error) {
	defer func() {
		if err != nil {
			s.discardUpload(in.Avatar)
		}
	}()

	if in.Login == "" || in.Password == "" {
		return nil, shared.ErrBadRequest
	}
	if s.cfg.RequireAvatar && in.Avatar == nil {
		return nil, shared.ErrBadRequest
	}
	if in.Avatar != nil && !allowedAvatarTypes[in.Avatar.MIME] {
		return nil, shared.ErrBadRequest
	}

	// Early exit only: the unique constraint on insert decides the race
	// between two concurrent registrations for the same login.
	if _, lookupErr := s.repo.FindByLogin(ctx, in.Login); lookupErr == nil {
		return nil, shared.ErrDuplicateLogin
	} else if !errors.Is(lookupErr, shared.ErrNotFound) {
		return nil, lookupErr
	}

	if err = ValidateCredentials(in.Login, in.Password); err != nil {
		return nil, err
	}
	if err = ValidatePasswordStrength(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	avatarPath := ""
	if in.Avatar != nil {
		avatarPath = in.Avatar.Path
	}
	user, err = s.repo.Create(ctx, CreateUserParams{
		Login:        in.Login,
		PasswordHash: hash,
		AvatarPath:   avatarPath,
		PhoneNumber:  in.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login validates credentials and returns the matching user. Unknown logins,
// malformed logins and wrong passwords all surface as ErrInvalidCredentials
// so a caller cannot probe which accounts exist.
func (s *Service) Login(ctx context.Context, login, password string) (*User, error) {
	if login == "" || password == "" {
		return nil, shared.ErrBadRequest
	}
	if err := ValidateCredentials(login, password); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	user, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) discardUpload(file *uploads.StoredFile) {
	if file == nil {
		return
	}
	if err := s.uploads.Remove(file.Path); err != nil {
		// Cleanup failures are logged and never replace the original error.
		s.logger.Warn("discard upload", slog.String("path", file.Path), slog.Any("error", err))
	}
}
