package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/noticeboard-app/noticeboard/internal/auth"
	"github.com/noticeboard-app/noticeboard/internal/shared"
	"github.com/noticeboard-app/noticeboard/internal/uploads"
	_ "github.com/noticeboard-app/noticeboard/testing"
)

// memRepo enforces login uniqueness under a lock, standing in for the
// database unique constraint.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*auth.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]*auth.User)}
}

func (r *memRepo) FindByLogin(ctx context.Context, login string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[login]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memRepo) Create(ctx context.Context, params auth.CreateUserParams) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[params.Login]; exists {
		return nil, shared.ErrDuplicateLogin
	}
	r.nextID++
	user := &auth.User{
		ID:           r.nextID,
		Login:        params.Login,
		PasswordHash: params.PasswordHash,
		AvatarPath:   params.AvatarPath,
		PhoneNumber:  params.PhoneNumber,
	}
	r.users[params.Login] = user
	copied := *user
	return &copied, nil
}

// recordingRemover tracks cleanup calls. Removing an unknown path succeeds,
// matching the soft no-op contract of the real store.
type recordingRemover struct {
	mu      sync.Mutex
	removed []string
}

func (r *recordingRemover) Remove(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
	return nil
}

func (r *recordingRemover) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.removed...)
}

func newService(repo auth.Repository, remover auth.UploadRemover, cfg auth.ServiceConfig) *auth.Service {
	return auth.NewService(repo, auth.NewBcryptHasher(), remover, nil, cfg)
}

func avatarFile(path string) *uploads.StoredFile {
	return &uploads.StoredFile{Name: "me.png", Path: path, MIME: "image/png", Size: 128}
}

func TestRegisterSuccess(t *testing.T) {
	repo := newMemRepo()
	remover := &recordingRemover{}
	svc := newService(repo, remover, auth.ServiceConfig{})

	user, err := svc.Register(context.Background(), auth.RegisterInput{
		Login:       "alice1",
		Password:    "Passw0rd",
		PhoneNumber: "5551234",
		Avatar:      avatarFile("/uploads/a.png"),
	})
	require.NoError(t, err)
	require.Equal(t, "alice1", user.Login)
	require.NotEqual(t, "Passw0rd", user.PasswordHash)
	require.Equal(t, "/uploads/a.png", user.AvatarPath)
	require.Empty(t, remover.paths(), "successful registration must keep the upload")
}

func TestRegisterRejectionsDiscardUpload(t *testing.T) {
	cases := []struct {
		name  string
		input auth.RegisterInput
		want  error
	}{
		{
			name:  "missing password",
			input: auth.RegisterInput{Login: "alice1", Avatar: avatarFile("/uploads/1.png")},
			want:  shared.ErrBadRequest,
		},
		{
			name: "disallowed mime type",
			input: auth.RegisterInput{
				Login:    "alice1",
				Password: "Passw0rd",
				Avatar:   &uploads.StoredFile{Name: "evil.exe", Path: "/uploads/2.bin", MIME: "application/octet-stream"},
			},
			want: shared.ErrBadRequest,
		},
		{
			name:  "invalid login charset",
			input: auth.RegisterInput{Login: "alice!", Password: "Passw0rd", Avatar: avatarFile("/uploads/3.png")},
			want:  shared.ErrInvalidFormat,
		},
		{
			name:  "weak password",
			input: auth.RegisterInput{Login: "alice1", Password: "abc", Avatar: avatarFile("/uploads/4.png")},
			want:  shared.ErrWeakPassword,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemRepo()
			remover := &recordingRemover{}
			svc := newService(repo, remover, auth.ServiceConfig{})

			_, err := svc.Register(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.want)
			require.Equal(t, []string{tc.input.Avatar.Path}, remover.paths(), "rejection must discard the upload")
		})
	}
}

func TestRegisterRequiresAvatarWhenConfigured(t *testing.T) {
	svc := newService(newMemRepo(), &recordingRemover{}, auth.ServiceConfig{RequireAvatar: true})

	_, err := svc.Register(context.Background(), auth.RegisterInput{Login: "alice1", Password: "Passw0rd"})
	require.ErrorIs(t, err, shared.ErrBadRequest)
}

func TestRegisterDuplicateLogin(t *testing.T) {
	repo := newMemRepo()
	remover := &recordingRemover{}
	svc := newService(repo, remover, auth.ServiceConfig{})

	_, err := svc.Register(context.Background(), auth.RegisterInput{Login: "alice1", Password: "Passw0rd"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), auth.RegisterInput{
		Login:    "alice1",
		Password: "Passw0rd",
		Avatar:   avatarFile("/uploads/dup.png"),
	})
	require.ErrorIs(t, err, shared.ErrDuplicateLogin)
	require.Equal(t, []string{"/uploads/dup.png"}, remover.paths(), "duplicate rejection must discard the second upload")
}

func TestRegisterParallelSameLoginExactlyOneSucceeds(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo, &recordingRemover{}, auth.ServiceConfig{})

	const attempts = 8
	results := make([]error, attempts)
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := svc.Register(context.Background(), auth.RegisterInput{Login: "alice1", Password: "Passw0rd"})
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, shared.ErrDuplicateLogin)
	}
	require.Equal(t, 1, successes, "exactly one parallel registration may win")
}

func TestLoginRoundTrip(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo, &recordingRemover{}, auth.ServiceConfig{})

	_, err := svc.Register(context.Background(), auth.RegisterInput{Login: "alice1", Password: "Passw0rd"})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "alice1", "Passw0rd")
	require.NoError(t, err)
	require.Equal(t, "alice1", user.Login)

	_, err = svc.Login(context.Background(), "alice1", "Passw0rd2")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo, &recordingRemover{}, auth.ServiceConfig{})

	_, err := svc.Register(context.Background(), auth.RegisterInput{Login: "alice1", Password: "Passw0rd"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(context.Background(), "alice1", "wrong1X")
	_, unknownLogin := svc.Login(context.Background(), "nosuchuser", "wrong1X")
	_, badFormat := svc.Login(context.Background(), "alice!", "wrong1X")

	require.ErrorIs(t, wrongPassword, shared.ErrInvalidCredentials)
	require.True(t, errors.Is(unknownLogin, wrongPassword))
	require.True(t, errors.Is(badFormat, wrongPassword))
}

func TestLoginSkipsStrengthPolicy(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo, &recordingRemover{}, auth.ServiceConfig{})

	// Seed a legacy account whose password predates the strength policy.
	hasher := auth.NewBcryptHasher()
	hash, err := hasher.Hash("weak")
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), auth.CreateUserParams{Login: "legacy", PasswordHash: hash})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "legacy", "weak")
	require.NoError(t, err)
	require.Equal(t, "legacy", user.Login)
}
