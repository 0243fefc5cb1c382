package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	customjwt "github.com/flexbit-dev/flexbit-api/internal/lib/jwt"
	"github.com/flexbit-dev/flexbit-api/internal/lib/password"
	"github.com/flexbit-dev/flexbit-api/internal/lib/rabbitmq"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/auth"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (primitive.ObjectID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UserExists(ctx context.Context, email, phoneNumber string) (bool, error) {
	args := m.Called(ctx, email, phoneNumber)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepoMock) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, fullName, phoneNumber string) (*models.User, error) {
	args := m.Called(ctx, id, fullName, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateUserPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *UserRepoMock) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	args := m.Called(ctx, id, tokenHash, expires)
	return args.Error(0)
}

func (m *UserRepoMock) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ResetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

// Мок для ResetNotifier
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) PublishPasswordReset(msg rabbitmq.PasswordResetMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(repo *UserRepoMock, maker *JwtMakerMock, notifier *NotifierMock) *auth.Service {
	return auth.New(discardLogger(), repo, maker, notifier, "https://app.flexbit.id")
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantErr    error
	}{
		{
			name: "успешная регистрация",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("UserExists", mock.Anything, "new@example.com", "+628111").
					Return(false, nil).Once()
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "new@example.com" &&
						user.PasswordHash != "" &&
						user.Role == "user" &&
						user.Subscription.Tier == "free"
				})).Return(primitive.NewObjectID(), nil).Once()
				j.On("GenerateToken", mock.Anything, "user").
					Return("signed-token", nil).Once()
			},
		},
		{
			name: "email уже занят",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("UserExists", mock.Anything, "new@example.com", "+628111").
					Return(true, nil).Once()
			},
			wantErr: auth.ErrUserExists,
		},
		{
			name: "гонка на уникальном индексе",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("UserExists", mock.Anything, "new@example.com", "+628111").
					Return(false, nil).Once()
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(primitive.NilObjectID, mongo.ErrDuplicate).Once()
			},
			wantErr: auth.ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			maker := new(JwtMakerMock)
			tt.setupMocks(repo, maker)
			svc := newService(repo, maker, new(NotifierMock))

			user, token, err := svc.Register(context.Background(),
				"new@example.com", "+628111", "New User", "password123")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "signed-token", token)
			assert.False(t, user.ID.IsZero())
			repo.AssertExpectations(t)
			maker.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("correct-password")
	require.NoError(t, err)
	userID := primitive.NewObjectID()
	stored := &models.User{
		ID:           userID,
		Email:        "user@example.com",
		PasswordHash: hash,
		Role:         "user",
	}

	t.Run("успешный вход", func(t *testing.T) {
		repo := new(UserRepoMock)
		maker := new(JwtMakerMock)
		repo.On("GetUserByEmail", mock.Anything, "user@example.com").
			Return(stored, nil).Once()
		maker.On("GenerateToken", userID.Hex(), "user").
			Return("signed-token", nil).Once()
		svc := newService(repo, maker, new(NotifierMock))

		user, token, err := svc.Login(context.Background(), "user@example.com", "correct-password")
		require.NoError(t, err)
		assert.Equal(t, "signed-token", token)
		assert.Equal(t, userID, user.ID)
	})

	t.Run("неверный пароль", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByEmail", mock.Anything, "user@example.com").
			Return(stored, nil).Once()
		svc := newService(repo, new(JwtMakerMock), new(NotifierMock))

		_, _, err := svc.Login(context.Background(), "user@example.com", "wrong")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("несуществующий email неотличим от неверного пароля", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").
			Return(nil, mongo.ErrNotFound).Once()
		svc := newService(repo, new(JwtMakerMock), new(NotifierMock))

		_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestService_ForgotPassword(t *testing.T) {
	userID := primitive.NewObjectID()
	stored := &models.User{ID: userID, Email: "user@example.com", FullName: "User"}

	t.Run("токен сохраняется хэшированным и уходит в очередь", func(t *testing.T) {
		repo := new(UserRepoMock)
		notifier := new(NotifierMock)
		repo.On("GetUserByEmail", mock.Anything, "user@example.com").
			Return(stored, nil).Once()
		repo.On("SetResetToken", mock.Anything, userID,
			mock.MatchedBy(func(hash string) bool { return len(hash) == 64 }),
			mock.Anything).Return(nil).Once()
		notifier.On("PublishPasswordReset", mock.MatchedBy(func(msg rabbitmq.PasswordResetMessage) bool {
			return msg.Email == "user@example.com" &&
				strings.HasPrefix(msg.ResetURL, "https://app.flexbit.id/reset-password?token=")
		})).Return(nil).Once()
		svc := newService(repo, new(JwtMakerMock), notifier)

		require.NoError(t, svc.ForgotPassword(context.Background(), "user@example.com"))
		repo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("несуществующий email не выдает ошибку", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").
			Return(nil, mongo.ErrNotFound).Once()
		svc := newService(repo, new(JwtMakerMock), new(NotifierMock))

		require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@example.com"))
	})

	t.Run("ошибка публикации не блокирует сброс", func(t *testing.T) {
		repo := new(UserRepoMock)
		notifier := new(NotifierMock)
		repo.On("GetUserByEmail", mock.Anything, "user@example.com").
			Return(stored, nil).Once()
		repo.On("SetResetToken", mock.Anything, userID, mock.Anything, mock.Anything).
			Return(nil).Once()
		notifier.On("PublishPasswordReset", mock.Anything).
			Return(errors.New("broker down")).Once()
		svc := newService(repo, new(JwtMakerMock), notifier)

		require.NoError(t, svc.ForgotPassword(context.Background(), "user@example.com"))
	})
}

func TestService_ResetPassword(t *testing.T) {
	userID := primitive.NewObjectID()

	t.Run("успешный сброс", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByResetToken", mock.Anything,
			mock.MatchedBy(func(hash string) bool { return len(hash) == 64 }),
			mock.Anything).
			Return(&models.User{ID: userID}, nil).Once()
		repo.On("ResetPassword", mock.Anything, userID,
			mock.MatchedBy(func(hash string) bool { return hash != "" })).
			Return(nil).Once()
		svc := newService(repo, new(JwtMakerMock), new(NotifierMock))

		require.NoError(t, svc.ResetPassword(context.Background(), "rawtoken", "new-password"))
		repo.AssertExpectations(t)
	})

	t.Run("просроченный или неверный токен", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByResetToken", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, mongo.ErrNotFound).Once()
		svc := newService(repo, new(JwtMakerMock), new(NotifierMock))

		err := svc.ResetPassword(context.Background(), "bad", "new-password")
		require.ErrorIs(t, err, auth.ErrInvalidResetToken)
	})
}

func TestService_ChangePassword(t *testing.T) {
	hash, err := password.GetHash("old-password")
	require.NoError(t, err)
	userID := primitive.NewObjectID()
	stored := &models.User{ID: userID, PasswordHash: hash}

	t.Run("смена после проверки текущего", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, userID).Return(stored, nil).Once()
		repo.On("UpdateUserPassword", mock.Anything, userID, mock.Anything).
			Return(nil).Once()
		svc := newService(repo, new(JwtMakerMock), new(NotifierMock))

		require.NoError(t, svc.ChangePassword(context.Background(), userID, "old-password", "new-password"))
	})

	t.Run("неверный текущий пароль", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, userID).Return(stored, nil).Once()
		svc := newService(repo, new(JwtMakerMock), new(NotifierMock))

		err := svc.ChangePassword(context.Background(), userID, "wrong", "new-password")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}
