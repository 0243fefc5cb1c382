// Package auth содержит бизнес-логику регистрации, входа и управления
// учётной записью.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/lib/jwt"
	"github.com/flexbit-dev/flexbit-api/internal/lib/password"
	"github.com/flexbit-dev/flexbit-api/internal/lib/rabbitmq"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
)

// Ошибки бизнес-уровня, обработчики сопоставляют их HTTP-статусам.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrUserNotFound       = errors.New("user not found")
)

const resetTokenTTL = 5 * time.Minute

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (primitive.ObjectID, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserExists(ctx context.Context, email, phoneNumber string) (bool, error)
	UpdateUserProfile(ctx context.Context, id primitive.ObjectID, fullName, phoneNumber string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	ResetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

// ResetNotifier публикует событие для письма со ссылкой на сброс пароля.
type ResetNotifier interface {
	PublishPasswordReset(msg rabbitmq.PasswordResetMessage) error
}

// Service отвечает за учётные записи и выдачу JWT.
type Service struct {
	log       *slog.Logger
	users     UserRepository
	jwtMaker  jwt.Maker
	notifier  ResetNotifier
	clientURL string
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, users UserRepository, jwtMaker jwt.Maker,
	notifier ResetNotifier, clientURL string) *Service {
	return &Service{
		log:       log,
		users:     users,
		jwtMaker:  jwtMaker,
		notifier:  notifier,
		clientURL: clientURL,
	}
}

// Register создает пользователя с ролью user и бесплатной подпиской,
// возвращает JWT для немедленного входа.
func (s *Service) Register(ctx context.Context, email, phoneNumber, fullName, rawPassword string) (*models.User, string, error) {
	const op = "services.auth.Register"

	exists, err := s.users.UserExists(ctx, email, phoneNumber)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, "", ErrUserExists
	}

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	user := models.User{
		Email:        email,
		PhoneNumber:  phoneNumber,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         "user",
		Subscription: models.NewFreeSubscription(now),
		Preferences:  models.Preferences{Theme: "dark", Notifications: true},
	}

	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, mongo.ErrDuplicate) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	user.ID = id

	token, err := s.jwtMaker.GenerateToken(id.Hex(), user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return &user, token, nil
}

// Login проверяет пароль и выдаёт JWT. Несуществующий email и неверный
// пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// GetProfile возвращает пользователя по идентификатору.
func (s *Service) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	const op = "services.auth.GetProfile"

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateProfile обновляет имя и телефон, возвращает обновлённого пользователя.
func (s *Service) UpdateProfile(ctx context.Context, userID primitive.ObjectID, fullName, phoneNumber string) (*models.User, error) {
	const op = "services.auth.UpdateProfile"

	user, err := s.users.UpdateUserProfile(ctx, userID, fullName, phoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, mongo.ErrDuplicate):
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, newPassword string) error {
	const op = "services.auth.ChangePassword"

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdateUserPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ForgotPassword выпускает одноразовый токен сброса и публикует событие
// для письма. В базе хранится только sha256-хэш токена. Ответ одинаков
// для существующего и несуществующего email, чтобы не раскрывать базу
// адресов.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	const op = "services.auth.ForgotPassword"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	token := hex.EncodeToString(raw)
	tokenHash := hashResetToken(token)

	if err := s.users.SetResetToken(ctx, user.ID, tokenHash, time.Now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := rabbitmq.PasswordResetMessage{
		Email:    user.Email,
		FullName: user.FullName,
		ResetURL: fmt.Sprintf("%s/reset-password?token=%s", s.clientURL, token),
	}
	if err := s.notifier.PublishPasswordReset(msg); err != nil {
		// Токен уже сохранён, письмо можно запросить повторно.
		s.log.Error("failed to publish reset notification", sl.Err(err))
	}
	return nil
}

// ResetPassword устанавливает новый пароль по токену сброса.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "services.auth.ResetPassword"

	user, err := s.users.GetUserByResetToken(ctx, hashResetToken(token), time.Now())
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.ResetPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
