// Package user содержит административные операции над учётными
// записями.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidTier  = errors.New("unknown subscription tier")
	ErrInvalidRole  = errors.New("unknown role")
)

// AdminRepository описывает контракт административного доступа
// к пользователям и каскадному удалению их данных.
type AdminRepository interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserFields(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	DeleteWatchlistsByUser(ctx context.Context, userID primitive.ObjectID) error
	DeleteTransactionsByUser(ctx context.Context, userID primitive.ObjectID) error
}

// Update — изменяемые администратором поля. Нулевые указатели
// означают «не трогать».
type Update struct {
	Role   *string
	Tier   *entitlement.Tier
	Status *string
}

type Service struct {
	log   *slog.Logger
	users AdminRepository
}

func New(log *slog.Logger, users AdminRepository) *Service {
	return &Service{log: log, users: users}
}

// List возвращает всех пользователей, новые первыми.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	const op = "services.user.List"

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// Update меняет роль или подписку пользователя. Выдача тарифа руками
// ставит службе поддержки пожизненный или годовой срок по тем же
// правилам, что и оплата.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.User, error) {
	const op = "services.user.Update"

	set := bson.M{}
	if upd.Role != nil {
		if *upd.Role != "user" && *upd.Role != "admin" {
			return nil, ErrInvalidRole
		}
		set["role"] = *upd.Role
	}
	if upd.Tier != nil {
		tier := *upd.Tier
		if _, ok := entitlement.Price(tier); !ok {
			return nil, ErrInvalidTier
		}
		set["subscription.tier"] = tier
		set["subscription.status"] = entitlement.StatusActive
		set["subscription.start_date"] = time.Now()
		if tier == entitlement.TierFree || entitlement.Lifetime(tier) {
			set["subscription.expiry_date"] = nil
		} else {
			set["subscription.expiry_date"] = time.Now().AddDate(1, 0, 0)
		}
	}
	if upd.Status != nil {
		set["subscription.status"] = *upd.Status
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%s: nothing to update", op)
	}

	user, err := s.users.UpdateUserFields(ctx, id, set)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Delete удаляет пользователя вместе со списками наблюдения
// и транзакциями.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	const op = "services.user.Delete"

	if err := s.users.DeleteWatchlistsByUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.DeleteTransactionsByUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user removed with cascade", slog.String("user_id", id.Hex()))
	return nil
}
