package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flexbit-dev/flexbit-api/internal/models"
)

// Ошибки хранилища, на которые реагирует бизнес-логика.
var (
	// ErrNotFound возвращается, когда документ не найден.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate возвращается при нарушении уникального индекса.
	ErrDuplicate = errors.New("duplicate key")
)

func wrapMongoErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// CreateUser сохраняет нового пользователя и возвращает его ID.
// Дубликат email или телефона ломается об уникальный индекс.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (primitive.ObjectID, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return primitive.NilObjectID, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := s.db.Collection(collUsers).InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, wrapMongoErr(op, err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var u models.User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		return nil, wrapMongoErr(op, err)
	}
	return &u, nil
}

// GetUserByID возвращает пользователя по его идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var u models.User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		return nil, wrapMongoErr(op, err)
	}
	return &u, nil
}

// UserExists проверяет занятость email или телефона.
func (s *Storage) UserExists(ctx context.Context, email, phoneNumber string) (bool, error) {
	const op = "storage.UserExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	filter := bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"phone_number": phoneNumber},
	}}
	count, err := s.db.Collection(collUsers).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return count > 0, nil
}

// UpdateUserProfile обновляет имя и телефон пользователя.
// Пустые значения не затирают существующие.
func (s *Storage) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, fullName, phoneNumber string) (*models.User, error) {
	const op = "storage.UpdateUserProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	set := bson.M{"updated_at": time.Now()}
	if fullName != "" {
		set["full_name"] = fullName
	}
	if phoneNumber != "" {
		set["phone_number"] = phoneNumber
	}

	var u models.User
	err := s.db.Collection(collUsers).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, wrapMongoErr(op, err)
	}
	return &u, nil
}

// UpdateUserPassword заменяет хэш пароля пользователя.
func (s *Storage) UpdateUserPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	const op = "storage.UpdateUserPassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.db.Collection(collUsers).UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// SetResetToken сохраняет хэш токена сброса пароля и срок его действия.
func (s *Storage) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	const op = "storage.SetResetToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.db.Collection(collUsers).UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"reset_password_token":   tokenHash,
		"reset_password_expires": expires,
		"updated_at":             time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByResetToken находит пользователя по хэшу токена сброса,
// срок действия которого ещё не истёк.
func (s *Storage) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	const op = "storage.GetUserByResetToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var u models.User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{
		"reset_password_token":   tokenHash,
		"reset_password_expires": bson.M{"$gt": now},
	}).Decode(&u)
	if err != nil {
		return nil, wrapMongoErr(op, err)
	}
	return &u, nil
}

// ResetPassword устанавливает новый хэш пароля и очищает поля токена сброса.
func (s *Storage) ResetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	const op = "storage.ResetPassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.db.Collection(collUsers).UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		},
		"$unset": bson.M{
			"reset_password_token":   "",
			"reset_password_expires": "",
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetSubscription заменяет встроенную подписку пользователя целиком.
// Единственные легитимные вызыватели — движок платежей и правка администратора.
func (s *Storage) SetSubscription(ctx context.Context, id primitive.ObjectID, sub models.Subscription) error {
	const op = "storage.SetSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.db.Collection(collUsers).UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"subscription": sub,
		"updated_at":   time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ListUsers возвращает всех пользователей, отсортированных по дате регистрации.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cur, err := s.db.Collection(collUsers).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result []*models.User
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUserFields применяет частичное обновление пользователя (админская
// правка). update — готовый $set-документ, собранный сервисом.
func (s *Storage) UpdateUserFields(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	const op = "storage.UpdateUserFields"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	set["updated_at"] = time.Now()
	var u models.User
	err := s.db.Collection(collUsers).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, wrapMongoErr(op, err)
	}
	return &u, nil
}

// DeleteUser удаляет пользователя. Каскад по транзакциям и спискам
// наблюдения выполняет сервис.
func (s *Storage) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.db.Collection(collUsers).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
