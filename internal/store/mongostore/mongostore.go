// Package mongostore implements store.Backend on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/metrics"
	"github.com/astrathh/taskify-habitory/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collTasks         = "tasks"
	collProgress      = "progress"
	collNotifications = "notifications"
	collAppointments  = "appointments"
	collUsers         = "users"
)

// Store keeps one collection per logical table.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Backend = (*Store)(nil)

// Connect dials uri, pings the server and ensures indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client, database)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// New wraps an existing client.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// EnsureIndexes 创建查询索引以及 progress(user_id, month) 与 users(email) 的唯一索引
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		collTasks: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("user_tasks_created"),
			},
		},
		collProgress: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "month", Value: 1}},
				Options: options.Index().SetName("user_month_unique").SetUnique(true),
			},
		},
		collNotifications: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("user_notifications_created"),
			},
		},
		collAppointments: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetName("user_appointments_date"),
			},
		},
		collUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("email_unique").SetUnique(true),
			},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ListTasks(ctx context.Context, userID string) ([]db.Task, error) {
	defer metrics.TrackStoreOperation("list", collTasks)()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var tasks []db.Task
	if err := s.find(ctx, collTasks, bson.M{"user_id": userID}, opts, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, userID, id string) (*db.Task, error) {
	defer metrics.TrackStoreOperation("get", collTasks)()

	var task db.Task
	if err := s.findOne(ctx, collTasks, ownedBy(userID, id), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Store) InsertTask(ctx context.Context, task *db.Task) error {
	defer metrics.TrackStoreOperation("insert", collTasks)()

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	return s.insert(ctx, collTasks, "insert task", task)
}

func (s *Store) UpdateTask(ctx context.Context, userID, id string, fields store.Fields) error {
	defer metrics.TrackStoreOperation("update", collTasks)()

	if _, ok := fields["updated_at"]; !ok && len(fields) > 0 {
		fields["updated_at"] = time.Now()
	}
	return s.set(ctx, collTasks, "update task", ownedBy(userID, id), fields)
}

func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	defer metrics.TrackStoreOperation("delete", collTasks)()
	return s.deleteOne(ctx, collTasks, "delete task", ownedBy(userID, id))
}

func (s *Store) ListMonthlyProgress(ctx context.Context, userID, month string) ([]db.MonthlyProgress, error) {
	defer metrics.TrackStoreOperation("list", collProgress)()

	filter := bson.M{"user_id": userID}
	if month != "" {
		filter["month"] = month
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var docs []db.MonthlyProgress
	if err := s.find(ctx, collProgress, filter, opts, &docs); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return docs, nil
}

func (s *Store) InsertMonthlyProgress(ctx context.Context, doc *db.MonthlyProgress) error {
	defer metrics.TrackStoreOperation("insert", collProgress)()

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Habits == nil {
		doc.Habits = db.HabitList{}
	}
	return s.insert(ctx, collProgress, "insert progress", doc)
}

func (s *Store) UpdateMonthlyProgress(ctx context.Context, userID, id string, fields store.Fields) error {
	defer metrics.TrackStoreOperation("update", collProgress)()

	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
	}
	return s.set(ctx, collProgress, "update progress", ownedBy(userID, id), fields)
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]db.Notification, error) {
	defer metrics.TrackStoreOperation("list", collNotifications)()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var items []db.Notification
	if err := s.find(ctx, collNotifications, bson.M{"user_id": userID}, opts, &items); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	defer metrics.TrackStoreOperation("count", collNotifications)()

	count, err := s.db.Collection(collNotifications).CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *Store) InsertNotification(ctx context.Context, n *db.Notification) error {
	defer metrics.TrackStoreOperation("insert", collNotifications)()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return s.insert(ctx, collNotifications, "insert notification", n)
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	defer metrics.TrackStoreOperation("update", collNotifications)()
	return s.set(ctx, collNotifications, "mark notification read", ownedBy(userID, id), store.Fields{"read": true})
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	defer metrics.TrackStoreOperation("update_many", collNotifications)()

	result, err := s.db.Collection(collNotifications).UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (s *Store) DeleteNotification(ctx context.Context, userID, id string) error {
	defer metrics.TrackStoreOperation("delete", collNotifications)()
	return s.deleteOne(ctx, collNotifications, "delete notification", ownedBy(userID, id))
}

func (s *Store) ListAppointments(ctx context.Context, userID string) ([]db.Appointment, error) {
	defer metrics.TrackStoreOperation("list", collAppointments)()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	var items []db.Appointment
	if err := s.find(ctx, collAppointments, bson.M{"user_id": userID}, opts, &items); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return items, nil
}

func (s *Store) GetAppointment(ctx context.Context, userID, id string) (*db.Appointment, error) {
	defer metrics.TrackStoreOperation("get", collAppointments)()

	var item db.Appointment
	if err := s.findOne(ctx, collAppointments, ownedBy(userID, id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) InsertAppointment(ctx context.Context, a *db.Appointment) error {
	defer metrics.TrackStoreOperation("insert", collAppointments)()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return s.insert(ctx, collAppointments, "insert appointment", a)
}

func (s *Store) UpdateAppointment(ctx context.Context, userID, id string, fields store.Fields) error {
	defer metrics.TrackStoreOperation("update", collAppointments)()
	return s.set(ctx, collAppointments, "update appointment", ownedBy(userID, id), fields)
}

func (s *Store) DeleteAppointment(ctx context.Context, userID, id string) error {
	defer metrics.TrackStoreOperation("delete", collAppointments)()
	return s.deleteOne(ctx, collAppointments, "delete appointment", ownedBy(userID, id))
}

func (s *Store) GetUser(ctx context.Context, id string) (*db.User, error) {
	defer metrics.TrackStoreOperation("get", collUsers)()

	var user db.User
	if err := s.findOne(ctx, collUsers, bson.M{"_id": id}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	defer metrics.TrackStoreOperation("get", collUsers)()

	var user db.User
	if err := s.findOne(ctx, collUsers, bson.M{"email": email}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) InsertUser(ctx context.Context, u *db.User) error {
	defer metrics.TrackStoreOperation("insert", collUsers)()

	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return s.insert(ctx, collUsers, "insert user", u)
}

func (s *Store) UpdateUser(ctx context.Context, id string, fields store.Fields) error {
	defer metrics.TrackStoreOperation("update", collUsers)()

	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
	}
	return s.set(ctx, collUsers, "update user", bson.M{"_id": id}, fields)
}

func ownedBy(userID, id string) bson.M {
	return bson.M{"_id": id, "user_id": userID}
}

func (s *Store) find(ctx context.Context, coll string, filter bson.M, opts *options.FindOptions, out any) error {
	cursor, err := s.db.Collection(coll).Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func (s *Store) findOne(ctx context.Context, coll string, filter bson.M, out any) error {
	err := s.db.Collection(coll).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s: %w", coll, err)
	}
	return nil
}

func (s *Store) insert(ctx context.Context, coll, op string, doc any) error {
	if _, err := s.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) set(ctx context.Context, coll, op string, filter bson.M, fields store.Fields) error {
	if len(fields) == 0 {
		return nil
	}
	result, err := s.db.Collection(coll).UpdateOne(ctx, filter, bson.M{"$set": bson.M(fields)})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) deleteOne(ctx context.Context, coll, op string, filter bson.M) error {
	result, err := s.db.Collection(coll).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
