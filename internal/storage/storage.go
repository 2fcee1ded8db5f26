// Package storage holds the durable collaborators of the bot: the Postgres
// decision archive and the Redis relay of the moderation feed.
package storage

import (
	"context"
	"time"

	"complaintbot/backend/internal/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Archive is the decision archive used by the moderation workflow, the
// HTTP API and the admin CLI.
type Archive interface {
	Save(ctx context.Context, rec *models.Complaint) error
	Get(ctx context.Context, id string) (*models.Complaint, error)
	List(ctx context.Context, decision models.Decision, limit int) ([]models.Complaint, error)
	Stats(ctx context.Context) (Stats, error)
}

// Stats counts archived records per decision.
type Stats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// Total returns the number of archived records.
func (s Stats) Total() int64 { return s.Pending + s.Approved + s.Rejected }

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor. rdb may be nil when the relay is not used.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// OpenPostgres відкриває з'єднання з PostgreSQL без шумного SQL-логу gorm.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	return db, nil
}

// OpenRedis підключається до Redis і перевіряє з'єднання.
func OpenRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}
	return rdb, nil
}

// Migrate створює або оновлює таблицю complaints.
func (s *Service) Migrate() error {
	return errors.Wrap(s.DB.AutoMigrate(&models.Complaint{}), "migrate complaints")
}
