package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Collection names
const (
	CollPartners              = "partners"
	CollUsers                 = "users"
	CollCategories            = "categories"
	CollOptions               = "options"
	CollConfigurations        = "configurations"
	CollPartnerConfigurations = "partnerConfigurations"
	CollFilters               = "filters"
	CollProducts              = "products"
	CollOrders                = "orders"
	CollCheckouts             = "checkouts"
	CollWebhooks              = "webhooks"
	CollAssets                = "cloudinary"
	CollHouseStyles           = "houseStyles"
	CollModelJobs             = "modelJobs"
)

// Collections lists every collection the service writes to
var Collections = []string{
	CollPartners, CollUsers, CollCategories, CollOptions, CollConfigurations,
	CollPartnerConfigurations, CollFilters, CollProducts, CollOrders, CollCheckouts,
	CollWebhooks, CollAssets, CollHouseStyles, CollModelJobs,
}

// uniqueIndexes are created on startup for every backend
var uniqueIndexes = []struct {
	coll   string
	fields []string
}{
	{CollUsers, []string{"email"}},
	{CollCategories, []string{"name", "partnerId"}},
	{CollPartnerConfigurations, []string{"partnerId", "configurationId"}},
	{CollFilters, []string{"name", "partnerId"}},
	{CollProducts, []string{"productCode"}},
}

// Options selects and configures the document store backend
type Options struct {
	Type          string // mongo, postgres or memory
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
	MaxRetries    int
	RetryDelay    time.Duration
}

// Database holds the shared document store and exposes typed accessors per collection
type Database struct {
	Store Store
}

// NewDatabase connects to the configured backend and prepares collections and indexes
func NewDatabase(ctx context.Context, opts Options) (*Database, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	var store Store
	switch opts.Type {
	case "mongo":
		s, err := NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase, opts.MaxRetries, opts.RetryDelay)
		if err != nil {
			return nil, err
		}
		store = s
	case "postgres":
		s, err := NewPostgresStore(ctx, opts.DatabaseURL, opts.MaxRetries, opts.RetryDelay)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx, Collections); err != nil {
			s.Close(ctx)
			return nil, err
		}
		store = s
	case "memory", "":
		log.Println("[DB] Using in-memory document store; data is lost on restart")
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", opts.Type)
	}

	database := New(store)
	if err := database.EnsureIndexes(ctx); err != nil {
		store.Close(ctx)
		return nil, err
	}
	return database, nil
}

// New wraps an already connected store
func New(store Store) *Database {
	return &Database{Store: store}
}

// EnsureIndexes creates the unique indexes the handlers rely on for conflict detection
func (db *Database) EnsureIndexes(ctx context.Context) error {
	for _, idx := range uniqueIndexes {
		if err := db.Store.EnsureUnique(ctx, idx.coll, idx.fields...); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the store connection
func (db *Database) Close(ctx context.Context) error {
	return db.Store.Close(ctx)
}

// Health checks if the database is reachable
func (db *Database) Health(ctx context.Context) error {
	return db.Store.Ping(ctx)
}

func newID() string {
	return uuid.NewString()
}

func get[T any](ctx context.Context, s Store, coll, id string) (*T, error) {
	var out T
	if err := s.FindByID(ctx, coll, id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func findOne[T any](ctx context.Context, s Store, coll string, filter Filter) (*T, error) {
	var out T
	if err := s.FindOne(ctx, coll, filter, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func list[T any](ctx context.Context, s Store, coll string, filter Filter, opts *FindOptions) ([]T, error) {
	out := make([]T, 0)
	if err := s.Find(ctx, coll, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// byCreated lists oldest first
var byCreated = &FindOptions{Sort: "createdAt"}
