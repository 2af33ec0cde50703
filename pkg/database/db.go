// Package database wraps the MySQL primary store. It owns the pipeline's
// sink tables (collections, restaurants, collection_restaurants), the
// durable cache tier (lookup_cache), and the suggestions workflow table.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/pkg/config"
	errs "foodmap-video-importer/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
)

type DB struct {
	conn         *sql.DB
	stmts        map[string]*sql.Stmt
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func New(cfg *config.Config) (*DB, error) {
	conn, err := sql.Open("mysql", cfg.DatabaseURL)
	if err != nil {
		return nil, errs.NewDB("database.New", "failed to open connection", err)
	}

	conn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	conn.SetMaxIdleConns(cfg.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, errs.NewDB("database.New", "failed to ping database", err)
	}

	db := &DB{
		conn:         conn,
		stmts:        make(map[string]*sql.Stmt),
		readTimeout:  cfg.DBReadTimeout,
		writeTimeout: cfg.DBWriteTimeout,
	}
	if err := db.prepareStatements(); err != nil {
		return nil, err
	}
	return db, nil
}

// prepareStatements prepares frequently used SQL statements. The durable
// cache table is deliberately excluded: it may not exist yet in a
// migration-pending environment and lookups must degrade to misses.
func (db *DB) prepareStatements() error {
	statements := map[string]string{
		"insertCollection": `INSERT INTO collections (title, slug, source_url, creator_name, created_at)
		                     VALUES (?, ?, ?, ?, NOW())`,
		"selectRestaurantByPlaceID": `SELECT id FROM restaurants WHERE place_id = ?`,
		"insertLink": `INSERT IGNORE INTO collection_restaurants
		               (collection_id, restaurant_id, notes, dishes, timestamp_sec)
		               VALUES (?, ?, ?, ?, ?)`,
	}
	for name, query := range statements {
		stmt, err := db.conn.Prepare(query)
		if err != nil {
			return errs.NewDB("database.prepareStatements", fmt.Sprintf("failed to prepare statement %s", name), err)
		}
		db.stmts[name] = stmt
	}
	return nil
}

func (db *DB) Close() error {
	for _, stmt := range db.stmts {
		stmt.Close()
	}
	return db.conn.Close()
}

// Ping is used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

func (db *DB) withReadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.readTimeout)
}

func (db *DB) withWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.writeTimeout)
}

// CreateCollection inserts a new collection row and returns its id. A
// failure here is fatal for the whole extraction run.
func (db *DB) CreateCollection(ctx context.Context, c *models.Collection) (int64, error) {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	res, err := db.stmts["insertCollection"].ExecContext(ctx, c.Title, c.Slug, c.SourceURL, c.CreatorName)
	if err != nil {
		return 0, errs.NewDB("database.CreateCollection", "insert failed", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.NewDB("database.CreateCollection", "no insert id", err)
	}
	return id, nil
}

// UpsertRestaurant inserts or refreshes a restaurant row keyed by its
// external place id and returns the row id. Re-verification of the same
// place id must never create a duplicate row.
func (db *DB) UpsertRestaurant(ctx context.Context, r *models.Restaurant) (int64, error) {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO restaurants
			(place_id, name, address, lat, lng, rating, rating_count, price_level,
			 phone, classification, authenticity_score, badge_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), address = VALUES(address),
			lat = VALUES(lat), lng = VALUES(lng),
			rating = VALUES(rating), rating_count = VALUES(rating_count),
			price_level = VALUES(price_level), phone = VALUES(phone),
			classification = VALUES(classification),
			authenticity_score = VALUES(authenticity_score),
			badge_level = VALUES(badge_level)`,
		r.PlaceID, r.Name, r.Address, r.Lat, r.Lng, r.Rating, r.RatingCount,
		r.PriceLevel, r.Phone, string(r.Classification), r.AuthenticityScore, r.BadgeLevel)
	if err != nil {
		return 0, errs.NewDB("database.UpsertRestaurant", "upsert failed", err)
	}

	var id int64
	if err := db.stmts["selectRestaurantByPlaceID"].QueryRowContext(ctx, r.PlaceID).Scan(&id); err != nil {
		return 0, errs.NewDB("database.UpsertRestaurant", "failed to read row id", err)
	}
	return id, nil
}

// LinkRestaurant attaches a restaurant to a collection with mention-derived
// notes and dishes. Duplicate links are ignored.
func (db *DB) LinkRestaurant(ctx context.Context, link models.CollectionLink) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	dishes, err := json.Marshal(link.Dishes)
	if err != nil {
		return errs.NewDB("database.LinkRestaurant", "failed to encode dishes", err)
	}
	_, err = db.stmts["insertLink"].ExecContext(ctx,
		link.CollectionID, link.RestaurantID, link.Notes, string(dishes), link.TimestampSec)
	if err != nil {
		return errs.NewDB("database.LinkRestaurant", "insert failed", err)
	}
	return nil
}
