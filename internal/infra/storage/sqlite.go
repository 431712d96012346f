package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"fantasy_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the SQLite-backed session store. It implements
// domain.SessionStore so offers and tombstones survive a restart; losing a
// tombstone on restart would reopen the resurrection window it guards.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates the storage at the default per-user location.
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}
	return NewStorageAt(dbPath)
}

// NewStorageAt creates a SQLite storage at the given path.
func NewStorageAt(dbPath string) (*Storage, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	err = db.AutoMigrate(
		&domain.StoredOffer{},
		&domain.StoredTombstone{},
		&domain.PlayerInfo{},
		&domain.AppConfig{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "FantasyGo", "data", "fantasygo.db"), nil
}

// ======================================================================================
// Offer / Tombstone Operations (domain.SessionStore)
// ======================================================================================

// SaveOffer creates or updates a persisted offer.
func (s *Storage) SaveOffer(offer *domain.StoredOffer) error {
	return s.db.Save(offer).Error
}

// DeleteOffer removes a persisted offer.
func (s *Storage) DeleteOffer(playerID int64) error {
	return s.db.Where("player_id = ?", playerID).Delete(&domain.StoredOffer{}).Error
}

// LoadOffers retrieves all persisted offers.
func (s *Storage) LoadOffers() ([]domain.StoredOffer, error) {
	var offers []domain.StoredOffer
	err := s.db.Find(&offers).Error
	return offers, err
}

// SaveTombstone creates or updates a persisted tombstone.
func (s *Storage) SaveTombstone(tomb *domain.StoredTombstone) error {
	return s.db.Save(tomb).Error
}

// DeleteTombstone removes a persisted tombstone.
func (s *Storage) DeleteTombstone(playerID int64) error {
	return s.db.Where("player_id = ?", playerID).Delete(&domain.StoredTombstone{}).Error
}

// LoadTombstones retrieves all persisted tombstones.
func (s *Storage) LoadTombstones() ([]domain.StoredTombstone, error) {
	var tombs []domain.StoredTombstone
	err := s.db.Find(&tombs).Error
	return tombs, err
}

// ======================================================================================
// Player Metadata Operations
// ======================================================================================

// UpsertPlayer creates or updates player metadata.
func (s *Storage) UpsertPlayer(player *domain.PlayerInfo) error {
	return s.db.Save(player).Error
}

// GetPlayer retrieves player metadata by id.
func (s *Storage) GetPlayer(playerID int64) (*domain.PlayerInfo, error) {
	var player domain.PlayerInfo
	err := s.db.First(&player, "player_id = ?", playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &player, err
}

// GetAllPlayers retrieves all cached players.
func (s *Storage) GetAllPlayers() ([]domain.PlayerInfo, error) {
	var players []domain.PlayerInfo
	err := s.db.Find(&players).Error
	return players, err
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig saves a user configuration value.
func (s *Storage) SaveConfig(key, value string) error {
	return s.db.Save(&domain.AppConfig{Key: key, Value: value}).Error
}

// GetConfig retrieves a user configuration value.
func (s *Storage) GetConfig(key string) (string, error) {
	var cfg domain.AppConfig
	err := s.db.First(&cfg, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return cfg.Value, err
}
