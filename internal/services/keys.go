package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PrimaryKeyID is the kid of the key seeded from jwt.secret.
const PrimaryKeyID = "primary"

// KeyRing manages the HMAC keys that sign session tokens.
type KeyRing struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewKeyRing(db *gorm.DB, cfg *config.Config) *KeyRing {
	return &KeyRing{db: db, cfg: cfg}
}

// Active returns the newest unretired key, seeding the primary key on first use.
func (k *KeyRing) Active(ctx context.Context) (*models.SigningKey, error) {
	key, err := k.newest(ctx)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "failed to load signing key")
	}

	var count int64
	if err := k.db.WithContext(ctx).Model(&models.SigningKey{}).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count signing keys")
	}
	if count > 0 {
		return nil, ErrKeyNotFound
	}

	seed := &models.SigningKey{ID: PrimaryKeyID, Secret: k.cfg.JWT.Secret}
	if err := k.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return nil, errors.Wrap(err, "failed to seed signing key")
	}

	key, err = k.newest(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load seeded signing key")
	}
	return key, nil
}

func (k *KeyRing) newest(ctx context.Context) (*models.SigningKey, error) {
	var key models.SigningKey
	if err := k.db.WithContext(ctx).
		Where("retired_at IS NULL").
		Order("created_at desc").
		First(&key).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

// Lookup returns the key with the given kid while it is still allowed to verify tokens.
func (k *KeyRing) Lookup(ctx context.Context, kid string) (*models.SigningKey, error) {
	var key models.SigningKey
	if err := k.db.WithContext(ctx).Where("id = ?", kid).First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "failed to load signing key")
	}

	if key.RetiredAt != nil && time.Since(*key.RetiredAt) > k.cfg.JWT.Grace() {
		return nil, ErrKeyRetired
	}
	return &key, nil
}

// Rotate retires every active key and installs a fresh random one.
func (k *KeyRing) Rotate(ctx context.Context) (*models.SigningKey, error) {
	secret, err := randomHex(32)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate signing key")
	}

	key := &models.SigningKey{ID: uuid.NewString(), Secret: secret}
	err = k.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.SigningKey{}).
			Where("retired_at IS NULL").
			Update("retired_at", now).Error; err != nil {
			return err
		}
		return tx.Create(key).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to rotate signing keys")
	}
	return key, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
