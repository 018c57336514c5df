package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	bolt "go.etcd.io/bbolt"
)

const sessionsBktName = "sessions"

// keys of the credentials inside the profile bucket
const (
	tokenKey = "access_token"
	userKey  = "user"
)

// Bolt is a storage that uses BoltDB as a backend.
// Every profile is a nested bucket of the sessions bucket.
type Bolt struct {
	db *bolt.DB
}

// NewBolt creates new Bolt storage.
func NewBolt(dir string) (*Bolt, error) {
	db, err := bolt.Open(path.Join(dir, "briefly.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to make boltdb for %s: %w", dir, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{sessionsBktName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create top-level bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("make buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Put stores the token and the identity of the profile in a single transaction.
func (b *Bolt) Put(_ context.Context, profile string, creds Credentials) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.Bucket([]byte(sessionsBktName)).CreateBucketIfNotExists([]byte(profile))
		if err != nil {
			return fmt.Errorf("create profile bucket: %w", err)
		}

		bts, err := json.Marshal(creds.User)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}

		if err = bkt.Put([]byte(tokenKey), []byte(creds.Token)); err != nil {
			return fmt.Errorf("put token to storage: %w", err)
		}

		if err = bkt.Put([]byte(userKey), bts); err != nil {
			return fmt.Errorf("put user to storage: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Get returns credentials of the profile.
// A profile with only one of the pair is treated as absent.
func (b *Bolt) Get(_ context.Context, profile string) (creds Credentials, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(sessionsBktName)).Bucket([]byte(profile))
		if bkt == nil {
			return ErrNotFound
		}

		token, user := bkt.Get([]byte(tokenKey)), bkt.Get([]byte(userKey))
		if len(token) == 0 || len(user) == 0 {
			return ErrNotFound
		}

		if err := json.Unmarshal(user, &creds.User); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}
		creds.Token = string(token)

		return nil
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("view storage: %w", err)
	}

	return creds, nil
}

// List returns all profiles that have credentials.
func (b *Bolt) List(context.Context) ([]string, error) {
	var result []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(sessionsBktName))
		err := bkt.ForEach(func(k, _ []byte) error {
			result = append(result, string(k))
			return nil
		})
		if err != nil {
			return fmt.Errorf("foreach: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view storage: %w", err)
	}
	return result, nil
}

// Delete removes the token and the identity of the profile.
func (b *Bolt) Delete(_ context.Context, profile string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(sessionsBktName))
		if bkt.Bucket([]byte(profile)) == nil {
			return nil
		}

		if err := bkt.DeleteBucket([]byte(profile)); err != nil {
			return fmt.Errorf("remove: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Close closes the storage.
func (b *Bolt) Close() error { return b.db.Close() }
