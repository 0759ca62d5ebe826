package repositories

import (
	"fmt"

	"github.com/desertthunder/tidalx/internal/shared"
)

// KV is a namespaced key-value store. Put writes all values atomically.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Put(values map[string]string) error
	Delete(keys ...string) error
	Close() error
}

// Open returns the [KV] backend selected by driver, scoped to namespace.
func Open(driver, path, namespace string) (KV, error) {
	switch driver {
	case "sqlite":
		db, err := shared.OpenMigrated(path)
		if err != nil {
			return nil, err
		}
		return NewSQLiteKV(db, namespace), nil
	case "bolt":
		return OpenBoltKV(path, namespace)
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", shared.ErrInvalidConfig, driver)
	}
}
