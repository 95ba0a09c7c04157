package seen

import (
	"fmt"

	"github.com/feedherald/feedherald/internal/config"
)

// Open builds the store backend selected by the digest configuration.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "file":
		return OpenFile(cfg.Path)
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown seen store driver %q", cfg.Driver)
	}
}
