package config

import (
	"os"
	"path/filepath"

	lerrors "position-ledger/internal/errors"
)

const configTemplate = `# Position Ledger Configuration

[store]
# SQLite database holding the positions
path = "~/.config/position-ledger/ledger.db"
# Attempts for a write that hits a locked database
busy_retries = 5
# Delay before the first retry, doubled on each attempt
busy_delay = "50ms"

[server]
# Listen address of "ledger serve"
addr = ":8080"
# gin mode: debug, release, test
mode = "release"
shutdown_timeout = "5s"

[log]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
file_path = "~/.config/position-ledger/logs/ledger.log"
# Rotation limits (megabytes, files, days)
max_size = 100
max_backups = 7
max_age = 30

[display]
# ISO 4217 code used when printing amounts
currency = "EUR"

# Broker product names resolved to tickers on import, in addition to the
# built-in table.
# [[import.tickers]]
# product = "PEUGEOT"
# ticker = "UG"
`

func createTemplateConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return lerrors.Wrap(err, "creating config directory")
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return lerrors.Wrap(err, "writing config template")
	}
	return nil
}
