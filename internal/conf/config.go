// config.go: settings struct for the light-trap ETL pipeline and the
// functions to load and save them.
package conf

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pnwcrab/lighttrap-go/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// Join policies for station enrichment. Inner fails the run on a site code
// with no station record, left retains the row with empty coordinates.
const (
	JoinPolicyInner = "inner"
	JoinPolicyLeft  = "left"
)

// LogSettings contains settings for the rotating run log.
type LogSettings struct {
	Enabled    bool   // true to write a rotating JSON log file
	Path       string // log file path
	MaxSize    int    // maximum size of a single log file in MB
	MaxBackups int    // rotated files to keep
}

// MainSettings contains application-level settings.
type MainSettings struct {
	Name string      // tool instance name used in log records
	Log  LogSettings // run log settings
}

// InputSettings names the source files for one release cycle. Counts and
// Measurements accept literal paths or globs, one entry per survey year.
type InputSettings struct {
	Counts       []string // per-year trap count CSV files
	Measurements []string // per-year carapace width CSV files
	Stations     string   // station metadata CSV, keyed by site code
	Workers      int      // parallel per-year file loads, 0 or 1 for sequential
}

// QCSettings carries the accepted quality-control code set. The accepted set
// has changed between dataset revisions, so it is configuration, not code,
// and the revision label travels with it into the run log.
type QCSettings struct {
	Accepted []string // QC codes admitted to the published tables
	Revision string   // label of the QC policy revision in effect
}

// EnrichSettings controls the station join.
type EnrichSettings struct {
	JoinPolicy string // "inner" or "left"
}

// RedactSettings holds the two deny-lists. Counts are redacted by site code,
// measurements by free-text site name; the lists are independent because the
// identifier types differ.
type RedactSettings struct {
	SiteCodes []string // site codes pending data-sharing agreements
	SiteNames []string // site names pending data-sharing agreements
}

// SQLiteSettings contains settings for the optional SQLite archive of the
// master tables.
type SQLiteSettings struct {
	Enabled bool
	Path    string
}

// OutputSettings names the output directory and the optional archive.
type OutputSettings struct {
	Path   string // directory the five release tables are written to
	SQLite SQLiteSettings
}

// Settings is the root configuration for one pipeline run.
type Settings struct {
	Debug bool // true to enable debug log output

	Main   MainSettings
	Input  InputSettings
	QC     QCSettings
	Enrich EnrichSettings
	Redact RedactSettings
	Output OutputSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.Mutex
)

// Load reads the configuration into a validated Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// GetSettings returns the settings loaded by the last call to Load.
func GetSettings() *Settings {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	return settingsInstance
}

// initViper initializes viper with defaults, search paths and the config file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the first
// config path and reads it back in.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	defaultConfig, err := configFiles.ReadFile("config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// SaveSettings writes the settings back to the given path as YAML. Used by
// the validate command to normalize an operator-edited config.
func SaveSettings(settings *Settings, path string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "marshal-settings").
			Build()
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	return nil
}
