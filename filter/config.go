package filter

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the --config YAML equivalent of the CLI's repeatable
// filter flags, so a long filter list can be kept in a file instead of
// the command line.
type Config struct {
	Tables           []string `yaml:"tables"`
	ExcludeTables    []string `yaml:"exclude_tables"`
	Databases        []string `yaml:"databases"`
	ExcludeDatabases []string `yaml:"exclude_databases"`
	Engines          []string `yaml:"engines"`
	ExcludeEngines   []string `yaml:"exclude_engines"`
	NoData           bool     `yaml:"no_data"`
	SkipBinlog       bool     `yaml:"skip_binlog"`
	SkipTriggers     bool     `yaml:"skip_triggers"`
	SkipRoutines     bool     `yaml:"skip_routines"`
}

// LoadConfig reads and parses a YAML config file. An empty path returns
// a zero Config rather than an error, matching the teacher's
// ParseGeneratorConfig convention of tolerating "no config given".
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return parseConfigBytes(buf)
}

func parseConfigBytes(buf []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// MergeConfig merges base and override, with override's fields taking
// precedence wherever they are set -- the CLI flags are the override.
// A list given on the command line replaces the config file's list for
// that field rather than adding to it; a boolean flag can only turn an
// option on, never off.
func MergeConfig(base, override Config) Config {
	result := base

	if override.Tables != nil {
		result.Tables = override.Tables
	}
	if override.ExcludeTables != nil {
		result.ExcludeTables = override.ExcludeTables
	}
	if override.Databases != nil {
		result.Databases = override.Databases
	}
	if override.ExcludeDatabases != nil {
		result.ExcludeDatabases = override.ExcludeDatabases
	}
	if override.Engines != nil {
		result.Engines = override.Engines
	}
	if override.ExcludeEngines != nil {
		result.ExcludeEngines = override.ExcludeEngines
	}
	if override.NoData {
		result.NoData = true
	}
	if override.SkipBinlog {
		result.SkipBinlog = true
	}
	if override.SkipTriggers {
		result.SkipTriggers = true
	}
	if override.SkipRoutines {
		result.SkipRoutines = true
	}

	return result
}
