package config

// Config is the root application configuration.
type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Output     OutputConfig     `yaml:"output"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	Extract    ExtractConfig    `yaml:"extract"`
	Log        LogConfig        `yaml:"log"`
}

// SourceConfig points at the master database.
type SourceConfig struct {
	DatabasePath string `yaml:"database_path" env:"SOURCE_DATABASE_PATH"`
}

// OutputConfig holds settings for the extracted JSON files.
type OutputConfig struct {
	Dir    string `yaml:"dir"    env:"OUTPUT_DIR"`
	Pretty bool   `yaml:"pretty" env:"OUTPUT_PRETTY" env-default:"false"`
	// InPlace truncates and rewrites existing files instead of replacing
	// them through a temp file.
	InPlace bool `yaml:"in_place" env:"OUTPUT_IN_PLACE" env-default:"false"`
}

// DictionaryConfig holds localization dictionary settings. An empty Dir
// disables text replacement.
type DictionaryConfig struct {
	Dir           string `yaml:"dir"            env:"DICTIONARY_DIR"`
	HashAlgorithm string `yaml:"hash_algorithm" env:"DICTIONARY_HASH_ALGORITHM" env-default:"msvc-fnv1a64-utf16le"`
}

// SnapshotConfig holds settings for merging a previous run's output. An
// empty Dir disables the merge.
type SnapshotConfig struct {
	Dir        string `yaml:"dir"         env:"SNAPSHOT_DIR"`
	FlatTables bool   `yaml:"flat_tables" env:"SNAPSHOT_FLAT_TABLES" env-default:"false"`
	Policy     string `yaml:"policy"      env:"SNAPSHOT_POLICY"      env-default:"carry-forward"`
}

// ExtractConfig selects what a run does.
type ExtractConfig struct {
	Tables           string `yaml:"tables"              env:"EXTRACT_TABLES"`
	DryRun           bool   `yaml:"dry_run"             env:"EXTRACT_DRY_RUN"             env-default:"false"`
	FailOnTableError bool   `yaml:"fail_on_table_error" env:"EXTRACT_FAIL_ON_TABLE_ERROR" env-default:"false"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
