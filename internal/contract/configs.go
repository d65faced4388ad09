package contract

import (
	"fmt"
	"maps"
	"math"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nishalpattan/code-review-analyzer/schema"
)

// Default values for configuration.
const (
	DefaultMaxConcurrentAdapters   = 4
	DefaultGlobalJobTimeoutSeconds = 600
	DefaultToolTimeoutSeconds      = 120
	DefaultMaxRepoSizeMB           = 500
	DefaultMaxFileCount            = 100000
	DefaultResultLimit             = 25
	MaxResultLimit                 = 1000
	DefaultPrecision               = 1
)

// weightSumTolerance bounds how far a weight set may drift from 1.0.
const weightSumTolerance = 0.001

// DefaultWorkers is the default number of jobs the engine runs at once.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// DefaultEnabledTools are the adapters registered when no tool config says otherwise.
var DefaultEnabledTools = []string{
	schema.ToolLint,
	schema.ToolSecurity,
	schema.ToolComplexity,
	schema.ToolStyle,
	schema.ToolDeadCode,
}

// KnownTools lists every built-in adapter, including the opt-in ones.
var KnownTools = []string{
	schema.ToolLint,
	schema.ToolSecurity,
	schema.ToolComplexity,
	schema.ToolStyle,
	schema.ToolDeadCode,
	schema.ToolCoverage,
	schema.ToolDocs,
}

// DefaultToolCommands maps each built-in adapter to the executable it drives.
var DefaultToolCommands = map[string]string{
	schema.ToolLint:       "pylint",
	schema.ToolSecurity:   "bandit",
	schema.ToolComplexity: "radon",
	schema.ToolStyle:      "flake8",
	schema.ToolDeadCode:   "vulture",
	schema.ToolCoverage:   "coverage",
	schema.ToolDocs:       "radon",
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ToolOptions is the validated configuration of one adapter.
type ToolOptions struct {
	Enabled bool
	Command string
	Config  schema.ToolConfig
}

// CategoryWeightsRaw holds the custom weights of one aggregate score.
// Use float64 pointers so that omitted categories stay out of the set.
type CategoryWeightsRaw struct {
	Lint            *float64 `mapstructure:"lint"`
	Security        *float64 `mapstructure:"security"`
	Complexity      *float64 `mapstructure:"complexity"`
	Coverage        *float64 `mapstructure:"coverage"`
	Style           *float64 `mapstructure:"style"`
	Documentation   *float64 `mapstructure:"documentation"`
	Maintainability *float64 `mapstructure:"maintainability"`
	DeadCode        *float64 `mapstructure:"dead_code"`
}

// WeightsRawInput holds all custom scoring definitions from the YAML config file.
type WeightsRawInput struct {
	Confidence *CategoryWeightsRaw `mapstructure:"confidence"`
	Quality    *CategoryWeightsRaw `mapstructure:"quality"`
}

// PenaltiesRawInput holds custom normalization factors from the YAML config file.
type PenaltiesRawInput struct {
	SecurityPerIssue   *float64 `mapstructure:"security_per_issue"`
	ComplexityPerPoint *float64 `mapstructure:"complexity_per_point"`
	StylePerIssue      *float64 `mapstructure:"style_per_issue"`
	DeadCodePerItem    *float64 `mapstructure:"dead_code_per_item"`
	DocsTargetRatio    *float64 `mapstructure:"docs_target_ratio"`
}

// ToolRawInput holds the per-tool section of the YAML config file.
type ToolRawInput struct {
	Enabled        *bool    `mapstructure:"enabled"`
	Command        string   `mapstructure:"command"`
	Ruleset        []string `mapstructure:"ruleset"`
	TimeoutSeconds *int     `mapstructure:"timeout_seconds"`
	ExcludePaths   []string `mapstructure:"exclude_paths"`
}

// Config holds the runtime configuration of the engine and the CLI.
// This struct remains the "final, validated" config.
type Config struct {
	Source     string // Local path or clone URL given to analyze
	Branch     string
	CommitHash string

	Workers               int
	MaxConcurrentAdapters int
	GlobalJobTimeout      time.Duration
	WorkspaceDir          string
	MaxRepoSizeBytes      int64
	MaxFileCount          int

	// Tools is keyed by adapter name.
	Tools map[string]ToolOptions

	ConfidenceWeights schema.WeightSet
	QualityWeights    schema.WeightSet
	Penalties         schema.Penalties

	// FailUnder maps "confidence" or "quality" to the minimum acceptable score.
	FailUnder map[string]float64

	Output      schema.OutputMode
	OutputFile  string
	Precision   int
	ResultLimit int
	Width       int // Terminal width override (0 = auto-detect)
	Verbose     bool
	NoCache     bool
	UseColors   bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	SourceStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	OutputFile     string `mapstructure:"output-file"`
	Output         string `mapstructure:"output"`
	Limit          int    `mapstructure:"limit"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Verbose        bool   `mapstructure:"verbose"`
	Color          string `mapstructure:"color"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`

	// --- Engine limits ---
	Workers               int    `mapstructure:"workers"`
	MaxConcurrentAdapters int    `mapstructure:"max-concurrent-adapters"`
	GlobalJobTimeout      int    `mapstructure:"global-job-timeout"`
	ToolTimeout           int    `mapstructure:"tool-timeout"`
	WorkspaceDir          string `mapstructure:"workspace-dir"`
	MaxRepoSizeMB         int    `mapstructure:"max-repo-size-mb"`
	MaxFileCount          int    `mapstructure:"max-file-count"`

	// --- Fields from analyzeCmd.Flags() ---
	Branch       string `mapstructure:"branch"`
	Commit       string `mapstructure:"commit"`
	Exclude      string `mapstructure:"exclude"`
	Enable       string `mapstructure:"enable"`
	Disable      string `mapstructure:"disable"`
	FailUnderStr string `mapstructure:"fail-under"`
	NoCache      bool   `mapstructure:"no-cache"`

	// --- Sections from the config file ---
	Tools     map[string]ToolRawInput `mapstructure:"tools"`
	Weights   WeightsRawInput         `mapstructure:"weights"`
	Penalties PenaltiesRawInput       `mapstructure:"penalties"`
}

// NewDefaultConfig returns a config that passes Validate without any user input.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Workers:               DefaultWorkers,
		MaxConcurrentAdapters: DefaultMaxConcurrentAdapters,
		GlobalJobTimeout:      DefaultGlobalJobTimeoutSeconds * time.Second,
		WorkspaceDir:          GetWorkspaceDir(),
		MaxRepoSizeBytes:      DefaultMaxRepoSizeMB * 1024 * 1024,
		MaxFileCount:          DefaultMaxFileCount,
		Tools:                 make(map[string]ToolOptions, len(KnownTools)),
		ConfidenceWeights:     schema.DefaultConfidenceWeights(),
		QualityWeights:        schema.DefaultQualityWeights(),
		Penalties:             schema.DefaultPenalties(),
		Output:                schema.TextOut,
		Precision:             DefaultPrecision,
		ResultLimit:           DefaultResultLimit,
		StoreBackend:          schema.SQLiteBackend,
		CacheBackend:          schema.SQLiteBackend,
	}
	for _, name := range KnownTools {
		cfg.Tools[name] = ToolOptions{
			Enabled: slices.Contains(DefaultEnabledTools, name),
			Command: DefaultToolCommands[name],
			Config:  schema.ToolConfig{TimeoutSeconds: DefaultToolTimeoutSeconds},
		}
	}
	return cfg
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Tools != nil {
		clone.Tools = make(map[string]ToolOptions, len(c.Tools))
		for name, opts := range c.Tools {
			opts.Config.Ruleset = slices.Clone(opts.Config.Ruleset)
			opts.Config.ExcludePaths = slices.Clone(opts.Config.ExcludePaths)
			clone.Tools[name] = opts
		}
	}
	clone.ConfidenceWeights = c.ConfidenceWeights.Clone()
	clone.QualityWeights = c.QualityWeights.Clone()
	clone.FailUnder = maps.Clone(c.FailUnder)
	return &clone
}

// EnabledTools returns the names of the enabled adapters in registration order.
func (c *Config) EnabledTools() []string {
	var names []string
	for _, name := range KnownTools {
		if opts, ok := c.Tools[name]; ok && opts.Enabled {
			names = append(names, name)
		}
	}
	return names
}

// ToolConfigFor returns the options handed to the named adapter.
// Unknown tools get the default timeout and no rules.
func (c *Config) ToolConfigFor(name string) schema.ToolConfig {
	if opts, ok := c.Tools[name]; ok {
		return opts.Config
	}
	return schema.ToolConfig{TimeoutSeconds: DefaultToolTimeoutSeconds}
}

// ToolCommand returns the executable for the named adapter.
func (c *Config) ToolCommand(name string) string {
	if opts, ok := c.Tools[name]; ok && opts.Command != "" {
		return opts.Command
	}
	return DefaultToolCommands[name]
}

// Validate checks the invariants the engine relies on. It is called by
// ProcessAndValidate and again when an engine is constructed.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return ConfigErrorf("workers must be greater than 0 (received %d)", c.Workers)
	}
	if c.MaxConcurrentAdapters <= 0 {
		return ConfigErrorf("max-concurrent-adapters must be greater than 0 (received %d)", c.MaxConcurrentAdapters)
	}
	if c.GlobalJobTimeout <= 0 {
		return ConfigErrorf("global-job-timeout must be greater than 0 (received %s)", c.GlobalJobTimeout)
	}
	if c.MaxRepoSizeBytes <= 0 {
		return ConfigErrorf("max-repo-size-mb must be greater than 0")
	}
	if c.MaxFileCount <= 0 {
		return ConfigErrorf("max-file-count must be greater than 0 (received %d)", c.MaxFileCount)
	}
	for _, name := range slices.Sorted(maps.Keys(c.Tools)) {
		opts := c.Tools[name]
		if !opts.Enabled {
			continue
		}
		timeout := opts.Config.Timeout()
		if timeout <= 0 {
			return ConfigErrorf("timeout for tool %s must be greater than 0 (received %ds)", name, opts.Config.TimeoutSeconds)
		}
		if timeout > c.GlobalJobTimeout {
			return ConfigErrorf("timeout for tool %s (%s) exceeds the global job timeout (%s)", name, timeout, c.GlobalJobTimeout)
		}
	}
	if err := ValidateWeightSet("confidence", c.ConfidenceWeights); err != nil {
		return err
	}
	if err := ValidateWeightSet("quality", c.QualityWeights); err != nil {
		return err
	}
	return ValidatePenalties(c.Penalties)
}

// ValidateWeightSet checks that a weight set is non-empty, has known non-negative
// categories and sums to 1.0 within tolerance.
func ValidateWeightSet(name string, weights schema.WeightSet) error {
	if len(weights) == 0 {
		return ConfigErrorf("%s weights must not be empty", name)
	}
	for cat, w := range weights {
		if _, ok := schema.ValidCategories[cat]; !ok {
			return ConfigErrorf("%s weights contain unknown category %q", name, cat)
		}
		if w < 0 || math.IsNaN(w) {
			return ConfigErrorf("%s weight for %s must not be negative (received %.3f)", name, cat, w)
		}
	}
	if sum := weights.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return ConfigErrorf("%s weights must sum to 1.0, got %.3f", name, sum)
	}
	return nil
}

// ValidatePenalties checks that every penalty factor is usable by the scoring engine.
func ValidatePenalties(p schema.Penalties) error {
	for name, v := range map[string]float64{
		"security_per_issue":   p.SecurityPerIssue,
		"complexity_per_point": p.ComplexityPerPoint,
		"style_per_issue":      p.StylePerIssue,
		"dead_code_per_item":   p.DeadCodePerItem,
	} {
		if v < 0 {
			return ConfigErrorf("penalty %s must not be negative (received %.3f)", name, v)
		}
	}
	if p.DocsTargetRatio <= 0 || p.DocsTargetRatio > 1 {
		return ConfigErrorf("penalty docs_target_ratio must be in (0, 1] (received %.3f)", p.DocsTargetRatio)
	}
	return nil
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. Every error it returns matches ErrConfig.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processLimits(cfg, input); err != nil {
		return err
	}
	if err := processTools(cfg, input); err != nil {
		return err
	}
	if err := processCustomWeights(cfg, input); err != nil {
		return err
	}
	if err := processPenalties(cfg, input); err != nil {
		return err
	}
	if err := processFailUnder(cfg, input); err != nil {
		return err
	}
	return cfg.Validate()
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates store and cache backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Store Backend Validation ---
	if input.StoreBackend != "" {
		cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return ConfigErrorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return ConfigErrorf("store-db-connect: %v", err)
	}

	// --- Cache Backend Validation ---
	if input.CacheBackend != "" {
		cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return ConfigErrorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return ConfigErrorf("cache-db-connect: %v", err)
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.StoreBackend == schema.SQLiteBackend {
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetStoreDBFilePath()
		}
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		if storePath == cachePath {
			return ConfigErrorf("store and cache must use different SQLite database files. Both resolve to %q", storePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Source = strings.TrimSpace(input.SourceStr)
	cfg.Branch = strings.TrimSpace(input.Branch)
	cfg.CommitHash = strings.TrimSpace(input.Commit)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Verbose = input.Verbose
	cfg.NoCache = input.NoCache

	if input.Color != "" {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return ConfigErrorf("invalid --color value: %v", err)
		}
		cfg.UseColors = colors
	}

	if input.Limit != 0 {
		if input.Limit < 0 || input.Limit > MaxResultLimit {
			return ConfigErrorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
		}
		cfg.ResultLimit = input.Limit
	}

	if input.Precision != 0 {
		if input.Precision < 1 || input.Precision > 2 {
			return ConfigErrorf("precision must be 1 or 2 (received %d)", input.Precision)
		}
		cfg.Precision = input.Precision
	}

	if input.Output != "" {
		cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return ConfigErrorf("invalid output format '%s'. must be text, csv, json, report", cfg.Output)
	}
	return nil
}

// processLimits applies the engine's concurrency, timeout and snapshot bounds.
// Zero values keep the defaults, negative values are rejected by Validate.
func processLimits(cfg *Config, input *ConfigRawInput) error {
	if input.Workers != 0 {
		cfg.Workers = input.Workers
	}
	if input.MaxConcurrentAdapters != 0 {
		cfg.MaxConcurrentAdapters = input.MaxConcurrentAdapters
	}
	if input.GlobalJobTimeout != 0 {
		cfg.GlobalJobTimeout = time.Duration(input.GlobalJobTimeout) * time.Second
	}
	if input.WorkspaceDir != "" {
		cfg.WorkspaceDir = input.WorkspaceDir
	}
	if input.MaxRepoSizeMB != 0 {
		cfg.MaxRepoSizeBytes = int64(input.MaxRepoSizeMB) * 1024 * 1024
	}
	if input.MaxFileCount != 0 {
		cfg.MaxFileCount = input.MaxFileCount
	}
	return nil
}

// processTools merges the tools section, the shared flags and the enable/disable lists
// into the per-adapter options.
func processTools(cfg *Config, input *ConfigRawInput) error {
	if cfg.Tools == nil {
		cfg.Tools = make(map[string]ToolOptions)
	}
	sharedExcludes := splitList(input.Exclude)

	for _, name := range slices.Sorted(maps.Keys(input.Tools)) {
		if !slices.Contains(KnownTools, name) {
			return ConfigErrorf("unknown tool %q in config. must be one of %s", name, strings.Join(KnownTools, ", "))
		}
	}

	for _, name := range KnownTools {
		opts, ok := cfg.Tools[name]
		if !ok {
			opts = ToolOptions{Command: DefaultToolCommands[name], Config: schema.ToolConfig{TimeoutSeconds: DefaultToolTimeoutSeconds}}
		}
		if input.ToolTimeout != 0 {
			opts.Config.TimeoutSeconds = input.ToolTimeout
		}
		if raw, found := input.Tools[name]; found {
			if raw.Enabled != nil {
				opts.Enabled = *raw.Enabled
			}
			if raw.Command != "" {
				opts.Command = raw.Command
			}
			if raw.Ruleset != nil {
				opts.Config.Ruleset = slices.Clone(raw.Ruleset)
			}
			if raw.TimeoutSeconds != nil {
				opts.Config.TimeoutSeconds = *raw.TimeoutSeconds
			}
			if raw.ExcludePaths != nil {
				opts.Config.ExcludePaths = slices.Clone(raw.ExcludePaths)
			}
		}
		for _, ex := range sharedExcludes {
			if !slices.Contains(opts.Config.ExcludePaths, ex) {
				opts.Config.ExcludePaths = append(opts.Config.ExcludePaths, ex)
			}
		}
		cfg.Tools[name] = opts
	}

	toggles := []struct {
		list    string
		enabled bool
	}{{input.Enable, true}, {input.Disable, false}}
	for _, toggle := range toggles {
		for _, name := range splitList(toggle.list) {
			opts, ok := cfg.Tools[name]
			if !ok {
				return ConfigErrorf("unknown tool %q. must be one of %s", name, strings.Join(KnownTools, ", "))
			}
			opts.Enabled = toggle.enabled
			cfg.Tools[name] = opts
		}
	}

	if len(cfg.EnabledTools()) == 0 {
		return ConfigErrorf("at least one tool must be enabled")
	}
	return nil
}

// ProcessWeightsRawInput converts the raw category weights into a weight set.
// A nil input yields a nil set. If validateSum is true, the set must sum to 1.0.
func ProcessWeightsRawInput(name string, raw *CategoryWeightsRaw, validateSum bool) (schema.WeightSet, error) {
	if raw == nil {
		return nil, nil
	}
	set := make(schema.WeightSet)
	for cat, v := range map[schema.Category]*float64{
		schema.CategoryLint:            raw.Lint,
		schema.CategorySecurity:        raw.Security,
		schema.CategoryComplexity:      raw.Complexity,
		schema.CategoryCoverage:        raw.Coverage,
		schema.CategoryStyle:           raw.Style,
		schema.CategoryDocumentation:   raw.Documentation,
		schema.CategoryMaintainability: raw.Maintainability,
		schema.CategoryDeadCode:        raw.DeadCode,
	} {
		if v != nil {
			set[cat] = *v
		}
	}
	if len(set) == 0 {
		return nil, nil
	}
	if validateSum {
		if err := ValidateWeightSet(name, set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// processCustomWeights replaces the default weight sets with the ones from the config file.
// A custom set replaces the default wholesale so that the sum stays 1.0.
func processCustomWeights(cfg *Config, input *ConfigRawInput) error {
	confidence, err := ProcessWeightsRawInput("confidence", input.Weights.Confidence, true)
	if err != nil {
		return err
	}
	if confidence != nil {
		cfg.ConfidenceWeights = confidence
	}
	quality, err := ProcessWeightsRawInput("quality", input.Weights.Quality, true)
	if err != nil {
		return err
	}
	if quality != nil {
		cfg.QualityWeights = quality
	}
	return nil
}

// processPenalties overrides individual normalization factors.
func processPenalties(cfg *Config, input *ConfigRawInput) error {
	raw := input.Penalties
	if raw.SecurityPerIssue != nil {
		cfg.Penalties.SecurityPerIssue = *raw.SecurityPerIssue
	}
	if raw.ComplexityPerPoint != nil {
		cfg.Penalties.ComplexityPerPoint = *raw.ComplexityPerPoint
	}
	if raw.StylePerIssue != nil {
		cfg.Penalties.StylePerIssue = *raw.StylePerIssue
	}
	if raw.DeadCodePerItem != nil {
		cfg.Penalties.DeadCodePerItem = *raw.DeadCodePerItem
	}
	if raw.DocsTargetRatio != nil {
		cfg.Penalties.DocsTargetRatio = *raw.DocsTargetRatio
	}
	return nil
}

// processFailUnder parses the --fail-under thresholds.
func processFailUnder(cfg *Config, input *ConfigRawInput) error {
	thresholds, err := ParseScoreThresholds(input.FailUnderStr)
	if err != nil {
		return ConfigErrorf("invalid --fail-under format: %v", err)
	}
	cfg.FailUnder = thresholds
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// Score names accepted by ParseScoreThresholds.
const (
	ConfidenceScoreName = "confidence"
	QualityScoreName    = "quality"
)

// ParseScoreThresholds parses a string like "confidence:60,quality:70"
// into a map of score name to minimum value.
func ParseScoreThresholds(s string) (map[string]float64, error) {
	thresholds := make(map[string]float64)

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid threshold format '%s', expected 'score:value'", part)
		}

		name := strings.ToLower(strings.TrimSpace(keyValue[0]))
		if name != ConfidenceScoreName && name != QualityScoreName {
			return nil, fmt.Errorf("invalid score '%s', must be confidence or quality", name)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(keyValue[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold value '%s' for %s: %w", keyValue[1], name, err)
		}
		if value < 0 || value > 100 {
			return nil, fmt.Errorf("threshold for %s must be between 0 and 100 (received %.2f)", name, value)
		}
		thresholds[name] = value
	}

	return thresholds, nil
}

func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
