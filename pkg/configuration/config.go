package configuration

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds the INI-style settings of the interpreter.
type Config struct {
	settings map[string]map[string]string
	filePath string
	mu       sync.RWMutex
}

var (
	globalConfig *Config
	globalMu     sync.Mutex
)

// sectionOrder is the order sections are written in.
var sectionOrder = []string{"Interpreter", "Store", "Console", "Server", "TLS", "JWT", "Authentication", "Debug"}

// Initialize loads the global configuration. A missing file is created with
// defaults. A sibling "<name>.local<ext>" file, if present, overrides values.
func Initialize(configPath string) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	localPath := localConfigPath(configPath)
	if _, err := os.Stat(localPath); err == nil {
		// A broken local overlay leaves the base configuration in place.
		_ = config.loadLocalConfig(localPath)
	}

	globalMu.Lock()
	globalConfig = config
	globalMu.Unlock()
	return nil
}

func localConfigPath(configPath string) string {
	ext := filepath.Ext(configPath)
	return strings.TrimSuffix(configPath, ext) + ".local" + ext
}

func current() *Config {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalConfig
}

// loadConfig reads a configuration file, creating it when it does not exist.
func loadConfig(filePath string) (*Config, error) {
	config := &Config{
		settings: make(map[string]map[string]string),
		filePath: filePath,
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		config.createDefaultConfig()
		if err := config.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %v", err)
		}
		return config, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := config.parse(file); err != nil {
		return nil, err
	}
	return config, nil
}

// loadLocalConfig overlays values from a second file.
func (c *Config) loadLocalConfig(filePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return c.parse(file)
}

// parse reads "[Section]" headers and "key = value" lines; ';' and '#'
// start comments.
func (c *Config) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	currentSection := ""

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = line[1 : len(line)-1]
			if c.settings[currentSection] == nil {
				c.settings[currentSection] = make(map[string]string)
			}
			continue
		}

		if strings.Contains(line, "=") && currentSection != "" {
			parts := strings.SplitN(line, "=", 2)
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			c.settings[currentSection][key] = value
		}
	}
	return scanner.Err()
}

// createDefaultConfig fills in every setting the program reads.
func (c *Config) createDefaultConfig() {
	c.settings["Interpreter"] = map[string]string{
		"max_call_depth":    "256",
		"max_loop_depth":    "200",
		"max_string_length": "255",
		"print_zone_width":  "10",
		"random_seed":       "0",
		"trace_parse":       "false",
	}

	c.settings["Store"] = map[string]string{
		"database_path": "programs.db",
		"program_dir":   ".",
	}

	c.settings["Server"] = map[string]string{
		"listen_address":      ":8080",
		"write_wait_timeout":  "10s",
		"pong_timeout":        "60s",
		"max_message_size_kb": "64",
		"input_timeout":       "5m",
		"max_sessions":        "100",
		"max_run_time":        "0s",
		"sessions_per_minute": "30",
		"allowed_origins":     "",
	}

	c.settings["Console"] = map[string]string{
		"history_file": "",
	}

	c.settings["TLS"] = map[string]string{
		"enable_tls":           "false",
		"enable_letsencrypt":   "false",
		"self_signed":          "false",
		"domain":               "",
		"letsencrypt_email":    "",
		"cert_cache_dir":       "./certs",
		"cert_file":            "./certs/server.crt",
		"key_file":             "./certs/server.key",
		"force_https_redirect": "false",
		"http_address":         ":80",
	}

	c.settings["JWT"] = map[string]string{
		"secret_key":             "",
		"token_expiration_hours": "24",
	}

	c.settings["Authentication"] = map[string]string{
		"password_hash_cost":  "10",
		"min_password_length": "6",
	}

	c.settings["Debug"] = map[string]string{
		"enable_debug_logging": "false",
		"log_level":            "INFO",
		"log_file":             "bbcbasic.log",
		"max_log_size_mb":      "10",
		"log_rotation_count":   "3",
		"log_interpreter":      "false",
		"log_parser":           "false",
		"log_program":          "false",
		"log_store":            "true",
		"log_server":           "true",
		"log_auth":             "true",
		"log_session":          "false",
		"log_config":           "true",
		"log_general":          "true",
	}
}

// saveToFile writes the configuration with sections in a fixed order and
// keys sorted. Unknown sections follow the known ones.
func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(c.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	w.WriteString("; BBC BASIC Configuration File\n")
	w.WriteString("; Generated automatically - modify with care\n")
	w.WriteString(";\n\n")

	for _, section := range c.orderedSections() {
		settings := c.settings[section]
		fmt.Fprintf(w, "[%s]\n", section)

		keys := make([]string, 0, len(settings))
		for key := range settings {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "%s = %s\n", key, settings[key])
		}
		w.WriteString("\n")
	}
	return w.Flush()
}

func (c *Config) orderedSections() []string {
	seen := make(map[string]bool)
	var sections []string
	for _, section := range sectionOrder {
		if _, ok := c.settings[section]; ok {
			sections = append(sections, section)
			seen[section] = true
		}
	}
	var extra []string
	for section := range c.settings {
		if !seen[section] {
			extra = append(extra, section)
		}
	}
	sort.Strings(extra)
	return append(sections, extra...)
}

// GetString returns a value, or defaultValue when the key is not set.
func GetString(section, key, defaultValue string) string {
	config := current()
	if config == nil {
		return defaultValue
	}

	config.mu.RLock()
	defer config.mu.RUnlock()

	if sectionMap, exists := config.settings[section]; exists {
		if value, exists := sectionMap[key]; exists {
			return value
		}
	}

	return defaultValue
}

// GetInt returns an integer value.
func GetInt(section, key string, defaultValue int) int {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := strconv.Atoi(str); err == nil {
		return value
	}

	return defaultValue
}

// GetInt64 returns a 64-bit integer value.
func GetInt64(section, key string, defaultValue int64) int64 {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := strconv.ParseInt(str, 10, 64); err == nil {
		return value
	}

	return defaultValue
}

// GetFloat returns a floating point value.
func GetFloat(section, key string, defaultValue float64) float64 {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := strconv.ParseFloat(str, 64); err == nil {
		return value
	}

	return defaultValue
}

// GetBool returns a boolean value.
func GetBool(section, key string, defaultValue bool) bool {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := strconv.ParseBool(str); err == nil {
		return value
	}

	return defaultValue
}

// GetDuration returns a duration value such as "10s" or "5m".
func GetDuration(section, key string, defaultValue time.Duration) time.Duration {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := time.ParseDuration(str); err == nil {
		return value
	}

	return defaultValue
}

// GetSection returns a copy of every key in a section.
func GetSection(sectionName string) map[string]string {
	config := current()
	if config == nil {
		return make(map[string]string)
	}

	config.mu.RLock()
	defer config.mu.RUnlock()

	result := make(map[string]string)
	for key, value := range config.settings[sectionName] {
		result[key] = value
	}
	return result
}

// SetString changes a value in memory; Save persists it.
func SetString(section, key, value string) {
	config := current()
	if config == nil {
		return
	}

	config.mu.Lock()
	defer config.mu.Unlock()

	if config.settings[section] == nil {
		config.settings[section] = make(map[string]string)
	}

	config.settings[section][key] = value
}

// Save writes the configuration back to its file.
func Save() error {
	config := current()
	if config == nil {
		return fmt.Errorf("configuration not initialized")
	}

	config.mu.RLock()
	defer config.mu.RUnlock()

	return config.saveToFile()
}
