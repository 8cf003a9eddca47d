package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem is the file access the loader needs. Tests substitute it.
type FileSystem interface {
	Exists(path string) bool
	ReadEnv(path string) (map[string]string, error)
}

// OSFileSystem reads from the local disk.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) ReadEnv(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// Resolver finds the config and env files of a command.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles are the files a load will read. Empty means none.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles keeps explicit paths and searches for the rest.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.first(configCandidates(name))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.first(envCandidates(name))
	}
	return resolved
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// configCandidates lists config locations from most to least specific:
// the command's own directory, a shared config directory, then the working
// directory.
func configCandidates(name string) []string {
	var out []string
	for _, up := range []string{".", "..", "../.."} {
		out = append(out, filepath.Join(up, "cmd", name, "config.yml"))
	}
	return append(out,
		filepath.Join(".", "config", "config.yml"),
		filepath.Join("..", "config", "config.yml"),
		"config.yml",
		name+".yml",
		name+".yaml",
	)
}

func envCandidates(name string) []string {
	var out []string
	for _, file := range []string{".env." + name, ".env"} {
		for _, dir := range []string{filepath.Join("cmd", name), "config", "."} {
			for _, up := range []string{".", "..", "../.."} {
				out = append(out, filepath.Join(up, dir, file))
			}
		}
	}
	return out
}

// LoaderConfig holds the loader's dependencies and explicit paths.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	// Environ replaces os.Environ as the source of overrides.
	Environ []string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets the filesystem used to find and read files.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file. It must exist.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file. It must exist.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnviron replaces the process environment.
func WithEnviron(environ []string) LoaderOption {
	return func(lc *LoaderConfig) { lc.Environ = environ }
}

// EnvPrefix is the prefix of the variables that override keys of the named
// command: "powerflow" reads POWERFLOW_TOOL_BINARY into tool.binary.
func EnvPrefix(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// LoadConfig reads the YAML config of the named command into cfg and layers
// prefixed environment variables on top. Values from the .env file apply
// only where the process environment does not set the same variable. A file
// key that no field of cfg decodes is a configuration error naming its path.
func LoadConfig(name string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{Environ: os.Environ()}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = OSFileSystem{}
	}

	for _, explicit := range []string{lc.ConfigFile, lc.EnvFile} {
		if explicit != "" && !lc.FileSystem.Exists(explicit) {
			return fmt.Errorf("config file %s does not exist", explicit)
		}
	}
	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(name, lc)

	v := viper.New()
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", files.ConfigFile, err)
		}
		if err := checkKeys(v.AllSettings(), cfg); err != nil {
			return err
		}
	}

	env := make(map[string]string)
	if files.EnvFile != "" {
		fromFile, err := lc.FileSystem.ReadEnv(files.EnvFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", files.EnvFile, err)
		}
		for k, val := range fromFile {
			env[k] = val
		}
	}
	for _, kv := range lc.Environ {
		if k, val, ok := strings.Cut(kv, "="); ok {
			env[k] = val
		}
	}
	bindEnv(v, EnvPrefix(name), env)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decoding config for %s: %w", name, err)
	}
	return nil
}

// bindEnv sets every prefixed variable on the keys it can name. A variant
// matching a key from the config file wins; otherwise all variants are set
// and decoding keeps the one the struct declares.
func bindEnv(v *viper.Viper, prefix string, env map[string]string) {
	known := make(map[string]bool)
	for _, k := range v.AllKeys() {
		known[k] = true
	}
	for key, value := range env {
		rest, ok := strings.CutPrefix(key, prefix+"_")
		if !ok || rest == "" {
			continue
		}
		variants := envKeyVariants(rest)
		matched := false
		for _, k := range variants {
			if known[k] {
				v.Set(k, value)
				matched = true
			}
		}
		if matched {
			continue
		}
		for _, k := range variants {
			v.Set(k, value)
		}
	}
}

// envKeyVariants lists the config keys an UPPER_SNAKE name can stand for,
// since underscores separate both nesting levels and words:
//
//	TOOL_SCRIPT_DIR -> tool_script_dir, tool.script.dir, tool.script_dir
func envKeyVariants(name string) []string {
	lower := strings.ToLower(name)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	seen := make(map[string]bool)
	var out []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	add(lower)
	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
		add(strings.Join(parts[:i], "_") + "." + strings.Join(parts[i:], "_"))
	}
	return out
}
