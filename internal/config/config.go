package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/babarot/sift/internal/env"
	"github.com/go-playground/validator/v10"
	"github.com/muesli/reflow/indent"
	"gopkg.in/yaml.v2"
)

var validate *validator.Validate

type Config struct {
	Core    Core          `yaml:"core"`
	Search  Search        `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

type Core struct {
	Trash        TrashConfig        `yaml:"trash"`
	History      HistoryConfig      `yaml:"history"`
	Associations AssociationsConfig `yaml:"associations"`
	Delete       DeleteConfig       `yaml:"delete"`
}

type TrashConfig struct {
	Strategy string         `yaml:"strategy" validate:"required,validStrategy"`
	Dir      string         `yaml:"dir"`
	Elevated ElevatedConfig `yaml:"elevated"`
}

type ElevatedConfig struct {
	Enabled bool   `yaml:"enabled"`
	Command string `yaml:"command" validate:"required_if=Enabled true"`
}

type HistoryConfig struct {
	Capacity int           `yaml:"capacity" validate:"min=1"`
	Persist  bool          `yaml:"persist"`
	Path     string        `yaml:"path"`
	Include  IncludeConfig `yaml:"include"`
	Exclude  ExcludeConfig `yaml:"exclude"`
}

// IncludeConfig narrows the history listing
type IncludeConfig struct {
	Within string `yaml:"within" validate:"validDuration"`
}

// ExcludeConfig hides transactions from the history listing
type ExcludeConfig struct {
	Names    []string `yaml:"names"`
	Patterns []string `yaml:"patterns"`
}

type AssociationsConfig struct {
	Path string `yaml:"path"`
}

type DeleteConfig struct {
	Confirm bool `yaml:"confirm"`
	Verbose bool `yaml:"verbose"`
}

type Search struct {
	BatchSize            int            `yaml:"batch_size" validate:"min=1"`
	Workers              int            `yaml:"workers" validate:"min=0"`
	Buffer               int            `yaml:"buffer" validate:"min=0"`
	ExcludeSystemFolders bool           `yaml:"exclude_system_folders"`
	SystemFolders        []string       `yaml:"system_folders"`
	SkipDirs             []string       `yaml:"skip_dirs"`
	CollapseNested       bool           `yaml:"collapse_nested"`
	Metadata             MetadataConfig `yaml:"metadata"`
}

// MetadataConfig names the extended attributes holding tags and comments
type MetadataConfig struct {
	TagsAttr    string `yaml:"tags_attr"`
	CommentAttr string `yaml:"comment_attr"`
}

type LoggingConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Level    string         `yaml:"level" validate:"required,oneof=debug info warn error"`
	Format   string         `yaml:"format" validate:"omitempty,oneof=text json"`
	Rotation RotationConfig `yaml:"rotation"`
}

type RotationConfig struct {
	MaxSize  string `yaml:"max_size" validate:"validSize"`
	MaxFiles int    `yaml:"max_files" validate:"min=0"`
}

// HistoryPath returns where the history is persisted
func (c Config) HistoryPath() string {
	return statePath(c.Core.History.Path, "history.json")
}

// AssociationsPath returns where associations are persisted
func (c Config) AssociationsPath() string {
	return statePath(c.Core.Associations.Path, "associations.json")
}

func statePath(configured, name string) string {
	if configured == "" {
		return filepath.Join(env.SIFT_STATE_DIR, name)
	}
	path, err := expandPath(configured)
	if err != nil {
		slog.Warn("failed to expand path, using it as is", "path", configured, "error", err)
		return configured
	}
	return path
}

type configError struct {
	configPath string
	parser     parser
	err        error
}

type parser struct{}

func (p parser) getDefaultConfigContents() string {
	content, _ := yaml.Marshal(NewDefaultConfig())
	return string(content)
}

func (e configError) Error() string {
	return heredoc.Docf(`
		Couldn't find the "%s" config file.
		Please try again after creating it or specifying a valid config path.
		The recommended config path is %s (default).
		Example YAML file contents:
		---
		%s
		---
		Original error:
		%s
		`,
		e.configPath,
		env.SIFT_CONFIG_PATH,
		e.parser.getDefaultConfigContents(),
		indent.String(e.err.Error(), 2),
	)
}

func (e configError) Unwrap() error { return e.err }

func (p parser) createConfigFile(path string) error {
	if err := p.ensureDirExists(filepath.Dir(path)); err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Warn("creating config file as it does not exist", "config-file", path)
		newConfigFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
		if err != nil {
			return err
		}
		defer newConfigFile.Close()

		if _, err := newConfigFile.WriteString(p.getDefaultConfigContents()); err != nil {
			return err
		}
	}

	return nil
}

func (p parser) ensureDirExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		slog.Warn("creating directory as it does not exist", "dir", dirPath)
		if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
			return err
		}
	}
	return nil
}

func (p parser) ensureConfigFile() (string, error) {
	path := env.SIFT_CONFIG_PATH
	if err := p.createConfigFile(path); err != nil {
		return "", configError{
			configPath: path,
			parser:     p,
			err:        err,
		}
	}
	return path, nil
}

type parsingError struct {
	err error
}

func (e parsingError) Error() string {
	return fmt.Sprintf("failed to parse config: %v", e.err)
}

func (e parsingError) Unwrap() error { return e.err }

func (p parser) readConfigFile(path string) (Config, error) {
	// Fields missing from the file keep their defaults
	cfg := *NewDefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, configError{
			configPath: path,
			parser:     p,
			err:        err,
		}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return cfg, &ValidationError{Errors: verrs}
		}
		return cfg, err
	}
	return cfg, nil
}

func initParser() parser {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.Split(fld.Tag.Get("yaml"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("validSize", validateSize)
	_ = validate.RegisterValidation("validDuration", validateDuration)
	_ = validate.RegisterValidation("validStrategy", validateStrategy)

	return parser{}
}

// Parse reads the config at path. An empty path uses $SIFT_CONFIG_PATH,
// creating it with defaults when missing.
func Parse(path string) (Config, error) {
	parser := initParser()

	var cfg Config
	var err error
	var configPath string

	if path == "" {
		configPath, err = parser.ensureConfigFile()
		if err != nil {
			return cfg, parsingError{err: err}
		}
	} else {
		configPath = path
	}
	slog.Debug("config file found", "config-file", configPath)

	cfg, err = parser.readConfigFile(configPath)
	if err != nil {
		return cfg, parsingError{err: err}
	}

	return cfg, nil
}
