package config

import (
	"slices"

	"github.com/babarot/sift/internal/search"
	"github.com/babarot/sift/internal/search/xattr"
)

// NewDefaultConfig creates a new Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Core: Core{
			Trash: TrashConfig{
				Strategy: "auto",
				Elevated: ElevatedConfig{
					Enabled: false,
					Command: "sudo -n",
				},
			},
			History: HistoryConfig{
				Capacity: 10,
				Persist:  true,
				Exclude: ExcludeConfig{
					Names:    []string{},
					Patterns: []string{},
				},
			},
			Delete: DeleteConfig{
				Confirm: true,
				Verbose: true,
			},
		},
		Search: Search{
			BatchSize:            search.DefaultBatchSize,
			Workers:              0,
			Buffer:               search.DefaultBuffer,
			ExcludeSystemFolders: true,
			SystemFolders:        slices.Clone(search.DefaultSystemFolders),
			SkipDirs:             []string{},
			Metadata: MetadataConfig{
				TagsAttr:    xattr.DefaultTagsAttr,
				CommentAttr: xattr.DefaultCommentAttr,
			},
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "debug",
			Format:  "text",
			Rotation: RotationConfig{
				MaxSize:  "10MB",
				MaxFiles: 3,
			},
		},
	}
}
