package source

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"

	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/property"
	"github.com/spf13/viper"
)

// FileParser reads configuration files through viper, so yaml, json,
// toml, properties, ini, hcl and dotenv all work.
type FileParser struct {
	configType string
}

// FileOption configures FileParser
type FileOption func(*FileParser)

// WithConfigType forces the format for files whose extension viper
// does not recognize
func WithConfigType(configType string) FileOption {
	return func(p *FileParser) {
		p.configType = configType
	}
}

// NewFileParser creates a file parser
func NewFileParser(opts ...FileOption) *FileParser {
	p := &FileParser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse implements Parser. A missing file is an empty source, not an error.
func (p *FileParser) Parse(ctx context.Context, id SourceID) iter.Seq2[property.RawProperty, error] {
	path := id.Location()

	return func(yield func(property.RawProperty, error) bool) {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return
			}
			yield(property.RawProperty{}, parseErr(id, "access config file failed", err))
			return
		}

		v := viper.New()
		v.SetConfigFile(path)
		if p.configType != "" {
			v.SetConfigType(p.configType)
		}

		if err := v.ReadInConfig(); err != nil {
			yield(property.RawProperty{}, parseErr(id, "read config file failed", err))
			return
		}

		flat := make(map[string]any)
		flattenMap("", v.AllSettings(), flat)

		for raw, err := range emit(id, flat) {
			if !yield(raw, err) {
				return
			}
		}
	}
}

func parseErr(id SourceID, msg string, cause error) error {
	return errdef.ErrParse.
		WithMsgf("%s: %s", id, msg).
		WithData("source", string(id)).
		Wrap(cause)
}
