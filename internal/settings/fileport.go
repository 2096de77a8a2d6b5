package settings

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// FilePort persists preferences to a YAML file via Viper. A missing file is
// fine (everything defaults); a malformed one is treated the same way.
type FilePort struct {
	v    *viper.Viper
	path string
}

func NewFilePort(path string) (*FilePort, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			// Unreadable or malformed: start from defaults rather than fail.
			v = viper.New()
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
		}
	}
	return &FilePort{v: v, path: path}, nil
}

func (f *FilePort) Get(key string) (string, bool) {
	if !f.v.IsSet(key) {
		return "", false
	}
	return f.v.GetString(key), true
}

func (f *FilePort) Set(key, value string) error {
	f.v.Set(key, value)
	return f.v.WriteConfigAs(f.path)
}
