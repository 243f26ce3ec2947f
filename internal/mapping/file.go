package mapping

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const recordsKey = "mappings"

// ReadFile loads mapping records from path. The format follows the file
// extension (toml, yaml or json).
func ReadFile(path string) ([]Record, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrMappingFileRead, path, err)
	}
	return decodeRecords(v, path)
}

func decodeRecords(v *viper.Viper, path string) ([]Record, error) {
	var records []Record
	if err := v.UnmarshalKey(recordsKey, &records); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrMappingFileRead, path, err)
	}
	return records, nil
}

// WriteFile stores records at path, creating parent directories as needed.
func WriteFile(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w %s: %v", ErrMappingFileWrite, path, err)
	}

	maps := make([]map[string]any, len(records))
	for i, r := range records {
		maps[i] = r.Map()
	}

	v := viper.New()
	v.Set(recordsKey, maps)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("%w %s: %v", ErrMappingFileWrite, path, err)
	}
	return nil
}

// Load reads path into the store. A missing file leaves the store empty.
func (s *Store) Load(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("mapping file %s does not exist, starting with no mappings", path)
		s.Replace(nil)
		return nil
	}

	records, err := ReadFile(path)
	if err != nil {
		return err
	}
	n := s.LoadRecords(records)
	log.Printf("loaded %d mappings from %s", n, path)
	return nil
}

// Save writes the store's physical table to path.
func (s *Store) Save(path string) error {
	return WriteFile(path, s.Records())
}

// Watch calls onChange with the new records every time the file at path is
// written. The file must exist when Watch is called.
func Watch(path string, onChange func([]Record)) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w %s: %v", ErrMappingFileRead, path, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		records, err := decodeRecords(v, path)
		if err != nil {
			log.Printf("ignoring change to %s: %v", path, err)
			return
		}
		onChange(records)
	})
	v.WatchConfig()
	return nil
}
