package soundboard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// metadataRecord is one catalog entry as stored on disk. The file holds a
// flat list for all guilds in catalog order, so loading it reproduces both
// the guild ordering and the group first-insertion ordering.
type metadataRecord struct {
	GuildID string `json:"guild_id"`
	Sound
}

type metadataFile struct {
	Sounds []metadataRecord `json:"sounds"`
}

// loadMetadata reads the catalog from path. A missing file yields an empty
// catalog.
func loadMetadata(path string) (map[string][]Sound, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]Sound), nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read soundboard metadata: %w", err)
	}

	var file metadataFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse soundboard metadata: %w", err)
	}

	catalog := make(map[string][]Sound)
	var guilds []string
	for _, record := range file.Sounds {
		if _, ok := catalog[record.GuildID]; !ok {
			guilds = append(guilds, record.GuildID)
		}
		catalog[record.GuildID] = append(catalog[record.GuildID], record.Sound)
	}
	return catalog, guilds, nil
}

// saveMetadata writes the catalog atomically: temp file, then rename.
func saveMetadata(path string, catalog map[string][]Sound, guilds []string) error {
	var file metadataFile
	for _, guild := range guilds {
		for _, sound := range catalog[guild] {
			file.Sounds = append(file.Sounds, metadataRecord{GuildID: guild, Sound: sound})
		}
	}

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal soundboard metadata: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp metadata file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp metadata file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename metadata into place: %w", err)
	}
	return nil
}
