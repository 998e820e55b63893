// Package soundboard manages each guild's catalog of playable sounds:
// validation, on-disk persistence, ordering, and a TTL byte cache.
//
// The on-disk blobs are the source of truth; the cache is only an
// accelerator. Catalog mutations are serialized behind a single mutex held
// just for the map operations, with downloads and disk I/O done outside it.
package soundboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/aoi-yuito/disrecord/internal/datalayer"
	"github.com/aoi-yuito/disrecord/internal/generator"
	"github.com/aoi-yuito/disrecord/internal/schedule"
	"github.com/aoi-yuito/disrecord/internal/wav"
)

const downloadTimeout = 30 * time.Second

var (
	ErrNotWav         = errors.New("that file is not a WAV")
	ErrWrongFormat    = errors.New("sounds must be mono, 16-bit, 48000 Hz WAV files")
	ErrTooLong        = errors.New("that sound is too long")
	ErrDownloadFailed = errors.New("failed to download the attachment")
	ErrDuplicateName  = errors.New("a sound with that name already exists")
	ErrNotFound       = errors.New("no sound with that name")
)

// Attachment describes an uploaded file to fetch and validate.
type Attachment struct {
	URL  string
	Size int64
}

// Soundboard owns the catalog for all guilds, the sounds blob store, and
// the metadata file.
type Soundboard struct {
	metadataPath string
	maxDuration  time.Duration
	blobs        datalayer.BlobStorage
	ids          generator.Generator[string]
	httpClient   *http.Client
	cache        *ttlCache

	mu      sync.Mutex
	catalog map[string][]Sound // guild ID -> sounds in insertion order
	guilds  []string           // guild IDs in first-insertion order
}

// New loads the catalog from metadataPath and reconciles it against the
// blob store: records without a blob are dropped, blobs without a record
// are deleted.
func New(metadataPath string, blobs datalayer.BlobStorage, maxDuration, cacheDuration time.Duration) (*Soundboard, error) {
	catalog, guilds, err := loadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	sb := &Soundboard{
		metadataPath: metadataPath,
		maxDuration:  maxDuration,
		blobs:        blobs,
		ids:          &generator.UUIDV7Generator{},
		httpClient:   &http.Client{Timeout: downloadTimeout},
		cache:        newTTLCache(cacheDuration),
		catalog:      catalog,
		guilds:       guilds,
	}

	if err := sb.reconcile(context.Background()); err != nil {
		return nil, err
	}
	return sb, nil
}

// CacheLoop evicts idle cache entries until ctx is canceled. It blocks;
// callers run it in a goroutine.
func (sb *Soundboard) CacheLoop(ctx context.Context) {
	interval := sb.cache.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	schedule.Every(ctx, interval, func(context.Context) {
		sb.cache.evictStale(time.Now())
	})
}

// List returns a guild's sounds grouped by group name. Groups appear in
// first-insertion order; sounds within a group are ordered by index.
func (sb *Soundboard) List(guildID string) []Group {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	var groups []Group
	position := make(map[string]int)
	for _, sound := range sb.catalog[guildID] {
		i, ok := position[sound.Group]
		if !ok {
			i = len(groups)
			position[sound.Group] = i
			groups = append(groups, Group{Name: sound.Group})
		}
		groups[i].Sounds = append(groups[i].Sounds, sound)
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Sounds, func(a, b Sound) int {
			return a.Index - b.Index
		})
	}
	return groups
}

// Add validates and stores a new sound, returning its assigned id.
//
// index is 0-based within the sound's group; nil appends after the group's
// current maximum. When the requested index is already taken, the new
// sound occupies the slot and every sound at that index or later shifts up
// by one.
func (sb *Soundboard) Add(ctx context.Context, attachment Attachment, guildID, name, emoji string, color Color, group string, index *int) (string, error) {
	// Byte-length pre-check so oversized uploads are rejected before any
	// network transfer.
	maxBytes := int64(sb.maxDuration.Seconds()*wav.SampleRate)*2 + wav.HeaderSize
	if attachment.Size > maxBytes {
		return "", ErrTooLong
	}

	sb.mu.Lock()
	duplicate := sb.findLocked(guildID, name) != nil
	sb.mu.Unlock()
	if duplicate {
		return "", ErrDuplicateName
	}

	samples, err := sb.download(ctx, attachment.URL, maxBytes)
	if err != nil {
		return "", err
	}
	if wav.Duration(len(samples)) > sb.maxDuration {
		return "", ErrTooLong
	}

	id, err := sb.ids.Next()
	if err != nil {
		return "", fmt.Errorf("failed to generate sound id: %w", err)
	}

	// Store the canonical repackaged form so playback can always rely on
	// a fixed-size header.
	if err := sb.blobs.Put(ctx, id, bytes.NewReader(wav.Package(samples))); err != nil {
		return "", fmt.Errorf("failed to store sound blob: %w", err)
	}

	sound := Sound{ID: id, Name: name, Group: group, Color: color, Emoji: emoji}

	sb.mu.Lock()
	if sb.findLocked(guildID, name) != nil {
		sb.mu.Unlock()
		if err := sb.blobs.Delete(ctx, id); err != nil {
			slog.Warn("failed to delete orphaned sound blob", "id", id, "error", err)
		}
		return "", ErrDuplicateName
	}
	sb.insertLocked(guildID, sound, index)
	snapshot, guilds := sb.snapshotLocked()
	sb.mu.Unlock()

	sb.persist(snapshot, guilds)
	return id, nil
}

// Delete removes a sound by name, deleting its blob and cache entry.
func (sb *Soundboard) Delete(ctx context.Context, guildID, name string) error {
	sb.mu.Lock()
	sound := sb.findLocked(guildID, name)
	if sound == nil {
		sb.mu.Unlock()
		return ErrNotFound
	}
	id := sound.ID
	sounds := sb.catalog[guildID]
	sb.catalog[guildID] = slices.DeleteFunc(sounds, func(s Sound) bool {
		return s.ID == id
	})
	snapshot, guilds := sb.snapshotLocked()
	sb.mu.Unlock()

	sb.cache.delete(id)
	if err := sb.blobs.Delete(ctx, id); err != nil {
		slog.Warn("failed to delete sound blob", "id", id, "error", err)
	}
	sb.persist(snapshot, guilds)
	return nil
}

// GetWAV returns the full WAV bytes for a sound id, served from the TTL
// cache when possible. It returns nil when the id is unknown.
func (sb *Soundboard) GetWAV(ctx context.Context, id string) []byte {
	if data, ok := sb.cache.get(id, time.Now()); ok {
		return data
	}

	data, err := sb.blobs.Get(ctx, id)
	if err != nil {
		slog.Warn("failed to read sound blob", "id", id, "error", err)
		return nil
	}
	sb.cache.put(id, data, time.Now())
	return data
}

// findLocked returns the sound with the given name, or nil. Names are
// unique per guild and case-sensitive. Caller holds sb.mu.
func (sb *Soundboard) findLocked(guildID, name string) *Sound {
	sounds := sb.catalog[guildID]
	for i := range sounds {
		if sounds[i].Name == name {
			return &sounds[i]
		}
	}
	return nil
}

// insertLocked places sound into the guild catalog, resolving its index.
// Caller holds sb.mu.
func (sb *Soundboard) insertLocked(guildID string, sound Sound, index *int) {
	sounds := sb.catalog[guildID]

	if index == nil {
		next := 0
		for _, s := range sounds {
			if s.Group == sound.Group && s.Index >= next {
				next = s.Index + 1
			}
		}
		sound.Index = next
	} else {
		sound.Index = *index
		occupied := false
		for _, s := range sounds {
			if s.Group == sound.Group && s.Index == sound.Index {
				occupied = true
				break
			}
		}
		if occupied {
			for i := range sounds {
				if sounds[i].Group == sound.Group && sounds[i].Index >= sound.Index {
					sounds[i].Index++
				}
			}
		}
	}

	if _, ok := sb.catalog[guildID]; !ok {
		sb.guilds = append(sb.guilds, guildID)
	}
	sb.catalog[guildID] = append(sounds, sound)
}

// snapshotLocked deep-copies the catalog so persistence can run outside
// the lock. Caller holds sb.mu.
func (sb *Soundboard) snapshotLocked() (map[string][]Sound, []string) {
	catalog := make(map[string][]Sound, len(sb.catalog))
	for guild, sounds := range sb.catalog {
		catalog[guild] = slices.Clone(sounds)
	}
	return catalog, slices.Clone(sb.guilds)
}

// persist writes the metadata file. Failures are logged and swallowed:
// the in-memory catalog stays authoritative and the next successful write
// re-synchronizes the file.
func (sb *Soundboard) persist(catalog map[string][]Sound, guilds []string) {
	if err := saveMetadata(sb.metadataPath, catalog, guilds); err != nil {
		slog.Error("failed to persist soundboard metadata", "path", sb.metadataPath, "error", err)
	}
}

func (sb *Soundboard) download(ctx context.Context, url string, maxBytes int64) ([]int16, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ErrDownloadFailed
	}

	resp, err := sb.httpClient.Do(req)
	if err != nil {
		return nil, ErrDownloadFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrDownloadFailed
	}

	// One extra byte so a body larger than the limit is detectable
	// without an unbounded read.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, ErrDownloadFailed
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLong
	}

	samples, err := wav.Strip(data)
	if err != nil {
		if errors.Is(err, wav.ErrWrongFormat) {
			return nil, ErrWrongFormat
		}
		return nil, ErrNotWav
	}
	return samples, nil
}

// reconcile brings the blob store and the catalog back in sync after a
// crash: records without a blob are dropped, blobs without a record are
// deleted.
func (sb *Soundboard) reconcile(ctx context.Context) error {
	keys, err := sb.blobs.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sound blobs: %w", err)
	}
	onDisk := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		onDisk[key] = struct{}{}
	}

	sb.mu.Lock()
	known := make(map[string]struct{})
	changed := false
	for guild, sounds := range sb.catalog {
		kept := sounds[:0]
		for _, sound := range sounds {
			if _, ok := onDisk[sound.ID]; ok {
				kept = append(kept, sound)
				known[sound.ID] = struct{}{}
			} else {
				slog.Warn("dropping sound with missing blob", "id", sound.ID, "name", sound.Name)
				changed = true
			}
		}
		sb.catalog[guild] = kept
	}
	snapshot, guilds := sb.snapshotLocked()
	sb.mu.Unlock()

	for _, key := range keys {
		if _, ok := known[key]; !ok {
			slog.Warn("deleting orphaned sound blob", "key", key)
			if err := sb.blobs.Delete(ctx, key); err != nil {
				slog.Warn("failed to delete orphaned blob", "key", key, "error", err)
			}
		}
	}

	if changed {
		sb.persist(snapshot, guilds)
	}
	return nil
}
