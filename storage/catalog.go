// Package storage saves fetched channel catalogs to disk.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ytcatalog/youtube"
)

// Catalog is the on-disk form of a fetched channel.
type Catalog struct {
	ExportID    string               `json:"exportId"`
	FetchedAt   time.Time            `json:"fetchedAt"`
	ChannelInfo *youtube.ChannelInfo `json:"channelInfo"`
	TotalVideos int                  `json:"totalVideos"`
	Videos      []youtube.Video      `json:"videos"`
}

// CatalogPath returns the file a channel's catalog is saved to.
func CatalogPath(dir string, id youtube.ChannelID) string {
	return filepath.Join(dir, string(id)+"_videos.json")
}

// SaveCatalog writes info and videos to <dir>/<channelId>_videos.json,
// replacing any earlier export atomically, and returns the file path.
func SaveCatalog(dir string, info *youtube.ChannelInfo, videos []youtube.Video) (string, error) {
	if info == nil || strings.TrimSpace(string(info.ID)) == "" {
		return "", errors.New("save catalog: channel id is required")
	}
	if videos == nil {
		videos = []youtube.Video{}
	}

	doc := Catalog{
		ExportID:    uuid.NewString(),
		FetchedAt:   time.Now().UTC(),
		ChannelInfo: info,
		TotalVideos: len(videos),
		Videos:      videos,
	}

	path := CatalogPath(dir, info.ID)
	w, err := NewAtomicWriter(path)
	if err != nil {
		return "", errors.Wrapf(err, "save catalog %s", info.ID)
	}
	defer w.Abort()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return "", errors.Wrapf(err, "encode catalog %s", info.ID)
	}
	if err := w.Commit(); err != nil {
		return "", errors.Wrapf(err, "save catalog %s", info.ID)
	}

	log.WithFields(log.Fields{
		"path":   path,
		"videos": doc.TotalVideos,
		"export": doc.ExportID,
	}).Info("catalog saved")
	return path, nil
}

// LoadCatalog reads a catalog written by SaveCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}
	var doc Catalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse catalog %s", path)
	}
	return &doc, nil
}
