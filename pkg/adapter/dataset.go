package adapter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// datasetColumns is the fetch→build handoff contract. Builder output and
// chat-time rebuilds both read files in this shape.
var datasetColumns = []string{"name", "rating", "categories", "address", "zip_code", "embedding_text"}

var datasetNamePattern = regexp.MustCompile(`^restaurants_(\d{5})(?:_(.+))?\.csv$`)

// DatasetStore reads and writes fetched restaurant datasets as CSV files in
// one directory, named restaurants_<zip>_<craving|general>.csv
type DatasetStore struct {
	dir string
}

func NewDatasetStore(dir string) *DatasetStore {
	return &DatasetStore{dir: dir}
}

// DatasetName returns the file name for a ZIP and craving. An empty craving
// maps to the "general" dataset.
func DatasetName(zipCode, craving string) string {
	safe := model.NormalizeCraving(craving)
	if safe == "" {
		safe = "general"
	}
	return "restaurants_" + zipCode + "_" + safe + ".csv"
}

// ParseDatasetName recovers the ZIP and craving encoded in a dataset file
// name. The "general" craving comes back as "".
func ParseDatasetName(name string) (zipCode, craving string, ok bool) {
	m := datasetNamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", "", false
	}
	craving = m[2]
	if craving == "general" {
		craving = ""
	}
	return m[1], craving, true
}

// Write stores entries as a dataset for the ZIP and craving, replacing any
// previous file, and returns the file path.
func (s *DatasetStore) Write(zipCode, craving string, entries []*model.CatalogEntry) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create dataset directory", goerr.V("dir", s.dir))
	}

	path := filepath.Join(s.dir, DatasetName(zipCode, craving))
	f, err := os.Create(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create dataset file", goerr.V("path", path))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(datasetColumns); err != nil {
		return "", goerr.Wrap(err, "failed to write dataset header")
	}
	for _, entry := range entries {
		record := []string{
			entry.Name,
			entry.Rating,
			entry.Categories,
			entry.Address,
			entry.ZIPCode,
			entry.EmbeddingText,
		}
		if err := w.Write(record); err != nil {
			return "", goerr.Wrap(err, "failed to write dataset record", goerr.V("name", entry.Name))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", goerr.Wrap(err, "failed to flush dataset file", goerr.V("path", path))
	}

	return path, nil
}

// Latest returns the most recently modified dataset file for the ZIP, or the
// newest of all datasets when zipCode is empty.
func (s *DatasetStore) Latest(zipCode string) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read dataset directory", goerr.V("dir", s.dir))
	}

	var newest string
	var newestMod int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileZIP, _, ok := ParseDatasetName(entry.Name())
		if !ok {
			continue
		}
		if zipCode != "" && fileZIP != zipCode {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().UnixNano() > newestMod {
			newest = entry.Name()
			newestMod = info.ModTime().UnixNano()
		}
	}

	if newest == "" {
		return "", goerr.New("no dataset found", goerr.V("dir", s.dir), goerr.V("zip", zipCode))
	}

	return filepath.Join(s.dir, newest), nil
}

// Read loads all entries from a dataset file
func (s *DatasetStore) Read(path string) ([]*model.CatalogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open dataset file", goerr.V("path", path))
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse dataset file", goerr.V("path", path))
	}
	if len(records) == 0 {
		return nil, goerr.New("dataset file is empty", goerr.V("path", path))
	}
	if strings.Join(records[0], ",") != strings.Join(datasetColumns, ",") {
		return nil, goerr.New("unexpected dataset columns",
			goerr.V("path", path), goerr.V("columns", records[0]))
	}

	entries := make([]*model.CatalogEntry, 0, len(records)-1)
	for _, record := range records[1:] {
		entries = append(entries, &model.CatalogEntry{
			Restaurant: model.Restaurant{
				Name:       record[0],
				Rating:     record[1],
				Categories: record[2],
				Address:    record[3],
				ZIPCode:    record[4],
			},
			EmbeddingText: record[5],
		})
	}

	return entries, nil
}
