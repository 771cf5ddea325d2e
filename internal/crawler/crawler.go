package crawler

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"ontoforge/internal/extractor"
	"ontoforge/internal/logging"
)

// ErrNoInputs is returned when no pattern matched a supported file.
var ErrNoInputs = errors.New("no input files matched")

// Crawler expands input patterns and streams the records of every file.
type Crawler struct {
	extractor *extractor.Extractor
	logger    *log.Logger
}

// ScanStats summarises a scan.
type ScanStats struct {
	Files   []string
	Failed  []string
	Records int
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor, logger *log.Logger) *Crawler {
	return &Crawler{
		extractor: ext,
		logger:    logging.OrDefault(logger),
	}
}

// Resolve expands doublestar patterns into a sorted, de-duplicated list of
// files the extractor can read.
func (c *Crawler) Resolve(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad input pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			c.logger.Warn("input pattern matched nothing", "pattern", pattern)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if seen[m] {
				continue
			}
			seen[m] = true
			if !c.extractor.Supports(m) {
				c.logger.Debug("skipping unsupported file", "path", m)
				continue
			}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, ErrNoInputs
	}
	return files, nil
}

// ScanInputs resolves patterns and streams every record to onRecord, file by
// file in sorted order. A file that fails to parse is logged and its
// readable records are still delivered.
func (c *Crawler) ScanInputs(patterns []string, onRecord func(path string, rec extractor.Record)) (ScanStats, error) {
	files, err := c.Resolve(patterns)
	if err != nil {
		return ScanStats{}, err
	}
	return c.ScanFiles(files, onRecord), nil
}

// ScanFiles streams the records of the given files in order.
func (c *Crawler) ScanFiles(files []string, onRecord func(path string, rec extractor.Record)) ScanStats {
	stats := ScanStats{Files: files}
	for _, path := range files {
		records, err := c.extractor.ExtractFromFile(path)
		if err != nil {
			// Log and continue instead of failing the whole scan
			c.logger.Warn("failed to read input", "path", path, "records", len(records), "err", err)
			stats.Failed = append(stats.Failed, path)
		}
		c.logger.Debug("read input", "path", path, "records", len(records))
		for _, rec := range records {
			onRecord(path, rec)
		}
		stats.Records += len(records)
	}
	return stats
}
