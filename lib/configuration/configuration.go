// Package configuration holds the reusable config blocks shared by
// the daemon and the CLI, each knowing how to open what it describes.
package configuration

import (
	"database/sql"
	"fmt"

	"hkexwatch/lib/restyutil"
	"hkexwatch/lib/scrapers/hkexdi"
	"hkexwatch/lib/scrapers/hkexdi/browser"
	"hkexwatch/lib/sqliteutil"
	"hkexwatch/services/snapshot"
	"hkexwatch/services/snapshot/db"
)

// Store selects and opens a snapshot store.
type Store struct {
	// "file" (default), "sqlite" or "libsql"
	Kind string `json:"kind"`
	// file store root directory
	Dir string `json:"dir"`
	// local sqlite database path
	File string `json:"file"`
	// remote libsql url, e.g. "libsql://host?authToken=..."
	Url string `json:"url"`
}

func (c Store) Open() (snapshot.Store, error) {
	switch c.Kind {
	case "", "file":
		dir := c.Dir
		if dir == "" {
			dir = "data"
		}
		return snapshot.NewFileStore(dir)
	case "sqlite":
		path := c.File
		if path == "" {
			path = "snapshots.db"
		}
		database, err := sqliteutil.OpenDB(db.Schema, path)
		if err != nil {
			return nil, err
		}
		return snapshot.NewSqliteStore(database), nil
	case "libsql":
		database, err := sql.Open("libsql", c.Url)
		if err != nil {
			return nil, err
		}
		_, err = database.Exec(db.Schema)
		if err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		return snapshot.NewSqliteStore(database), nil
	}
	return nil, fmt.Errorf("unknown store kind %q", c.Kind)
}

// Fetch selects and opens a disclosure fetcher.
type Fetch struct {
	// "http" (default) or "browser"
	Kind string `json:"kind"`
	// overrides the production DI site, mostly for testing
	BaseUrl string `json:"base_url"`
	// websocket URL of an external Chrome for the browser fetcher
	ControlUrl string `json:"control_url"`
	// directory for raw HTTP transcripts, empty disables capture
	TranscriptDir string `json:"transcript_dir"`
}

func (c Fetch) Open() (hkexdi.Fetcher, error) {
	switch c.Kind {
	case "", "http":
		var output restyutil.InstrumentOutput
		if c.TranscriptDir != "" {
			output = restyutil.NewFilesystemOutput(c.TranscriptDir)
		}
		return hkexdi.NewClient(hkexdi.ClientOptions{
			BaseUrl: c.BaseUrl,
			Output:  output,
		})
	case "browser":
		return browser.NewFetcher(browser.Options{
			ControlUrl: c.ControlUrl,
			BaseUrl:    c.BaseUrl,
		})
	}
	return nil, fmt.Errorf("unknown fetch kind %q", c.Kind)
}
