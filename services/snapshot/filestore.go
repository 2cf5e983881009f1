package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"hkexwatch/lib/table"
	"hkexwatch/lib/timezone"
)

// FileStore keeps one directory per subject with one indented JSON
// file per (date, table-kind), mirroring what a human would want to
// open when checking what the monitor saw on a given day:
//
//	<root>/<subject>/2025-01-02_main.json
//	<root>/<subject>/2025-01-02_details_00.json
//	<root>/<subject>/2025-01-02_details_01.json
//
// Detail files are numbered to preserve holder order; the holder name
// lives inside the file.
type FileStore struct {
	root string
}

func NewFileStore(root string) (FileStore, error) {
	err := os.MkdirAll(root, 0777)
	if err != nil {
		return FileStore{}, err
	}
	return FileStore{root: root}, nil
}

type mainFile struct {
	Subject string         `json:"subject"`
	Date    string         `json:"date"`
	Columns []string       `json:"columns"`
	Records []table.Record `json:"records"`
}

type detailsFile struct {
	Holder  string         `json:"holder"`
	Columns []string       `json:"columns"`
	Records []table.Record `json:"records"`
}

func (s FileStore) subjectDir(subject string) string {
	return filepath.Join(s.root, subject)
}

func (s FileStore) mainPath(subject string, date timezone.Date) string {
	return filepath.Join(s.subjectDir(subject), fmt.Sprintf("%s_main.json", date))
}

func (s FileStore) detailsPath(subject string, date timezone.Date, idx int) string {
	return filepath.Join(s.subjectDir(subject), fmt.Sprintf("%s_details_%02d.json", date, idx))
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func (s FileStore) Put(ctx context.Context, snap *Snapshot) error {
	dir := s.subjectDir(snap.Subject)
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return err
	}

	// drop stale detail files from an earlier write of the same day
	stale, err := filepath.Glob(filepath.Join(dir, fmt.Sprintf("%s_details_*.json", snap.Date)))
	if err != nil {
		return err
	}
	for _, f := range stale {
		err = os.Remove(f)
		if err != nil {
			return err
		}
	}

	err = writeJSON(s.mainPath(snap.Subject, snap.Date), mainFile{
		Subject: snap.Subject,
		Date:    snap.Date.String(),
		Columns: snap.Main.Columns,
		Records: snap.Main.Records,
	})
	if err != nil {
		return err
	}

	for i, d := range snap.Details {
		err = writeJSON(s.detailsPath(snap.Subject, snap.Date, i), detailsFile{
			Holder:  d.Holder,
			Columns: d.Table.Columns,
			Records: d.Table.Records,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s FileStore) Get(ctx context.Context, subject string, date timezone.Date) (*Snapshot, error) {
	data, err := os.ReadFile(s.mainPath(subject, date))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var mf mainFile
	err = json.Unmarshal(data, &mf)
	if err != nil {
		return nil, fmt.Errorf("corrupt main snapshot file for %s on %s: %w", subject, date, err)
	}

	snap := &Snapshot{
		Subject: subject,
		Date:    date,
		Main:    table.Table{Columns: mf.Columns, Records: mf.Records},
	}

	detailPaths, err := filepath.Glob(filepath.Join(s.subjectDir(subject), fmt.Sprintf("%s_details_*.json", date)))
	if err != nil {
		return nil, err
	}
	slices.Sort(detailPaths)
	for _, p := range detailPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		var df detailsFile
		err = json.Unmarshal(data, &df)
		if err != nil {
			return nil, fmt.Errorf("corrupt detail snapshot file %s: %w", p, err)
		}
		snap.Details = append(snap.Details, HolderDetails{
			Holder: df.Holder,
			Table:  table.Table{Columns: df.Columns, Records: df.Records},
		})
	}

	return snap, nil
}

func (s FileStore) Latest(ctx context.Context, subject string, before timezone.Date) (*Snapshot, error) {
	entries, err := os.ReadDir(s.subjectDir(subject))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var best *timezone.Date
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, "_main.json") {
			continue
		}
		d, err := timezone.ParseDate(strings.TrimSuffix(name, "_main.json"))
		if err != nil {
			continue
		}
		if !d.Before(before) {
			continue
		}
		if best == nil || best.Before(d) {
			best = &d
		}
	}
	if best == nil {
		return nil, nil
	}
	return s.Get(ctx, subject, *best)
}
