// Package export assembles the bulk-export artifacts: a zip archive of the
// selected models' source documents and a paginated PDF report. A failure on
// one model or section never aborts the rest of the batch.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/errors"
	"github.com/landfiredata/bps-explorer/internal/logging"
)

// Archiver bundles the source documents of selected models.
type Archiver struct {
	ds       datastore.Interface
	docsPath string
	log      *slog.Logger
}

// NewArchiver creates an Archiver reading documents from docsPath.
func NewArchiver(ds datastore.Interface, docsPath string) *Archiver {
	logger := logging.ForService("export")
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{ds: ds, docsPath: docsPath, log: logger}
}

// ArchiveManifest records what went into a document bundle.
type ArchiveManifest struct {
	BundleID    string    `json:"bundleId"`
	GeneratedAt time.Time `json:"generatedAt"`
	ModelIDs    []string  `json:"modelIds"`
	Documents   []string  `json:"documents"`
	Missing     []string  `json:"missing,omitempty"`
}

// CreateArchive builds a zip of every existing source document for the
// selected models, deduplicated by filename. Models without a document, or
// whose file is missing on disk, are skipped and recorded in the manifest.
func (a *Archiver) CreateArchive(ctx context.Context, modelIDs []string) ([]byte, *ArchiveManifest, error) {
	ids := datastore.NormalizeModelIDs(modelIDs)
	sort.Strings(ids)

	if len(ids) == 0 {
		return nil, nil, errors.Newf("no models selected for export").
			Component("export").
			Category(errors.CategoryValidation).
			Build()
	}

	manifest := &ArchiveManifest{
		BundleID:    uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		ModelIDs:    ids,
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	added := make(map[string]struct{})
	for _, id := range ids {
		model, err := a.ds.GetModel(ctx, id)
		if err != nil {
			a.log.Warn("skipping model in archive", "bps_model_id", id, "error", err)
			manifest.Missing = append(manifest.Missing, id)
			continue
		}
		if model.Document == "" {
			manifest.Missing = append(manifest.Missing, id)
			continue
		}
		// Two models may reference the same file; include it once.
		if _, dup := added[model.Document]; dup {
			continue
		}

		if err := a.addDocument(w, model.Document); err != nil {
			a.log.Warn("document unavailable", "bps_model_id", id, "document", model.Document, "error", err)
			manifest.Missing = append(manifest.Missing, id)
			continue
		}
		added[model.Document] = struct{}{}
		manifest.Documents = append(manifest.Documents, model.Document)
	}

	manifestFile, err := w.Create("manifest.json")
	if err != nil {
		return nil, nil, errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "create_manifest").
			Build()
	}
	if err := json.NewEncoder(manifestFile).Encode(manifest); err != nil {
		return nil, nil, errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "encode_manifest").
			Build()
	}

	if err := w.Close(); err != nil {
		return nil, nil, errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "close_archive").
			Build()
	}

	return buf.Bytes(), manifest, nil
}

// addDocument copies one document file into the archive under its original
// filename. Path traversal in a stored filename is rejected.
func (a *Archiver) addDocument(w *zip.Writer, document string) error {
	name := filepath.Base(document)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return errors.Newf("invalid document filename %q", document).
			Component("export").
			Category(errors.CategoryValidation).
			Build()
	}

	path := filepath.Join(a.docsPath, name)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dst, err := w.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, f)
	return err
}
