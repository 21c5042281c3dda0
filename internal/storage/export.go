package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/launchsim/internal/sequence"
)

type runExport struct {
	Metadata *RunMetadata     `json:"metadata"`
	Frames   []sequence.Frame `json:"frames"`
}

// ExportJSON writes a run as one indented JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, frames []sequence.Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(runExport{Metadata: meta, Frames: frames})
}

// ImportJSON reads a document written by ExportJSON.
func ImportJSON(r io.Reader) (*RunMetadata, []sequence.Frame, error) {
	var doc runExport
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, err
	}
	return doc.Metadata, doc.Frames, nil
}
