package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/condensim/internal/signal"
)

type ExportData struct {
	Run     *RunMetadata        `json:"run"`
	Signals map[string][]Number `json:"signals"`
}

func exportData(meta *RunMetadata, signals []signal.Signal) ExportData {
	data := ExportData{Run: meta, Signals: make(map[string][]Number, len(signals))}
	for _, s := range signals {
		v := make([]Number, s.Len())
		for i := range v {
			v[i] = Number(s.At(i))
		}
		data.Signals[s.Name()] = v
	}
	return data
}

// ExportJSON writes a stored run and its signals as one JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, signals []signal.Signal) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportData(meta, signals))
}

func ExportJSONFile(path string, meta *RunMetadata, signals []signal.Signal) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := ExportJSON(file, meta, signals); err != nil {
		return err
	}
	return file.Close()
}

// Export loads a run by id and writes it to w.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	signals, err := s.LoadSignals(runID)
	if err != nil {
		return err
	}
	return ExportJSON(w, meta, signals)
}
