// Package sink writes exported leaderboards to disk: a CSV of every
// participant and a JSON metadata sidecar.
package sink

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/okian/boardsync/internal/domain/failure"
	"github.com/okian/boardsync/internal/domain/model"
)

// Columns is the fixed CSV header, in order.
var Columns = []string{"rank", "hacker", "score", "time_taken", "country", "school", "avatar"}

// csvRow fixes the column order through its tags. Every field is a string so
// absent values render as empty cells and the row width never changes.
type csvRow struct {
	Rank      string `csv:"rank"`
	Hacker    string `csv:"hacker"`
	Score     string `csv:"score"`
	TimeTaken string `csv:"time_taken"`
	Country   string `csv:"country"`
	School    string `csv:"school"`
	Avatar    string `csv:"avatar"`
}

// FileSink owns the two output paths.
type FileSink struct {
	csvPath  string
	metaPath string
}

// NewFileSink returns a sink writing the CSV to csvPath and metadata to metaPath.
func NewFileSink(csvPath, metaPath string) *FileSink {
	return &FileSink{csvPath: csvPath, metaPath: metaPath}
}

// CSVPath returns the CSV destination.
func (s *FileSink) CSVPath() string { return s.csvPath }

// MetadataPath returns the metadata destination.
func (s *FileSink) MetadataPath() string { return s.metaPath }

// WriteRecords replaces the CSV with one row per record, in batch order.
func (s *FileSink) WriteRecords(batch model.ExportBatch) error {
	const op = "sink.write_records"
	err := writeAtomic(s.csvPath, func(w io.Writer) error {
		return EncodeCSV(w, batch)
	})
	if err != nil {
		return failure.Write(op, err)
	}
	return nil
}

// WriteMetadata replaces the metadata sidecar.
func (s *FileSink) WriteMetadata(meta model.ExportMetadata) error {
	const op = "sink.write_metadata"
	err := writeAtomic(s.metaPath, func(w io.Writer) error {
		return EncodeMetadata(w, meta)
	})
	if err != nil {
		return failure.Write(op, err)
	}
	return nil
}

// EncodeCSV writes the header and one row per record to w.
func EncodeCSV(w io.Writer, batch model.ExportBatch) error {
	rows := make([]csvRow, len(batch))
	for i, rec := range batch {
		rows[i] = toRow(rec)
	}
	return gocsv.Marshal(rows, w)
}

// EncodeMetadata writes meta as indented JSON followed by a newline.
func EncodeMetadata(w io.Writer, meta model.ExportMetadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func toRow(rec model.ParticipantRecord) csvRow {
	row := csvRow{
		Hacker:    rec.Hacker,
		Score:     formatNumber(rec.Score),
		TimeTaken: formatNumber(rec.TimeTaken),
		Country:   rec.Country,
		School:    rec.School,
		Avatar:    rec.Avatar,
	}
	if rec.HasRank {
		row.Rank = strconv.Itoa(rec.Rank)
	}
	return row
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
