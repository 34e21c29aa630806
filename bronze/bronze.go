// Package bronze implements the raw-to-bronze transform: it discovers CSV
// and ZIP-of-CSV objects under the raw prefix, normalizes column names,
// appends provenance columns, and writes one Parquet file per source file
// into the bronze prefix, partitioned by ingestion date and batch id.
package bronze

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/rdtavares/pokelake"
	"github.com/rdtavares/pokelake/catalog"
	"github.com/rdtavares/pokelake/frame"
	"github.com/rdtavares/pokelake/internal"
)

// ErrNoSourceObjects is returned when discovery finds no CSV source under
// the raw prefix. This signals misconfiguration or missing permissions,
// not a transient condition, so it is fatal and never retried.
var ErrNoSourceObjects = errors.New("no CSV source objects found")

func (m *Main) run(now time.Time) error {
	runID := m.RunID
	if runID == "" {
		runID = pokelake.NewRunID(now)
	}
	batchID := pokelake.BatchID(now)
	ingestionDate := pokelake.PartitionDate(now)

	keys, err := internal.ListObjectKeys(m.s3client, m.RawBucket, m.RawPrefix)
	if err != nil {
		return err
	}

	sources := 0
	for _, key := range keys {
		lower := strings.ToLower(key)
		switch {
		case strings.HasSuffix(lower, ".csv"):
			blob, err := internal.GetObjectBytes(m.s3client, m.RawBucket, key)
			if err != nil {
				return err
			}
			if err := m.processSource(blob, path.Base(key), runID, batchID, ingestionDate); err != nil {
				return err
			}
			sources++
		case strings.HasSuffix(lower, ".zip"):
			blob, err := internal.GetObjectBytes(m.s3client, m.RawBucket, key)
			if err != nil {
				return err
			}
			n, err := m.processArchive(blob, key, runID, batchID, ingestionDate)
			if err != nil {
				return err
			}
			sources += n
		default:
			m.log.Printf("skipping non-CSV object s3://%s/%s", m.RawBucket, key)
		}
	}
	if sources == 0 {
		return errors.Wrapf(ErrNoSourceObjects, "s3://%s/%s", m.RawBucket, m.RawPrefix)
	}
	m.log.Printf("bronze: ingested %d source file(s) into batch %s", sources, batchID)

	if m.Config.Enabled() {
		reg := catalog.NewRegistrar(m.Config, m.rsclient, m.log)
		location := fmt.Sprintf("s3://%s/%s/", m.BronzeBucket, m.BronzePrefix)
		if err := reg.RegisterPartition(m.Table, location, ingestionDate, batchID); err != nil {
			return errors.Wrap(err, "registering bronze partition")
		}
	} else if reason := m.Config.SkipReason(); reason != "" {
		m.log.Printf("catalog registration skipped: %s", reason)
	}
	return nil
}

// processArchive fans a ZIP archive out into one bronze output per CSV
// entry, using the in-archive entry name as source provenance. It returns
// the number of CSV entries processed.
func (m *Main) processArchive(blob []byte, key, runID, batchID, ingestionDate string) (int, error) {
	z, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return 0, errors.Wrapf(err, "opening archive s3://%s/%s", m.RawBucket, key)
	}
	n := 0
	for _, entry := range z.File {
		if entry.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name), ".csv") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return n, errors.Wrapf(err, "opening archive entry %s", entry.Name)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return n, errors.Wrapf(err, "reading archive entry %s", entry.Name)
		}
		if err := m.processSource(data, entry.Name, runID, batchID, ingestionDate); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// processSource decodes one CSV payload, appends the provenance columns,
// and commits it as a bronze Parquet object. The output key embeds the
// first 12 hex chars of the content fingerprint: distinct payloads never
// collide within a batch, while re-uploading identical bytes overwrites
// the same object.
func (m *Main) processSource(data []byte, sourceName, runID, batchID, ingestionDate string) error {
	f, err := m.decodeCSV(data)
	if err != nil {
		return errors.Wrapf(err, "decoding %s", sourceName)
	}

	fp := pokelake.Fingerprint(data)
	ts := pokelake.TimestampUTC(m.nowFn())
	for _, prov := range []struct {
		name  string
		value string
	}{
		{"_ingestion_ts_utc", ts},
		{"_source_file", sourceName},
		{"_source_sha256", fp},
		{"_run_id", runID},
		{"_batch_id", batchID},
	} {
		if err := f.AppendConst(prov.name, prov.value); err != nil {
			return errors.Wrapf(err, "appending provenance to %s", sourceName)
		}
	}

	meta := map[string]string{
		"layer":         "bronze",
		"table":         m.Table,
		"run_id":        runID,
		"batch_id":      batchID,
		"source_file":   sourceName,
		"source_sha256": fp,
	}
	blob, err := f.WriteParquet(meta)
	if err != nil {
		return errors.Wrapf(err, "serializing %s", sourceName)
	}

	key := fmt.Sprintf("%s/ingestion_date=%s/batch_id=%s/%s__%s.parquet",
		m.BronzePrefix, ingestionDate, batchID, m.Table, fp[:12])
	if err := internal.PutObjectBytes(m.s3client, m.BronzeBucket, key, blob, meta); err != nil {
		return err
	}
	m.log.Printf("bronze: wrote s3://%s/%s (%d rows from %s)", m.BronzeBucket, key, f.NumRows(), sourceName)
	return nil
}

// decodeCSV parses a CSV payload into an all-string frame with slugified
// column names. Empty cells become null. Rows wider than the header have
// their extra fields ignored with a warning; narrower rows are null padded.
func (m *Main) decodeCSV(data []byte) (*frame.Frame, error) {
	delim := ','
	if m.CSVDelimiter != "" {
		delim = []rune(m.CSVDelimiter)[0]
	} else if sniffed, ok := pokelake.SniffDelimiter(data); ok {
		delim = sniffed
	}

	decoded, err := decodingReader(bytes.NewReader(data), m.CSVEncoding)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(decoded)
	r.Comma = delim
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	names := make([]string, len(header))
	for i, name := range header {
		names[i] = pokelake.SlugifyColumn(name)
	}

	columns := make([][]interface{}, len(names))
	extraFields := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading row")
		}
		if len(row) > len(names) {
			extraFields++
		}
		for i := range names {
			var cell interface{}
			if i < len(row) && row[i] != "" {
				cell = row[i]
			}
			columns[i] = append(columns[i], cell)
		}
	}
	if extraFields > 0 {
		m.log.Warnf("%d row(s) have more fields than the header; extras ignored", extraFields)
	}

	cols := make([]frame.Column, len(names))
	for i, name := range names {
		cols[i] = frame.Column{Name: name, Data: columns[i]}
	}
	return frame.New(cols...)
}

func decodingReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(encoding)) {
	case "", "utf8":
		return r, nil
	case "latin1", "iso88591":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, errors.Errorf("unsupported csv encoding %q", encoding)
}
