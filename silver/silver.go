// Package silver implements the bronze-to-silver transform: it reads every
// bronze Parquet file under a (possibly filtered) partition range, cleans
// and types the columns, deduplicates by business key, derives the ability
// bridge table, and writes both outputs into the silver prefix partitioned
// by date. Re-running on the same UTC date overwrites that date's outputs.
package silver

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/rdtavares/pokelake"
	"github.com/rdtavares/pokelake/frame"
	"github.com/rdtavares/pokelake/internal"
)

// ErrNoBronzeData is returned when the bronze read yields zero rows. Like
// the bronze discovery guard, this denotes missing or inaccessible
// upstream data and is fatal without retry.
var ErrNoBronzeData = errors.New("no bronze data found")

func (m *Main) run(now time.Time) error {
	runID := m.RunID
	if runID == "" {
		runID = pokelake.NewRunID(now)
	}
	batchID := pokelake.BatchID(now)
	dt := pokelake.PartitionDate(now)

	combined, err := m.loadBronze()
	if err != nil {
		return err
	}
	cleaned := m.clean(combined, pokelake.TimestampUTC(now), batchID)

	bridge, haveBridge := abilityBridge(cleaned)
	cleaned.Drop(abilitiesListColumn)

	meta := map[string]string{
		"layer":    "silver",
		"table":    m.Table,
		"dt":       dt,
		"run_id":   runID,
		"batch_id": batchID,
	}
	mainKey := fmt.Sprintf("%s/dt=%s/%s.parquet", m.SilverPrefix, dt, m.Table)
	if err := m.writeParquet(cleaned, mainKey, meta); err != nil {
		return err
	}
	m.log.Printf("silver: wrote s3://%s/%s (%d rows)", m.Bucket, mainKey, cleaned.NumRows())

	if !haveBridge {
		m.log.Printf("silver: no business key or abilities list; skipping bridge table")
		return nil
	}
	bridgeMeta := map[string]string{
		"layer":    "silver",
		"table":    m.Table + "_ability_bridge",
		"dt":       dt,
		"run_id":   runID,
		"batch_id": batchID,
	}
	bridgeKey := fmt.Sprintf("%s/dt=%s/%s_ability_bridge.parquet", m.SilverPrefix, dt, m.Table)
	if err := m.writeParquet(bridge, bridgeKey, bridgeMeta); err != nil {
		return err
	}
	m.log.Printf("silver: wrote s3://%s/%s (%d rows)", m.Bucket, bridgeKey, bridge.NumRows())
	return nil
}

// bronzeReadPrefix narrows the bronze prefix by the optional partition
// filters. The filters piggyback on the key layout, so no catalog lookup
// is needed.
func (m *Main) bronzeReadPrefix() string {
	prefix := m.BronzePrefix
	if m.FilterIngestionDate != "" {
		prefix += "/ingestion_date=" + m.FilterIngestionDate
		if m.FilterBatchID != "" {
			prefix += "/batch_id=" + m.FilterBatchID
		}
	}
	return prefix
}

func (m *Main) loadBronze() (*frame.Frame, error) {
	prefix := m.bronzeReadPrefix()
	m.log.Printf("silver: reading bronze from s3://%s/%s", m.Bucket, prefix)

	keys, err := internal.ListObjectKeys(m.s3client, m.Bucket, prefix)
	if err != nil {
		return nil, err
	}
	var frames []*frame.Frame
	for _, key := range keys {
		if !strings.HasSuffix(strings.ToLower(key), ".parquet") {
			continue
		}
		blob, err := internal.GetObjectBytes(m.s3client, m.Bucket, key)
		if err != nil {
			return nil, err
		}
		f, _, err := frame.ReadParquet(blob)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding s3://%s/%s", m.Bucket, key)
		}
		frames = append(frames, f)
	}
	combined := frame.Concat(frames...)
	if combined.NumRows() == 0 {
		return nil, errors.Wrapf(ErrNoBronzeData, "s3://%s/%s", m.Bucket, prefix)
	}
	return combined, nil
}

func (m *Main) writeParquet(f *frame.Frame, key string, meta map[string]string) error {
	blob, err := f.WriteParquet(meta)
	if err != nil {
		return errors.Wrapf(err, "serializing %s", key)
	}
	return internal.PutObjectBytes(m.s3client, m.Bucket, key, blob, meta)
}
