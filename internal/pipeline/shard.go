package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
)

// Shard files hold a stream of JSON-encoded tile records, one object after
// another, optionally gzip-compressed. Each shard is independently decodable
// so shards can be read in parallel.

// readShardFile streams every tile record in one shard through fn.
// fn returning an error aborts the read.
func readShardFile(path, compression string, fn func(domain.TileRecord) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open shard: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if compression == "gzip" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip shard %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	dec := json.NewDecoder(r)
	for {
		var rec domain.TileRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode tile record in %s: %w", path, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// WriteShard writes tile records to a shard file, gzip-compressed when
// compression is "gzip". Used by fixture generation and tests.
func WriteShard(path, compression string, records []domain.TileRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create shard: %w", err)
	}

	var w io.Writer = f
	var gz *gzip.Writer
	if compression == "gzip" {
		gz = gzip.NewWriter(f)
		w = gz
	}

	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			f.Close()
			return fmt.Errorf("encode tile record: %w", err)
		}
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			f.Close()
			return fmt.Errorf("close gzip shard: %w", err)
		}
	}
	return f.Close()
}
