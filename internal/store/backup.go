package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Export writes every stored pair to w as zstd-compressed JSON lines.
// Intended for operator backups before config or backend migrations.
func Export(kv KV, w io.Writer) error {
	pairs, err := kv.List("")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	for _, p := range pairs {
		line, err := json.Marshal(p)
		if err != nil {
			enc.Close()
			return fmt.Errorf("export %s: %w", p.Key, err)
		}
		if _, err := enc.Write(append(line, '\n')); err != nil {
			enc.Close()
			return err
		}
	}
	return enc.Close()
}

// Import replays a backup produced by Export into kv, overwriting existing
// keys.
func Import(kv KV, r io.Reader) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer dec.Close()
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var p Pair
		if err := json.Unmarshal(line, &p); err != nil {
			return fmt.Errorf("import: %w", err)
		}
		if err := kv.Set(p.Key, p.Value); err != nil {
			return err
		}
	}
	return scanner.Err()
}
