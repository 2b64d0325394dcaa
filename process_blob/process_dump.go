package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"memsweep/process"
	"memsweep/process/memory_map"
)

const (
	metadataFile   = "metadata.json"
	regionsFile    = "regions.json"
	dumpChunkSize  = 16 << 20
	maxDumpRegion  = 256 << 20
	dumpPermission = 0o644
)

// Metadata describes where a dump came from.
type Metadata struct {
	PID  process.ProcessID `json:"pid"`
	Name string            `json:"name"`
}

type dumpedRegion struct {
	memory_map.MemoryRegion
	File string `json:"file"`
}

func blobFilename(r memory_map.MemoryRegion) string {
	return fmt.Sprintf("blob_0x%x_%d.bin", r.Base, r.Size)
}

// Save writes the readable regions of regions to dirname, reading them
// through r. Regions larger than 256 MiB are skipped. A region whose read
// comes back short is stored truncated to the bytes that were read.
// It returns the number of regions written.
func Save(dirname string, meta Metadata, r process.PartialReader, regions []memory_map.MemoryRegion) (int, error) {
	if err := os.MkdirAll(dirname, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	metadataJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, metadataFile), metadataJSON, dumpPermission); err != nil {
		return 0, fmt.Errorf("failed to write metadata file: %w", err)
	}

	var saved []dumpedRegion
	for _, region := range regions {
		if !region.IsReadable() || region.Size > maxDumpRegion {
			continue
		}

		data := readRegion(r, region)
		if len(data) == 0 {
			continue
		}

		region.Size = uint64(len(data))
		entry := dumpedRegion{MemoryRegion: region, File: blobFilename(region)}
		if err := os.WriteFile(filepath.Join(dirname, entry.File), data, dumpPermission); err != nil {
			return len(saved), fmt.Errorf("failed to write blob %s: %w", entry.File, err)
		}
		saved = append(saved, entry)
	}

	regionsJSON, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return len(saved), fmt.Errorf("failed to marshal regions: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, regionsFile), regionsJSON, dumpPermission); err != nil {
		return len(saved), fmt.Errorf("failed to write regions file: %w", err)
	}

	return len(saved), nil
}

// readRegion reads the region from its base until the first short read.
func readRegion(r process.PartialReader, region memory_map.MemoryRegion) []byte {
	out := make([]byte, 0, region.Size)
	for uint64(len(out)) < region.Size {
		want := region.Size - uint64(len(out))
		if want > dumpChunkSize {
			want = dumpChunkSize
		}
		buf := make([]byte, want)
		n, _ := r.ReadPartial(process.ProcessMemoryAddress(region.Base+uint64(len(out))), buf)
		out = append(out, buf[:n]...)
		if uint64(n) < want {
			break
		}
	}
	return out
}

// Load restores a dump written by Save as an AddressSpace.
func Load(dirname string) (*AddressSpace, Metadata, error) {
	var meta Metadata

	metadataBytes, err := os.ReadFile(filepath.Join(dirname, metadataFile))
	if err != nil {
		return nil, meta, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal(metadataBytes, &meta); err != nil {
		return nil, meta, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	regionsBytes, err := os.ReadFile(filepath.Join(dirname, regionsFile))
	if err != nil {
		return nil, meta, fmt.Errorf("failed to read regions: %w", err)
	}
	var regions []dumpedRegion
	if err := json.Unmarshal(regionsBytes, &regions); err != nil {
		return nil, meta, fmt.Errorf("failed to unmarshal regions: %w", err)
	}

	space := NewAddressSpace()
	for _, region := range regions {
		data, err := os.ReadFile(filepath.Join(dirname, region.File))
		if err != nil {
			return nil, meta, fmt.Errorf("failed to read blob %s: %w", region.File, err)
		}
		if err := space.MapRegion(region.MemoryRegion, data); err != nil {
			return nil, meta, fmt.Errorf("failed to map blob %s: %w", region.File, err)
		}
	}

	return space, meta, nil
}
