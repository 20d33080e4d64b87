// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "github.com/astromodkit/uasset/wire"

// ExportDependencies holds the four preload-dependency arrays the
// event-driven loader reads before it is safe to create/serialize a
// given export, plus the "create before" counterparts that govern
// destruction order. Each array is a list of PackageIndex values; their
// lengths are captured from the export record, and the flat on-disk blob
// is addressed by FirstExportDependencyOffset (§4.3).
type ExportDependencies struct {
	SerializationBeforeSerializationDependencies []PackageIndex
	CreateBeforeSerializationDependencies        []PackageIndex
	SerializationBeforeCreateDependencies        []PackageIndex
	CreateBeforeCreateDependencies               []PackageIndex
}

// counts returns the four lengths in the on-disk order the export record
// stores them.
func (d ExportDependencies) counts() [4]int32 {
	return [4]int32{
		int32(len(d.SerializationBeforeSerializationDependencies)),
		int32(len(d.CreateBeforeSerializationDependencies)),
		int32(len(d.SerializationBeforeCreateDependencies)),
		int32(len(d.CreateBeforeCreateDependencies)),
	}
}

// readPreloadBlob reads one export's four dependency arrays out of the
// flat i32 blob at preloadDependencyOffset + firstExportDependencyOffset*4,
// given the lengths captured earlier from the export record.
func readPreloadBlob(r *wire.Reader, preloadDependencyOffset int64, firstExportDependencyOffset int32, counts [4]int32) (ExportDependencies, error) {
	if firstExportDependencyOffset < 0 {
		return ExportDependencies{}, nil
	}
	if err := r.Seek(preloadDependencyOffset + int64(firstExportDependencyOffset)*4); err != nil {
		return ExportDependencies{}, err
	}
	readArray := func(n int32) ([]PackageIndex, error) {
		out := make([]PackageIndex, n)
		for i := range out {
			v, err := r.I32()
			if err != nil {
				return nil, err
			}
			out[i] = PackageIndex(v)
		}
		return out, nil
	}
	var d ExportDependencies
	var err error
	if d.SerializationBeforeSerializationDependencies, err = readArray(counts[0]); err != nil {
		return ExportDependencies{}, err
	}
	if d.CreateBeforeSerializationDependencies, err = readArray(counts[1]); err != nil {
		return ExportDependencies{}, err
	}
	if d.SerializationBeforeCreateDependencies, err = readArray(counts[2]); err != nil {
		return ExportDependencies{}, err
	}
	if d.CreateBeforeCreateDependencies, err = readArray(counts[3]); err != nil {
		return ExportDependencies{}, err
	}
	return d, nil
}

// writePreloadBlob appends d's four arrays to w, in the same order
// readPreloadBlob expects, and returns the i32-blob-relative offset the
// export record must store as its FirstExportDependencyOffset.
func writePreloadBlob(w *wire.Writer, blobStart int64, d ExportDependencies) int32 {
	offset := int32((w.Position() - blobStart) / 4)
	writeArray := func(arr []PackageIndex) {
		for _, v := range arr {
			w.I32(int32(v))
		}
	}
	writeArray(d.SerializationBeforeSerializationDependencies)
	writeArray(d.CreateBeforeSerializationDependencies)
	writeArray(d.SerializationBeforeCreateDependencies)
	writeArray(d.CreateBeforeCreateDependencies)
	return offset
}

// DependsMap is the optional per-export list of legacy dependency
// indices, present only when the source package had it or an older
// engine-version range requires a zero-sized placeholder per export.
type DependsMap struct {
	Entries [][]int32
}

// ReadDependsMap reads one []int32 entry per export.
func ReadDependsMap(r *wire.Reader, exportCount int) (DependsMap, error) {
	dm := DependsMap{Entries: make([][]int32, exportCount)}
	for i := 0; i < exportCount; i++ {
		n, err := r.I32()
		if err != nil {
			return DependsMap{}, err
		}
		entry := make([]int32, n)
		for j := range entry {
			v, err := r.I32()
			if err != nil {
				return DependsMap{}, err
			}
			entry[j] = v
		}
		dm.Entries[i] = entry
	}
	return dm, nil
}

// Write serializes dm in the same per-export order ReadDependsMap expects.
func (dm DependsMap) Write(w *wire.Writer) {
	for _, entry := range dm.Entries {
		w.I32(int32(len(entry)))
		for _, v := range entry {
			w.I32(v)
		}
	}
}
