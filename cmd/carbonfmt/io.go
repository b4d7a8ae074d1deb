package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jaksonlabs/carbonfmt/carbonio"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/internal/config"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/record"
)

func loadRecord(uri config.URI) (*record.Record, error) {
	var buf []byte
	var err error
	switch {
	case uri.IsStdin():
		buf, err = io.ReadAll(os.Stdin)
	default:
		var src carbonio.Source
		src, err = carbonio.OpenFileSource(uri.Path())
		if err != nil {
			return nil, err
		}
		defer src.Close()
		buf, err = carbonio.ReadAll(src)
	}
	if err != nil {
		return nil, fmt.Errorf("carbonfmt: load %s: %w", uri, err)
	}
	return record.FromBytes(buf)
}

func saveRecord(uri config.URI, rec *record.Record) error {
	if uri.IsStdin() {
		_, err := os.Stdout.Write(rec.Bytes())
		return err
	}
	return os.WriteFile(uri.Path(), rec.Bytes(), 0o644)
}

// makeWritable reopens a record loaded read-only (as FromBytes always
// returns) for in-place mutation, the way a PatchMode revise session
// expects to address its working record.
func makeWritable(rec *record.Record) {
	rec.MemFile().SetMode(memfile.ReadWrite)
}

func parseAbstractType(name string) (field.AbstractType, error) {
	switch name {
	case "unsorted-multiset", "":
		return field.UnsortedMultiset, nil
	case "sorted-multiset":
		return field.SortedMultiset, nil
	case "unsorted-set":
		return field.UnsortedSet, nil
	case "sorted-set":
		return field.SortedSet, nil
	default:
		return 0, fmt.Errorf("carbonfmt: unknown abstract type %q", name)
	}
}
