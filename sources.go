package partsplit

import (
	"github.com/discochess/partsplit/internal/source/filesource"
	"github.com/discochess/partsplit/internal/source/memsource"
)

// FileSource returns a LineSource reading the file at path. Files ending in
// ".gz" or ".zst" are decompressed, and their parts are named without that
// extension.
func FileSource(path string) LineSource {
	return filesource.New(path)
}

// BytesSource returns a LineSource serving a copy of data under name.
func BytesSource(name string, data []byte) LineSource {
	return memsource.New(name, data)
}

// LinesSource returns a LineSource serving lines, each terminated by "\n".
func LinesSource(name string, lines ...string) LineSource {
	return memsource.FromLines(name, lines...)
}
