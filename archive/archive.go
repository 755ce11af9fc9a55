// Package archive gives lazy, name-based access to the entries of a ZIP
// container (APK or APKM). It sits on top of apkparser's ZipReader, which
// tolerates the malformed and crafted archives that show up in the wild.
package archive

import (
	"fmt"
	"io"
	"sync"

	"github.com/avast/apkparser"
	"github.com/bitrise-io/go-utils/log"
	kzip "github.com/klauspost/compress/zip"
)

// OpenError is returned when the path is not a readable ZIP container.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open archive (%s): %s", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// StreamError is returned when a single entry cannot be opened or read.
type StreamError struct {
	Entry string
	Err   error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("failed to read archive entry (%s): %s", e.Entry, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Reader is an open archive handle.
type Reader struct {
	path string
	zip  *apkparser.ZipReader

	// entry readers share the underlying *os.File
	mu sync.Mutex
}

// Entry is a single named file inside the archive.
type Entry struct {
	Name string
	file *apkparser.ZipReaderFile
}

// Open ...
func Open(path string) (*Reader, error) {
	zip, err := apkparser.OpenZip(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	// apkparser falls back to scanning local file headers when the central
	// directory is unreadable, so arbitrary bytes open as an empty archive.
	if len(zip.FilesOrdered) == 0 {
		if err := checkCentralDirectory(path); err != nil {
			if cerr := zip.Close(); cerr != nil {
				log.Warnf("Failed to close archive (%s): %s", path, cerr)
			}
			return nil, &OpenError{Path: path, Err: err}
		}
	}

	return &Reader{path: path, zip: zip}, nil
}

// checkCentralDirectory reports whether path is a well-formed ZIP container.
func checkCentralDirectory(path string) error {
	r, err := kzip.OpenReader(path)
	if err != nil {
		return err
	}
	return r.Close()
}

// Path returns the filesystem path the archive was opened from.
func (r *Reader) Path() string {
	return r.path
}

// ZipReader exposes the underlying apkparser handle for manifest decoding.
func (r *Reader) ZipReader() *apkparser.ZipReader {
	return r.zip
}

// Close ...
func (r *Reader) Close() error {
	return r.zip.Close()
}

// Entries returns a fresh single-pass iterator over the archive's file
// entries in central-directory order. Directories are skipped.
func (r *Reader) Entries() *Entries {
	return &Entries{
		files: r.zip.FilesOrdered,
		seen:  map[*apkparser.ZipReaderFile]bool{},
	}
}

// Find returns the first entry, in archive order, whose name satisfies match.
func (r *Reader) Find(match func(name string) bool) (*Entry, bool) {
	it := r.Entries()
	for it.Next() {
		if match(it.Entry().Name) {
			return it.Entry(), true
		}
	}
	return nil, false
}

// ReadAll buffers the decompressed content of the entry.
func (r *Reader) ReadAll(e *Entry) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := e.file.Open(); err != nil {
		return nil, &StreamError{Entry: e.Name, Err: err}
	}
	defer e.file.Close()

	content, err := io.ReadAll(e.file)
	if err != nil {
		return nil, &StreamError{Entry: e.Name, Err: err}
	}
	return content, nil
}

// CopyTo streams the decompressed content of the entry into w.
func (r *Reader) CopyTo(w io.Writer, e *Entry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := e.file.Open(); err != nil {
		return 0, &StreamError{Entry: e.Name, Err: err}
	}
	defer e.file.Close()

	n, err := io.Copy(w, e.file)
	if err != nil {
		return n, &StreamError{Entry: e.Name, Err: err}
	}
	return n, nil
}

// Entries is a pull iterator over archive entries. Crafted archives may list
// the same file more than once; each file is yielded once.
type Entries struct {
	files []*apkparser.ZipReaderFile
	seen  map[*apkparser.ZipReaderFile]bool
	pos   int
	cur   *Entry
}

// Next advances to the next entry and reports whether there is one.
func (it *Entries) Next() bool {
	for it.pos < len(it.files) {
		f := it.files[it.pos]
		it.pos++

		if f == nil || f.IsDir || it.seen[f] {
			continue
		}
		it.seen[f] = true
		it.cur = &Entry{Name: f.Name, file: f}
		return true
	}
	it.cur = nil
	return false
}

// Entry returns the current entry. Only valid after Next returned true.
func (it *Entries) Entry() *Entry {
	return it.cur
}
