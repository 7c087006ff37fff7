package log

import (
	"fmt"
	"os"
	"sync"
)

// FileWriter appends to a log file that is only created once something is
// written to it.
type FileWriter struct {
	path string

	// OnOpenError is called when the file cannot be opened.
	OnOpenError func(error)

	mu   sync.Mutex
	file *os.File
}

// NewFileWriter returns a writer for path. Nothing is opened yet.
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Path returns the file the writer appends to.
func (fw *FileWriter) Path() string {
	return fw.path
}

// Write implements io.Writer, opening the file on first use.
func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.file == nil {
		f, err := os.OpenFile(fw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			err = fmt.Errorf("opening log file: %w", err)
			if fw.OnOpenError != nil {
				fw.OnOpenError(err)
			}
			return 0, err
		}
		fw.file = f
	}
	return fw.file.Write(p)
}

// Opened reports whether the file has been created.
func (fw *FileWriter) Opened() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.file != nil
}

// Close closes the underlying file.
func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.file != nil {
		err := fw.file.Close()
		fw.file = nil
		return err
	}
	return nil
}
