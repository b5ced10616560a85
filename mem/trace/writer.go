package trace

import (
	"bufio"
	"fmt"
	"io"
)

// Writer writes accesses in the text trace format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a writer over w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one access.
func (w *Writer) Write(a Access) error {
	_, err := fmt.Fprintln(w.w, a.String())
	return err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
