package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/rocketship/mem/cache/replacement"
)

// Reader parses a text trace.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next access. It returns io.EOF after the last one.
func (r *Reader) Next() (Access, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		a, err := parseAccess(text)
		if err != nil {
			return Access{}, fmt.Errorf("line %d: %w", r.line, err)
		}

		return a, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Access{}, err
	}

	return Access{}, io.EOF
}

// ReadAll returns all the remaining accesses.
func (r *Reader) ReadAll() ([]Access, error) {
	var accesses []Access

	for {
		a, err := r.Next()
		if err == io.EOF {
			return accesses, nil
		}

		if err != nil {
			return accesses, err
		}

		accesses = append(accesses, a)
	}
}

func parseAccess(text string) (Access, error) {
	fields := strings.Fields(text)
	if len(fields) != 4 {
		return Access{}, fmt.Errorf("%w: want 4 fields, got %d",
			ErrMalformedTrace, len(fields))
	}

	cpu, err := strconv.ParseUint(fields[0], 0, 16)
	if err != nil {
		return Access{}, fmt.Errorf("%w: cpu %q", ErrMalformedTrace, fields[0])
	}

	t, err := parseType(fields[1])
	if err != nil {
		return Access{}, err
	}

	pc, err := strconv.ParseUint(fields[2], 0, 64)
	if err != nil {
		return Access{}, fmt.Errorf("%w: pc %q", ErrMalformedTrace, fields[2])
	}

	addr, err := strconv.ParseUint(fields[3], 0, 64)
	if err != nil {
		return Access{}, fmt.Errorf("%w: address %q",
			ErrMalformedTrace, fields[3])
	}

	return Access{
		CPU:     int(cpu),
		Type:    t,
		PC:      pc,
		Address: addr,
	}, nil
}

func parseType(s string) (replacement.AccessType, error) {
	if t, ok := replacement.ParseAccessType(strings.ToUpper(s)); ok {
		return t, nil
	}

	n, err := strconv.Atoi(s)
	if err == nil && n >= 0 && n < replacement.NumAccessTypes {
		return replacement.AccessType(n), nil
	}

	return 0, fmt.Errorf("%w: access type %q", ErrMalformedTrace, s)
}
