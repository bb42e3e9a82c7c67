package hzmap

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Shin107/Anisotropic-SNANA/internal/cosmoerr"
)

const (
	docStart = "DOCUMENTATION:"
	docEnd   = "DOCUMENTATION_END:"
)

// Parse reads a two-column H(z) map from r. An optional DOCUMENTATION
// block at the top is decoded into the map's Provenance. Blank lines and
// lines starting with '#' are ignored; any other malformed row is an error.
func Parse(r io.Reader, logger *slog.Logger) (*Map, error) {
	const op = "hzmap.Parse"

	scanner := bufio.NewScanner(r)
	var (
		z, h    []float64
		doc     []string
		inDoc   bool
		lineNum int
	)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, docStart) && len(z) == 0:
			inDoc = true
			doc = append(doc, scanner.Text())
			continue
		case strings.HasPrefix(line, docEnd):
			if !inDoc {
				return nil, cosmoerr.New(cosmoerr.KindMapFormat, op, "line %d: %s without %s", lineNum, docEnd, docStart)
			}
			inDoc = false
			continue
		case inDoc:
			doc = append(doc, scanner.Text())
			continue
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, cosmoerr.New(cosmoerr.KindMapFormat, op, "line %d: expected 2 columns, got %d", lineNum, len(fields))
		}
		zv, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, cosmoerr.Wrap(cosmoerr.KindMapFormat, op, err, "line %d: invalid z %q", lineNum, fields[0])
		}
		hv, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, cosmoerr.Wrap(cosmoerr.KindMapFormat, op, err, "line %d: invalid H %q", lineNum, fields[1])
		}
		if len(z) == MaxRows {
			return nil, cosmoerr.New(cosmoerr.KindMapFormat, op, "more than %d rows", MaxRows)
		}
		z = append(z, zv)
		h = append(h, hv)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading H(z) map: %w", err)
	}
	if inDoc {
		return nil, cosmoerr.New(cosmoerr.KindMapFormat, op, "unterminated %s block", docStart)
	}

	m, err := New(z, h)
	if err != nil {
		return nil, err
	}

	if len(doc) > 0 {
		var wrapper struct {
			Doc Provenance `yaml:"DOCUMENTATION"`
		}
		if err := yaml.Unmarshal([]byte(strings.Join(doc, "\n")), &wrapper); err != nil {
			return nil, cosmoerr.Wrap(cosmoerr.KindMapFormat, op, err, "decoding %s block", docStart)
		}
		m.Provenance = wrapper.Doc
	}

	logger.Debug("parsed H(z) map",
		"rows", m.Len(),
		"z_min", m.ZMin(),
		"z_max", m.ZMax(),
		"has_cospar", m.Provenance.CosPar != nil,
	)
	return m, nil
}

// ReadFile parses the map stored at path.
func ReadFile(path string, logger *slog.Logger) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening H(z) map: %w", err)
	}
	defer f.Close()

	m, err := Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Source = path

	logger.Info("read H(z) map",
		"path", path,
		"rows", m.Len(),
		"z_min", m.ZMin(),
		"z_max", m.ZMax(),
	)
	return m, nil
}
