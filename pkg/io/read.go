package io

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/workflow"
)

// Vessel table column names.
const (
	ColName       = "name"
	ColBCType     = "bc_type"
	ColVesselType = "vessel_type"
	ColInputs     = "inp_vessels"
	ColOutputs    = "out_vessels"
)

// ReadCatalog decodes a module catalog.
func ReadCatalog(r io.Reader) (workflow.Catalog, error) {
	var c workflow.Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "decode catalog")
	}
	for i, f := range c {
		if f.Filename == "" {
			return nil, errors.New(errors.ErrCodeInvalidCatalog, "catalog entry %d has no filename", i)
		}
	}
	return c, nil
}

// ReadConfig decodes a module config.
func ReadConfig(r io.Reader) (workflow.Config, error) {
	var c workflow.Config
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode module config")
	}
	for i, e := range c {
		if e.VesselType == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "module config entry %d has no vessel_type", i)
		}
	}
	return c, nil
}

// ReadVessels decodes a vessel table from CSV or JSON.
func ReadVessels(r io.Reader) ([]workflow.Vessel, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read vessels: %w", err)
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
			continue
		case '[':
			return readVesselsJSON(br)
		}
		return readVesselsCSV(br)
	}
}

func readVesselsJSON(r io.Reader) ([]workflow.Vessel, error) {
	var vs []workflow.Vessel
	if err := json.NewDecoder(r).Decode(&vs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode vessel table")
	}
	return vs, nil
}

func readVesselsCSV(r io.Reader) ([]workflow.Vessel, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read vessel table header")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := col[ColName]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "vessel table has no %q column", ColName)
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var vs []workflow.Vessel
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "vessel table line %d", line)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		vs = append(vs, workflow.Vessel{
			Name:       field(rec, ColName),
			BCType:     field(rec, ColBCType),
			VesselType: field(rec, ColVesselType),
			Inputs:     field(rec, ColInputs),
			Outputs:    field(rec, ColOutputs),
		})
	}
	return vs, nil
}

// Paths names the three import files.
type Paths struct {
	Catalog string
	Config  string
	Vessels string
}

// LoadInput reads the three import files.
func LoadInput(p Paths) (workflow.Input, error) {
	var in workflow.Input
	var err error
	if in.Catalog, err = readFile(p.Catalog, ReadCatalog); err != nil {
		return workflow.Input{}, err
	}
	if in.Config, err = readFile(p.Config, ReadConfig); err != nil {
		return workflow.Input{}, err
	}
	if in.Vessels, err = readFile(p.Vessels, ReadVessels); err != nil {
		return workflow.Input{}, err
	}
	return in, nil
}

// DecodeInput reads an Input from a single JSON document with catalog,
// config and vessels keys, as accepted by the HTTP API.
func DecodeInput(data []byte) (workflow.Input, error) {
	var in workflow.Input
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return workflow.Input{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode import")
	}
	return in, nil
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
