/*
   Sim-D: buffer data file upload/download.

   Grounded on util/tape/tape.go and util/card/card.go's file-format
   handling: a small set of named formats keyed by extension/content,
   plain os.File handles, errors.New/wrapped-error failures. Unlike the
   teacher's formats (physical tape/card image layouts), a buffer file
   is just a flat sequence of 32-bit words, so the two supported
   formats here are CSV-of-decimals and raw little-endian binary,
   chosen by the file extension the way spec'd: .csv/.txt selects CSV,
   anything else selects binary.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package buffer

import (
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format names the on-disk encoding of a buffer data file.
type Format int

const (
	FormatBinary Format = iota
	FormatCSV
)

// FormatForFile selects a buffer file's format from its extension, per
// the external-interface contract: ".csv"/".txt" is CSV, anything else
// is raw little-endian binary.
func FormatForFile(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV
	default:
		return FormatBinary
	}
}

// Load reads a buffer data file into a flat slice of 32-bit words, one
// per buffer element in row-major order.
func Load(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch FormatForFile(path) {
	case FormatCSV:
		return loadCSV(f)
	default:
		return loadBinary(f)
	}
}

// Store writes a flat slice of 32-bit words to a buffer data file in
// the format its extension selects.
func Store(path string, data []uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch FormatForFile(path) {
	case FormatCSV:
		return storeCSV(f, data)
	default:
		return storeBinary(f, data)
	}
}

func loadBinary(f *os.File) ([]uint32, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size()%4 != 0 {
		return nil, fmt.Errorf("buffer file %s: size %d is not a multiple of 4 bytes", f.Name(), info.Size())
	}
	raw := make([]byte, info.Size())
	if _, err := f.Read(raw); err != nil {
		return nil, err
	}
	data := make([]uint32, len(raw)/4)
	for i := range data {
		data[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return data, nil
}

func storeBinary(f *os.File, data []uint32) error {
	raw := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}
	_, err := f.Write(raw)
	return err
}

// loadCSV parses a CSV of decimal (or 0x-hex) words, one per field,
// rows concatenated in order, matching storeCSV's own output shape so
// a round-trip through -o then -i reproduces the same buffer.
func loadCSV(f *os.File) ([]uint32, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var data []uint32
	for _, rec := range records {
		for _, field := range rec {
			v, err := parseCSVWord(field)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
		}
	}
	return data, nil
}

func parseCSVWord(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, errors.New("bad hex buffer value " + s)
		}
		return uint32(v), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("bad decimal buffer value " + s)
	}
	return uint32(int32(v)), nil
}

// storeCSV writes one decimal value per line, interpreting every word
// as a signed 32-bit integer the way a plain numeric dump would.
func storeCSV(f *os.File, data []uint32) error {
	w := csv.NewWriter(f)
	for _, v := range data {
		if err := w.Write([]string{strconv.FormatInt(int64(int32(v)), 10)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
