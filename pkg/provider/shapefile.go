// Copyright 2025 Shadow Atlas Contributors
//
// Minimal ESRI Shapefile (.shp/.dbf inside a .zip) reader. No shapefile
// library appears anywhere in the retrieval pack's dependency surface, so
// this is a deliberately small, stdlib-only reader covering exactly the
// polygon/polygonZ record types and DBF fields TIGER/Line products use
// (see the shapefile.go note under pkg/provider in DESIGN.md).

package provider

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

// ShapefileParser extracts Boundary records (ID + Geometry only; Source and
// Authority are stamped by the calling provider) from a zipped shapefile.
type ShapefileParser struct {
	// GEOIDField names the DBF column carrying the boundary's GEOID.
	// Defaults to "GEOID" if empty.
	GEOIDField string
}

const (
	shpPolygon   = 5
	shpPolygonZ  = 15
	shpHeaderLen = 100
)

// Parse reads a zip archive containing one .shp and one .dbf member and
// returns the boundaries described by it. layer is used only in error
// messages.
func (p ShapefileParser) Parse(zipBytes []byte, layer boundary.Type) ([]*boundary.Boundary, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, fmt.Errorf("shapefile: open zip: %w", err)
	}

	var shpData, dbfData []byte
	for _, f := range zr.File {
		lower := strings.ToLower(f.Name)
		if strings.HasSuffix(lower, ".shp") {
			shpData, err = readZipFile(f)
		} else if strings.HasSuffix(lower, ".dbf") {
			dbfData, err = readZipFile(f)
		}
		if err != nil {
			return nil, fmt.Errorf("shapefile: read %s: %w", f.Name, err)
		}
	}
	if shpData == nil || dbfData == nil {
		return nil, fmt.Errorf("shapefile: %s layer archive missing .shp or .dbf member", layer)
	}

	geoms, err := parseSHP(shpData)
	if err != nil {
		return nil, fmt.Errorf("shapefile: parse .shp: %w", err)
	}
	geoidField := p.GEOIDField
	if geoidField == "" {
		geoidField = "GEOID"
	}
	records, fields, err := parseDBF(dbfData)
	if err != nil {
		return nil, fmt.Errorf("shapefile: parse .dbf: %w", err)
	}
	idIdx := -1
	for i, name := range fields {
		if strings.EqualFold(name, geoidField) {
			idIdx = i
			break
		}
	}
	if idIdx == -1 {
		return nil, fmt.Errorf("shapefile: field %q not found in .dbf", geoidField)
	}
	if len(records) != len(geoms) {
		return nil, fmt.Errorf("shapefile: %d dbf records but %d shapes", len(records), len(geoms))
	}

	out := make([]*boundary.Boundary, 0, len(geoms))
	for i, g := range geoms {
		out = append(out, &boundary.Boundary{
			ID:           strings.TrimSpace(records[i][idIdx]),
			BoundaryType: layer,
			Geometry:     g,
		})
	}
	return out, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parseSHP reads the polygon (type 5) and polygonZ (type 15, Z ignored)
// records of a .shp file into Geometry values. Ring winding is not
// normalized here; pkg/merkle's canonical WKB encoder forces it downstream.
func parseSHP(data []byte) ([]boundary.Geometry, error) {
	if len(data) < shpHeaderLen {
		return nil, fmt.Errorf("file too short for shapefile header")
	}
	var out []boundary.Geometry
	offset := shpHeaderLen
	for offset+8 <= len(data) {
		// record header: big-endian record number + content length (in 16-bit words)
		contentWords := binary.BigEndian.Uint32(data[offset+4 : offset+8])
		contentLen := int(contentWords) * 2
		recStart := offset + 8
		recEnd := recStart + contentLen
		if recEnd > len(data) {
			break
		}
		rec := data[recStart:recEnd]
		if len(rec) < 4 {
			offset = recEnd
			continue
		}
		shapeType := binary.LittleEndian.Uint32(rec[0:4])
		if shapeType == shpPolygon || shapeType == shpPolygonZ {
			g, err := decodePolygonRecord(rec)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		} else {
			out = append(out, boundary.Geometry{})
		}
		offset = recEnd
	}
	return out, nil
}

func decodePolygonRecord(rec []byte) (boundary.Geometry, error) {
	if len(rec) < 44 {
		return boundary.Geometry{}, fmt.Errorf("polygon record too short")
	}
	numParts := int(binary.LittleEndian.Uint32(rec[36:40]))
	numPoints := int(binary.LittleEndian.Uint32(rec[40:44]))
	partsOff := 44
	pointsOff := partsOff + numParts*4
	if pointsOff+numPoints*16 > len(rec) {
		return boundary.Geometry{}, fmt.Errorf("polygon record truncated")
	}
	parts := make([]int, numParts)
	for i := 0; i < numParts; i++ {
		parts[i] = int(binary.LittleEndian.Uint32(rec[partsOff+i*4 : partsOff+i*4+4]))
	}
	points := make([][2]float64, numPoints)
	for i := 0; i < numPoints; i++ {
		o := pointsOff + i*16
		x := bitsToFloat64(binary.LittleEndian.Uint64(rec[o : o+8]))
		y := bitsToFloat64(binary.LittleEndian.Uint64(rec[o+8 : o+16]))
		points[i] = [2]float64{x, y}
	}

	var rings []boundary.Ring
	for i := 0; i < numParts; i++ {
		start := parts[i]
		end := numPoints
		if i+1 < numParts {
			end = parts[i+1]
		}
		ring := make(boundary.Ring, 0, end-start)
		for _, pt := range points[start:end] {
			ring = append(ring, pt)
		}
		rings = append(rings, ring)
	}
	// Shapefile polygons store all rings flat; TIGER/Line emits exactly one
	// outer ring per shape with holes following it, so a single polygon
	// wrapping all rings matches TIGER's convention.
	return boundary.Geometry{Polygons: [][]boundary.Ring{rings}}, nil
}

func bitsToFloat64(bits uint64) float64 {
	return math.Float64frombits(bits)
}

// parseDBF reads a dBASE III file's field names and records as raw strings;
// TIGER/Line and municipal exports never use memo or numeric-packed fields
// for GEOID columns, so no type coercion beyond trimming is needed.
func parseDBF(data []byte) ([][]string, []string, error) {
	if len(data) < 32 {
		return nil, nil, fmt.Errorf("dbf header too short")
	}
	headerLen := int(binary.LittleEndian.Uint16(data[8:10]))
	recordLen := int(binary.LittleEndian.Uint16(data[10:12]))
	numRecords := int(binary.LittleEndian.Uint32(data[4:8]))

	var fields []string
	var fieldLens []int
	for off := 32; off+1 < headerLen && data[off] != 0x0D; off += 32 {
		name := strings.TrimRight(string(data[off:off+11]), "\x00")
		length := int(data[off+16])
		fields = append(fields, name)
		fieldLens = append(fieldLens, length)
	}

	records := make([][]string, 0, numRecords)
	recStart := headerLen
	for r := 0; r < numRecords; r++ {
		start := recStart + r*recordLen
		if start+recordLen > len(data) {
			break
		}
		row := data[start : start+recordLen]
		if len(row) > 0 && row[0] == '*' {
			continue // deleted record
		}
		fieldOff := 1 // leading deletion flag byte
		rec := make([]string, len(fields))
		for i, l := range fieldLens {
			if fieldOff+l > len(row) {
				break
			}
			rec[i] = strings.TrimSpace(string(row[fieldOff : fieldOff+l]))
			fieldOff += l
		}
		records = append(records, rec)
	}
	return records, fields, nil
}
