// Package decoder turns fetched forecast payloads into in-memory grids.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/wave-forecasts/internal/adapter/grid"
	"go.ngs.io/wave-forecasts/internal/domain"
)

// ErrUnsupportedLayout is returned for variables that are not a single lat/lon slab.
var ErrUnsupportedLayout = errors.New("unsupported variable layout")

// Decoder decodes one forecast-hour payload into a grid.
type Decoder interface {
	Decode(ctx context.Context, payload []byte) (*grid.Grid, error)
}

// DefaultFieldAliases maps logical field names to variable names tried in order.
// Short names come first, then the names wgrib2 writes to NetCDF.
func DefaultFieldAliases() map[string][]string {
	return map[string][]string{
		domain.FieldWaveHeight: {"swh", "HTSGW_surface", "HTSGW"},
		domain.FieldPeriod:     {"per", "PERPW_surface", "PERPW"},
		domain.FieldDirection:  {"dir", "DIRPW_surface", "DIRPW"},
		domain.FieldWindU:      {"uwnd10", "u10", "UGRD_surface", "UGRD_10maboveground", "UGRD"},
		domain.FieldWindV:      {"vwnd10", "v10", "VGRD_surface", "VGRD_10maboveground", "VGRD"},
	}
}

// NetCDFDecoder reads grids from NetCDF files.
type NetCDFDecoder struct {
	stagingDir string
	aliases    map[string][]string
}

// NewNetCDFDecoder creates a NetCDF decoder staging payloads under stagingDir.
// A nil alias map uses DefaultFieldAliases.
func NewNetCDFDecoder(stagingDir string, aliases map[string][]string) *NetCDFDecoder {
	if aliases == nil {
		aliases = DefaultFieldAliases()
	}
	return &NetCDFDecoder{
		stagingDir: stagingDir,
		aliases:    aliases,
	}
}

// Decode stages payload to a temporary file and decodes it.
func (d *NetCDFDecoder) Decode(_ context.Context, payload []byte) (*grid.Grid, error) {
	path, err := stage(d.stagingDir, "wave-*.nc", payload)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(path) }()

	return d.DecodeFile(path)
}

// DecodeFile reads axes, valid time and every aliased field present in a NetCDF file.
// Fields absent from the file are left out of the grid.
func (d *NetCDFDecoder) DecodeFile(path string) (*grid.Grid, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	latNames := []string{"latitude", "lat", "y"}
	lonNames := []string{"longitude", "lon", "x"}

	latData, err := readAxis(nc, latNames)
	if err != nil {
		return nil, fmt.Errorf("latitude variable not found (tried: %v): %w", latNames, err)
	}
	lonData, err := readAxis(nc, lonNames)
	if err != nil {
		return nil, fmt.Errorf("longitude variable not found (tried: %v): %w", lonNames, err)
	}
	for i, lon := range lonData {
		lonData[i] = grid.NormalizeLon360(lon)
	}

	validTime, err := readValidTime(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to read valid time: %w", err)
	}

	g := &grid.Grid{
		Lat:       latData,
		Lon:       lonData,
		ValidTime: validTime,
		Fields:    make(map[string][][]float64, len(d.aliases)),
	}

	for field, names := range d.aliases {
		v, ok := findVar(nc, names)
		if !ok {
			continue
		}
		values, err := readField(v, len(latData), len(lonData))
		if err != nil {
			return nil, fmt.Errorf("failed to read field %s: %w", field, err)
		}
		g.Fields[field] = values
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	return g, nil
}

func findVar(nc netcdf.Dataset, names []string) (netcdf.Var, bool) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, true
		}
	}
	return netcdf.Var{}, false
}

func readAxis(nc netcdf.Dataset, names []string) ([]float64, error) {
	v, ok := findVar(nc, names)
	if !ok {
		return nil, errors.New("not found")
	}
	return readFloat64Var(v)
}

// readValidTime reads the first value of the "time" variable and converts it using
// its CF-style units attribute ("<unit> since <reference>").
func readValidTime(nc netcdf.Dataset) (time.Time, error) {
	v, ok := findVar(nc, []string{"time", "valid_time"})
	if !ok {
		return time.Time{}, errors.New("time variable not found")
	}
	values, err := readFloat64Var(v)
	if err != nil {
		return time.Time{}, err
	}
	if len(values) == 0 {
		return time.Time{}, errors.New("time variable is empty")
	}
	units, err := readTextAttr(v, "units")
	if err != nil {
		return time.Time{}, fmt.Errorf("time units: %w", err)
	}
	return parseCFTime(values[0], units)
}

func readTextAttr(v netcdf.Var, name string) (string, error) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

// parseCFTime converts an offset in CF time units to a UTC time.
func parseCFTime(value float64, units string) (time.Time, error) {
	parts := strings.SplitN(units, " since ", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("unrecognized time units %q", units)
	}

	var unit time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "seconds", "second", "s":
		unit = time.Second
	case "minutes", "minute":
		unit = time.Minute
	case "hours", "hour", "h":
		unit = time.Hour
	case "days", "day":
		unit = 24 * time.Hour
	default:
		return time.Time{}, fmt.Errorf("unrecognized time unit %q", parts[0])
	}

	ref, err := parseReferenceTime(parts[1])
	if err != nil {
		return time.Time{}, err
	}
	offset := time.Duration(math.Round(value * float64(unit)))
	return ref.Add(offset).UTC(), nil
}

func parseReferenceTime(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.Replace(s, "T", " ", 1))
	s = strings.TrimSuffix(s, "Z")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}, errors.New("empty reference time")
	}

	date, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q: %w", fields[0], err)
	}
	if len(fields) == 1 {
		return date, nil
	}

	clock, err := time.Parse("15:04:05", fields[1])
	if err != nil {
		clock, err = time.Parse("15:04", fields[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid reference time %q: %w", fields[1], err)
		}
	}
	// Any trailing zone offset is ignored; model output is referenced to UTC.
	return date.Add(time.Duration(clock.Hour())*time.Hour +
		time.Duration(clock.Minute())*time.Minute +
		time.Duration(clock.Second())*time.Second +
		time.Duration(clock.Nanosecond())), nil
}

// readField reads a [lat, lon], [lon, lat] or [1, lat, lon] variable as [lat][lon].
// Fill values become NaN.
func readField(v netcdf.Var, nLat, nLon int) ([][]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}

	lens := make([]uint64, 0, len(dims))
	for i, dim := range dims {
		n, err := dim.Len()
		if err != nil {
			return nil, fmt.Errorf("failed to get dim%d length: %w", i, err)
		}
		lens = append(lens, n)
	}

	// Drop a leading time dimension of length one.
	if len(lens) == 3 {
		if lens[0] != 1 {
			return nil, fmt.Errorf("%w: %d time steps in one file", ErrUnsupportedLayout, lens[0])
		}
		lens = lens[1:]
	}
	if len(lens) != 2 {
		return nil, fmt.Errorf("%w: expected 2D data, got %dD", ErrUnsupportedLayout, len(dims))
	}

	flat, err := readFlatFloat64s(v, nLat*nLon)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	if fv, ok := getFillValue(v); ok {
		for i, val := range flat {
			if val == fv {
				flat[i] = math.NaN()
			}
		}
	}

	type dimOrder struct{ d0, d1 uint64 }
	switch (dimOrder{lens[0], lens[1]}) {
	case dimOrder{uint64(nLat), uint64(nLon)}:
		return reshape(flat, nLat, nLon), nil
	case dimOrder{uint64(nLon), uint64(nLat)}:
		return transpose2D(reshape(flat, nLon, nLat)), nil
	default:
		return nil, fmt.Errorf("%w: data is [%d, %d], expected [%d, %d] or [%d, %d]",
			ErrUnsupportedLayout, lens[0], lens[1], nLat, nLon, nLon, nLat)
	}
}

// getFillValue returns the _FillValue or missing_value attribute if present as float64.
func getFillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if n, err := a.Len(); err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
		bufi := make([]int32, 1)
		if err := a.ReadInt32s(bufi); err == nil {
			return float64(bufi[0]), true
		}
	}
	return 0, false
}

// readFloat64Var reads a 1D variable as float64.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	return readFlatFloat64s(v, int(length))
}

// readFlatFloat64s reads n values of a numeric variable, converting to float64.
func readFlatFloat64s(v netcdf.Var, n int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	out := make([]float64, n)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		tmp := make([]float32, n)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, n)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, n)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
	return out, nil
}

func reshape(flat []float64, nRows, nCols int) [][]float64 {
	values := make([][]float64, nRows)
	for i := 0; i < nRows; i++ {
		values[i] = flat[i*nCols : (i+1)*nCols]
	}
	return values
}

// transpose2D transposes a 2D array.
func transpose2D(data [][]float64) [][]float64 {
	if len(data) == 0 {
		return data
	}

	nRows := len(data)
	nCols := len(data[0])

	transposed := make([][]float64, nCols)
	for i := 0; i < nCols; i++ {
		transposed[i] = make([]float64, nRows)
		for j := 0; j < nRows; j++ {
			transposed[i][j] = data[j][i]
		}
	}

	return transposed
}

// stage writes payload to a new temporary file under dir and returns its path.
func stage(dir, pattern string, payload []byte) (string, error) {
	if dir != "" {
		//nolint:gosec // G301: Staging directory shared with external tools.
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create staging directory: %w", err)
		}
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to close staging file: %w", err)
	}
	return f.Name(), nil
}
