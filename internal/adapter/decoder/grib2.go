package decoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.ngs.io/wave-forecasts/internal/adapter/grid"
)

// GRIB2Decoder converts GRIB2 payloads to NetCDF with wgrib2 and decodes the result.
type GRIB2Decoder struct {
	wgrib2     string
	stagingDir string
	netcdf     *NetCDFDecoder
}

// NewGRIB2Decoder creates a decoder running the wgrib2 binary at wgrib2Path
// (looked up on PATH when it has no separator).
func NewGRIB2Decoder(wgrib2Path, stagingDir string, aliases map[string][]string) *GRIB2Decoder {
	if wgrib2Path == "" {
		wgrib2Path = "wgrib2"
	}
	return &GRIB2Decoder{
		wgrib2:     wgrib2Path,
		stagingDir: stagingDir,
		netcdf:     NewNetCDFDecoder(stagingDir, aliases),
	}
}

// Decode stages the GRIB2 payload, converts it and decodes the NetCDF output.
// Staged files are removed before returning.
func (d *GRIB2Decoder) Decode(ctx context.Context, payload []byte) (*grid.Grid, error) {
	if !bytes.HasPrefix(payload, []byte("GRIB")) {
		return nil, fmt.Errorf("payload is not GRIB data (%d bytes)", len(payload))
	}

	gribPath, err := stage(d.stagingDir, "wave-*.grib2", payload)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(gribPath) }()

	ncPath := strings.TrimSuffix(gribPath, ".grib2") + ".nc"
	defer func() { _ = os.Remove(ncPath) }()

	//nolint:gosec // G204: Binary path comes from configuration.
	cmd := exec.CommandContext(ctx, d.wgrib2, gribPath, "-netcdf", ncPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("wgrib2 failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return d.netcdf.DecodeFile(ncPath)
}
