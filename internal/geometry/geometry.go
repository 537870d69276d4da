// Package geometry resolves the pixel-exact target description for a device:
// dimensions, rotation, bit depth, palette size and container format.
package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inkwell-labs/inkwell/internal/model"
)

// Native panel geometry. Rasters produced at this geometry are shareable
// between devices; anything else gets its own cache scope.
const (
	DefaultWidth  = 800
	DefaultHeight = 480
)

// Container formats handed to the image codec.
const (
	FormatBMP = "bmp3" // legacy 1-bit container
	FormatPNG = "png"  // multi-depth container
)

// legacyFirmwareCeiling is the first firmware version that understands the
// PNG container. Devices reporting anything older get BMP.
const legacyFirmwareCeiling = "1.5.0"

// Screen is the fully resolved target descriptor for one render.
type Screen struct {
	Width       int
	Height      int
	Rotation    int
	BitDepth    int
	Colors      int
	ScaleFactor float64
	OffsetX     int
	OffsetY     int
	Format      string
}

// Resolve builds the target descriptor for a device. Precedence per field:
// device override, then device model, then the 800x480 1-bit default.
// dm may be nil for devices without a model.
func Resolve(d *model.Device, dm *model.DeviceModel) Screen {
	s := Screen{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		BitDepth:    1,
		Colors:      2,
		ScaleFactor: 1.0,
		Format:      formatForFirmware(d.FirmwareVersion),
	}
	if dm != nil {
		s.Width = dm.Width
		s.Height = dm.Height
		s.Rotation = dm.Rotation
		s.BitDepth = dm.BitDepth
		s.Colors = dm.Colors
		s.OffsetX = dm.OffsetX
		s.OffsetY = dm.OffsetY
		if dm.ScaleFactor > 0 {
			s.ScaleFactor = dm.ScaleFactor
		}
		if f := formatForMime(dm.MimeType); f != "" {
			s.Format = f
		}
	}
	if d.Width != nil {
		s.Width = *d.Width
	}
	if d.Height != nil {
		s.Height = *d.Height
	}
	if d.Rotation != nil {
		s.Rotation = *d.Rotation
	}
	if d.ImageFormat != nil && *d.ImageFormat != "" {
		s.Format = *d.ImageFormat
	}
	return s
}

// Class returns the cache scope for a geometry. Only the native, unrotated
// panel shares the "standard" scope.
func (s Screen) Class() string {
	if s.Width == DefaultWidth && s.Height == DefaultHeight && s.Rotation == 0 {
		return "standard"
	}
	return fmt.Sprintf("%dx%d_r%d", s.Width, s.Height, s.Rotation)
}

// IsStandard reports whether the geometry shares the default cache scope.
func (s Screen) IsStandard() bool {
	return s.Class() == "standard"
}

// Ext is the file extension for the target container.
func (s Screen) Ext() string {
	if s.Format == FormatBMP {
		return "bmp"
	}
	return "png"
}

// MimeType is the content type for the target container.
func (s Screen) MimeType() string {
	if s.Format == FormatBMP {
		return "image/bmp"
	}
	return "image/png"
}

func formatForMime(mime string) string {
	switch mime {
	case "image/bmp", "image/x-bmp":
		return FormatBMP
	case "image/png":
		return FormatPNG
	}
	return ""
}

// formatForFirmware infers the container for model-less devices: firmware
// below the ceiling only understands the legacy BMP container.
func formatForFirmware(version *string) string {
	if version == nil || *version == "" {
		return FormatPNG
	}
	if compareVersions(*version, legacyFirmwareCeiling) < 0 {
		return FormatBMP
	}
	return FormatPNG
}

// compareVersions compares dotted numeric versions; non-numeric segments
// compare as zero.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
