package api

import (
	"bytes"
	"path/filepath"
	"strings"
)

const (
	MIMETypePDF  = "application/pdf"
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeTIFF = "image/tiff"
	MIMETypeWEBP = "image/webp"
	MIMETypeBMP  = "image/bmp"
)

//nolint:gochecknoglobals
var (
	documentExtTypes = map[string]string{
		".pdf":  MIMETypePDF,
		".jpg":  MIMETypeJPEG,
		".jpeg": MIMETypeJPEG,
		".png":  MIMETypePNG,
		".tiff": MIMETypeTIFF,
		".tif":  MIMETypeTIFF,
		".webp": MIMETypeWEBP,
		".bmp":  MIMETypeBMP,
	}

	documentHeaders = map[string][]string{
		MIMETypePDF:  {"%PDF-"},
		MIMETypeJPEG: {"\xFF\xD8"},
		MIMETypePNG:  {"\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"},
		MIMETypeTIFF: {"\x49\x49\x2A\x00", "\x4D\x4D\x00\x2A"},
		MIMETypeBMP:  {"BM"},
	}

	// imageTypes lists the types probed with image.DecodeConfig.
	imageTypes = map[string]bool{
		MIMETypeJPEG: true,
		MIMETypePNG:  true,
		MIMETypeTIFF: true,
		MIMETypeWEBP: true,
		MIMETypeBMP:  true,
	}
)

func typeByFilename(filename string) (string, bool) {
	mimeType, ok := documentExtTypes[strings.ToLower(filepath.Ext(filename))]

	return mimeType, ok
}

// matchesHeader reports whether data starts with a magic header of mimeType.
// WEBP is a RIFF container, so its marker sits at offset 8.
func matchesHeader(mimeType string, data []byte) bool {
	if mimeType == MIMETypeWEBP {
		return len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP"
	}

	for _, header := range documentHeaders[mimeType] {
		if bytes.HasPrefix(data, []byte(header)) {
			return true
		}
	}

	return false
}
