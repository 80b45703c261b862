package main

import (
	"path/filepath"
	"strings"
)

type FileType string

const (
	JPEG FileType = "jpeg"
	TIFF FileType = "tiff"
	RAW  FileType = "raw"
	PNG  FileType = "png"
	HEIF FileType = "heif"
	WEBP FileType = "webp"

	MP4     FileType = "mp4"
	MOV     FileType = "mov"
	M4V     FileType = "m4v"
	THREEGP FileType = "3gp"
	THREEG2 FileType = "3g2"
)

// Container is the metadata layout a file type carries its capture time in
type Container string

const (
	// ExifContainer covers JPEG, TIFF, the TIFF based raw formats, PNG, WebP
	// and HEIF. The exact layout is sniffed from the file contents.
	ExifContainer Container = "exif"
	// ISOBMFFContainer covers files whose capture time sits in moov/mvhd
	ISOBMFFContainer Container = "isobmff"
)

var fileExtensionToFileType = map[string]FileType{
	"jpg": JPEG, "jpeg": JPEG, "jpe": JPEG, "jif": JPEG, "jfif": JPEG, "jfi": JPEG,
	"tiff": TIFF, "tif": TIFF,
	"arw": RAW, "cr2": RAW, "dng": RAW, "erf": RAW, "kdc": RAW, "mrw": RAW,
	"nef": RAW, "orf": RAW, "pef": RAW, "raw": RAW, "rw2": RAW, "sr2": RAW, "srf": RAW,
	"png":  PNG,
	"heif": HEIF, "heic": HEIF, "hif": HEIF, "avif": HEIF,
	"webp": WEBP,

	"mp4": MP4,
	"mov": MOV,
	"m4v": M4V,
	"3gp": THREEGP,
	"3g2": THREEG2,
}

var fileTypeToContainer = map[FileType]Container{
	MP4:     ISOBMFFContainer,
	MOV:     ISOBMFFContainer,
	M4V:     ISOBMFFContainer,
	THREEGP: ISOBMFFContainer,
	THREEG2: ISOBMFFContainer,
}

// getFileType returns the file type for path, or "" when the extension is unknown
func getFileType(path string) FileType {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	return fileExtensionToFileType[ext[1:]]
}

// getContainer picks the metadata reader for path. Anything that is not a
// known ISO base media file is tried as an EXIF container.
func getContainer(path string) Container {
	if c, ok := fileTypeToContainer[getFileType(path)]; ok {
		return c
	}
	return ExifContainer
}
