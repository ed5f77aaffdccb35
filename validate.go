package clarity

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// MaxMediaSize is the validation ceiling for video and audio uploads.
	MaxMediaSize = 15 * 1024 * 1024
	// MaxImageSize is the validation ceiling for image uploads.
	MaxImageSize = 5 * 1024 * 1024
	// MaxUploadSize is the absolute transport-level request cap.
	MaxUploadSize = 16 * 1024 * 1024
	// MaxTextLength is the default text limit in characters.
	MaxTextLength = 15000
)

var (
	mediaExtensions = map[string]bool{"mp4": true, "mp3": true, "wav": true}
	imageExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true}
)

const (
	validMessage       = "Valid"
	unknownSizeMessage = "Could not determine the file size. Please upload the file again."
)

// Asset is an uploaded file. Size may be negative when unknown, in which case
// validators measure it by seeking Reader. An asset whose size cannot be
// determined is rejected.
type Asset struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// Extension returns the lowercased suffix after the last dot, or "" when the
// filename has none.
func (a *Asset) Extension() string {
	i := strings.LastIndex(a.Filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(a.Filename[i+1:])
}

// size peeks at the upload's length without consuming it.
func (a *Asset) size() (int64, bool) {
	if a.Size >= 0 {
		return a.Size, true
	}
	s, ok := a.Reader.(io.Seeker)
	if !ok {
		return 0, false
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, false
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return 0, false
	}
	return end, true
}

// ValidateMediaUpload checks a video or audio upload.
func ValidateMediaUpload(a *Asset) (bool, string) {
	if a == nil {
		return false, "No file provided. Please upload a valid video or audio file."
	}
	if !mediaExtensions[a.Extension()] {
		return false, "Invalid file type. We support MP4, MP3, and WAV."
	}
	size, ok := a.size()
	if !ok {
		return false, unknownSizeMessage
	}
	if size > MaxMediaSize {
		return false, fmt.Sprintf("File is too large (%.1fMB). The limit is %dMB.", megabytes(size), MaxMediaSize/1024/1024)
	}
	return true, validMessage
}

// ValidateImageUpload checks a diagram or image upload.
func ValidateImageUpload(a *Asset) (bool, string) {
	if a == nil {
		return false, "No file provided. Please upload an image."
	}
	if !imageExtensions[a.Extension()] {
		return false, "Invalid image type. We support PNG and JPG."
	}
	size, ok := a.size()
	if !ok {
		return false, unknownSizeMessage
	}
	if size > MaxImageSize {
		return false, fmt.Sprintf("Image is too large (%.1fMB). The limit is %dMB.", megabytes(size), MaxImageSize/1024/1024)
	}
	return true, validMessage
}

// ValidateText checks that text is non-blank and at most maxLen characters.
// A maxLen of zero or less uses MaxTextLength.
func ValidateText(text string, maxLen int) (bool, string) {
	if maxLen <= 0 {
		maxLen = MaxTextLength
	}
	if strings.TrimSpace(text) == "" {
		return false, "Please enter some text to process."
	}
	if n := utf8.RuneCountInString(text); n > maxLen {
		return false, fmt.Sprintf("Text is too long (%d chars). Please keep it under %d characters.", n, maxLen)
	}
	return true, validMessage
}

func megabytes(n int64) float64 {
	return float64(n) / 1024 / 1024
}
