package clarity

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMediaUpload(t *testing.T) {
	tests := []struct {
		name    string
		asset   *Asset
		wantOK  bool
		wantMsg string
	}{
		{"missing", nil, false, "No file provided. Please upload a valid video or audio file."},
		{"txt rejected", &Asset{Filename: "notes.txt", Size: 10}, false, "Invalid file type. We support MP4, MP3, and WAV."},
		{"no extension", &Asset{Filename: "lecture", Size: 10}, false, "Invalid file type. We support MP4, MP3, and WAV."},
		{"uppercase ok", &Asset{Filename: "Lecture.MP4", Size: 10}, true, "Valid"},
		{"exactly at limit", &Asset{Filename: "a.wav", Size: MaxMediaSize}, true, "Valid"},
		{"over limit", &Asset{Filename: "a.mp3", Size: 16 * 1024 * 1024}, false, "File is too large (16.0MB). The limit is 15MB."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := ValidateMediaUpload(tt.asset)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestValidateImageUpload(t *testing.T) {
	tests := []struct {
		name    string
		asset   *Asset
		wantOK  bool
		wantMsg string
	}{
		{"missing", nil, false, "No file provided. Please upload an image."},
		{"gif rejected", &Asset{Filename: "a.gif", Size: 10}, false, "Invalid image type. We support PNG and JPG."},
		{"jpeg ok", &Asset{Filename: "a.jpeg", Size: 10}, true, "Valid"},
		{"six megabytes", &Asset{Filename: "a.jpg", Size: 6 * 1024 * 1024}, false, "Image is too large (6.0MB). The limit is 5MB."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := ValidateImageUpload(tt.asset)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestValidateImageUpload_MeasuresSeekableReader(t *testing.T) {
	r := bytes.NewReader(make([]byte, 5*1024*1024+1))
	a := &Asset{Filename: "big.png", Size: -1, Reader: r}

	ok, msg := ValidateImageUpload(a)

	assert.False(t, ok)
	assert.Equal(t, "Image is too large (5.0MB). The limit is 5MB.", msg)
	pos, _ := r.Seek(0, 1)
	assert.Zero(t, pos, "reader rewound after measuring")
}

func TestValidateUpload_UnknownSizeRejected(t *testing.T) {
	// io.MultiReader hides the Seek method of the underlying reader.
	unsized := func(name string) *Asset {
		return &Asset{Filename: name, Size: -1, Reader: io.MultiReader(bytes.NewReader(make([]byte, 32*1024*1024)))}
	}

	ok, msg := ValidateMediaUpload(unsized("lecture.mp4"))
	assert.False(t, ok)
	assert.Equal(t, "Could not determine the file size. Please upload the file again.", msg)

	ok, msg = ValidateImageUpload(unsized("chart.png"))
	assert.False(t, ok)
	assert.Equal(t, "Could not determine the file size. Please upload the file again.", msg)

	ok, _ = ValidateImageUpload(&Asset{Filename: "chart.png", Size: -1})
	assert.False(t, ok, "nil reader with unknown size")
}

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		maxLen  int
		wantOK  bool
		wantMsg string
	}{
		{"empty", "", 0, false, "Please enter some text to process."},
		{"whitespace", " \n\t", 0, false, "Please enter some text to process."},
		{"ok", "hello", 0, true, "Valid"},
		{"at default limit", strings.Repeat("a", MaxTextLength), 0, true, "Valid"},
		{"over default limit", strings.Repeat("a", MaxTextLength+1), 0, false, "Text is too long (15001 chars). Please keep it under 15000 characters."},
		{"custom limit", "abcdef", 5, false, "Text is too long (6 chars). Please keep it under 5 characters."},
		{"counts characters not bytes", strings.Repeat("é", 5), 5, true, "Valid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := ValidateText(tt.text, tt.maxLen)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}
