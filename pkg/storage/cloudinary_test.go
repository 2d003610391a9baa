package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFor(t *testing.T) {
	assert.Equal(t, KindImage, KindFor("beach.JPG"))
	assert.Equal(t, KindVideo, KindFor("party.mov"))
	assert.Equal(t, "", KindFor("notes.pdf"))
	assert.Equal(t, "", KindFor("noext"))
}

func TestExtractPublicID(t *testing.T) {
	cases := []struct {
		url, id, kind string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/memories/beach.webp", "memories/beach", "image"},
		{"https://res.cloudinary.com/demo/video/upload/memories/clip.mp4", "memories/clip", "video"},
		{"https://res.cloudinary.com/demo/image/upload/vacation/v2.jpg", "vacation/v2", "image"},
		{"https://example.com/not/cloudinary.png", "", ""},
		{"https://res.cloudinary.com/demo/image/upload/v1712", "", ""},
	}

	for _, tc := range cases {
		id, kind := ExtractPublicID(tc.url)
		assert.Equal(t, tc.id, id, tc.url)
		assert.Equal(t, tc.kind, kind, tc.url)
	}
}
