package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{"i contain cool ümläuts.txt", "i_contain_cool_umlauts.txt"},
		{"Señora Peña.JPG", "Senora_Pena.JPG"},
		{"naïve café.png", "naive_cafe.png"},
		{`C:\Users\ana\obra.png`, "C_Users_ana_obra.png"},
		{"..", ""},
		{"../", ""},
		{"日本.png", "png"},
		{"  .hidden.png  ", "hidden.png"},
		{"a;b|c$.gif", "abc.gif"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SecureFilename(tt.in))
		})
	}
}

func TestGetImageContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", GetImageContentType("a.JPG"))
	assert.Equal(t, "image/jpeg", GetImageContentType("a.jpeg"))
	assert.Equal(t, "image/png", GetImageContentType("a.png"))
	assert.Equal(t, "image/gif", GetImageContentType("a.gif"))
	assert.Equal(t, "application/octet-stream", GetImageContentType("a"))
}

func TestNormaliseEndpoint(t *testing.T) {
	host, secure, err := normaliseEndpoint("minio:9000")
	assert.NoError(t, err)
	assert.Equal(t, "minio:9000", host)
	assert.False(t, secure)

	host, secure, err = normaliseEndpoint("https://s3.example.com/")
	assert.NoError(t, err)
	assert.Equal(t, "s3.example.com", host)
	assert.True(t, secure)

	_, _, err = normaliseEndpoint("http://minio:9000/bucket")
	assert.Error(t, err)

	_, _, err = normaliseEndpoint("  ")
	assert.Error(t, err)
}
