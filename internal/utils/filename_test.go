package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{"i contain cool \u00fcml\u00e4uts.txt", "i_contain_cool_umlauts.txt"},
		{`C:\Users\student\answer.PNG`, "C_Users_student_answer.PNG"},
		{"answer (1).jpg", "answer_1.jpg"},
		{"__hidden.png", "hidden.png"},
		{"CON.png", "_CON.png"},
		{"\u7b54\u6848.png", "png"},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, SecureFilename(tc.in))
		})
	}
}

func TestFileExtension(t *testing.T) {
	assert.Equal(t, "png", FileExtension("scan.PNG"))
	assert.Equal(t, "jpeg", FileExtension("photo.final.JPeg"))
	assert.Equal(t, "", FileExtension("noextension"))
	assert.Equal(t, "", FileExtension("trailingdot."))
}

func TestGenerateStorageKey(t *testing.T) {
	t.Run("unique keys differ for the same name", func(t *testing.T) {
		a := GenerateStorageKey("answer.png", true)
		b := GenerateStorageKey("answer.png", true)
		assert.NotEqual(t, a, b)
		assert.True(t, strings.HasSuffix(a, "_answer.png"))
		assert.Len(t, a, 36+1+len("answer.png"))
	})

	t.Run("shared keys reuse the sanitized name", func(t *testing.T) {
		assert.Equal(t, "answer.png", GenerateStorageKey("../answer.png", false))
	})

	t.Run("names that sanitize to nothing get a fallback", func(t *testing.T) {
		assert.Equal(t, fallbackUploadName, GenerateStorageKey("...", false))
	})
}
