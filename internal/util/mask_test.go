package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "o…@e….com", MaskEmail(" Ops@Example.com "))
	assert.Equal(t, "a@b.com", MaskEmail("a@b.com"))
	assert.Equal(t, "***", MaskEmail("nomail"))
	assert.Equal(t, "", MaskEmail(""))
}

func TestMaskEmails(t *testing.T) {
	assert.Equal(t, "o…@e….com,j…@m….ar", MaskEmails([]string{"ops@example.com", "juan@moviles.ar"}))
	assert.Equal(t, "", MaskEmails(nil))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "patAB…", MaskSecret("patABCDEFGH.123456"))
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "", MaskSecret("  "))
}
