//go:build test

package elfsym

import (
	"bytes"
	"debug/elf"
	"testing"

	binfiletesting "github.com/isseis/go-privsep-analyzer/internal/binfile/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: ".text", want: ".text"},
		{in: ".ktext.foo.bar", want: ".ktext"},
		{in: ".text.unlikely", want: ".text"},
		{in: ".", want: "."},
		{in: "..odd", want: "."},
		{in: "ktext", want: "ktext"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSectionClassifier_Defaults(t *testing.T) {
	c := NewDefaultSectionClassifier()

	assert.True(t, c.IsPrivileged(".ktext"))
	assert.True(t, c.IsPrivileged(".ktext.entry"))
	assert.True(t, c.IsPrivileged(".bootstrap"))
	assert.True(t, c.IsPrivileged(".krodata.str"))
	assert.False(t, c.IsPrivileged(".text"))
	assert.False(t, c.IsPrivileged("ktext"))

	assert.True(t, c.IsExecutable(".text.hot"))
	assert.True(t, c.IsExecutable(".ktext"))
	assert.False(t, c.IsExecutable(".kdata"))

	assert.Equal(t, Section{Name: ".ktext", Privileged: true, Executable: true}, c.Classify(".ktext.x"))
}

func TestSectionClassifier_CustomNamesAreNormalized(t *testing.T) {
	c := NewSectionClassifier([]string{".secure.text"}, []string{".secure.text", ".text"})
	assert.True(t, c.IsPrivileged(".secure"))
	assert.True(t, c.IsExecutable(".secure.other"))
	assert.False(t, c.IsPrivileged(".text"))
}

func TestSectionClassifier_Gather(t *testing.T) {
	img := binfiletesting.Image{
		Sections: []binfiletesting.Section{
			{Name: ".text", Addr: 0x1000, Data: binfiletesting.X86Ret(), Exec: true},
			{Name: ".ktext", Addr: 0x2000, Data: binfiletesting.X86Ret(), Exec: true},
			{Name: ".ktext.entry", Addr: 0x3000, Data: binfiletesting.X86Ret(), Exec: true},
			{Name: ".kdata", Addr: 0x4000, Data: []byte{1, 2, 3, 4}},
		},
	}
	f, err := elf.NewFile(bytes.NewReader(img.Bytes()))
	require.NoError(t, err)

	got := NewDefaultSectionClassifier().Gather(f)
	assert.Equal(t, Section{Name: ".text", Executable: true}, got[".text"])
	assert.Equal(t, Section{Name: ".ktext", Privileged: true, Executable: true}, got[".ktext"])
	assert.Equal(t, Section{Name: ".kdata", Privileged: true}, got[".kdata"])
	assert.Contains(t, got, ".symtab")
	assert.NotContains(t, got, "")
	assert.NotContains(t, got, ".ktext.entry")
}
