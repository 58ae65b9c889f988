//go:build test

package binfiletesting

// Addresses of the functions in SampleImage.
const (
	SampleMain    = 0x401000
	SampleHelper  = 0x401100
	SampleElevate = 0x401200
	SampleLower   = 0x401210
	SampleKop     = 0x402000
	SampleKinit   = 0x402010
)

// SampleImage returns an x86-64 binary with one violation and one warning:
//
//	main   (.text)  -> helper, elevate, kop [elevated], lower
//	helper (.text)  -> kop                      violation
//	kinit  (.ktext) -> kop                      warning
//
// The elevation primitives carry mangled C++ names.
func SampleImage() Image {
	mainCode := Concat(
		X86Call(SampleMain, SampleHelper),
		X86Call(SampleMain+5, SampleElevate),
		X86Call(SampleMain+10, SampleKop),
		X86Call(SampleMain+15, SampleLower),
		X86Ret(),
	)
	helperCode := Concat(X86Call(SampleHelper, SampleKop), X86Ret())
	kinitCode := Concat(X86Call(SampleKinit, SampleKop), X86Ret())

	text := make([]byte, 0x220)
	copy(text, mainCode)
	copy(text[SampleHelper-SampleMain:], helperCode)
	copy(text[SampleElevate-SampleMain:], X86Ret())
	copy(text[SampleLower-SampleMain:], X86Ret())

	ktext := make([]byte, 0x20)
	copy(ktext, X86Ret())
	copy(ktext[SampleKinit-SampleKop:], kinitCode)

	return Image{
		Sections: []Section{
			{Name: ".text", Addr: SampleMain, Data: text, Exec: true},
			{Name: ".ktext", Addr: SampleKop, Data: ktext, Exec: true},
			{Name: ".kdata", Addr: 0x403000, Data: make([]byte, 16)},
		},
		Symbols: []Symbol{
			{Name: "main", Section: ".text", Value: SampleMain, Size: uint64(len(mainCode))},
			{Name: "helper", Section: ".text", Value: SampleHelper, Size: uint64(len(helperCode))},
			{Name: "_ZN7dynpriv7elevateEv", Section: ".text", Value: SampleElevate, Size: 1},
			{Name: "_ZN7dynpriv5lowerEv", Section: ".text", Value: SampleLower, Size: 1},
			{Name: "kop", Section: ".ktext", Value: SampleKop, Size: 1},
			{Name: "kinit", Section: ".ktext", Value: SampleKinit, Size: uint64(len(kinitCode))},
			{Name: "kernel_table", Section: ".kdata", Value: 0x403000, Size: 16},
		},
	}
}
