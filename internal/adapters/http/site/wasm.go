package site

import (
	"embed"
	"io/fs"
)

//go:generate sh -c "GOOS=js GOARCH=wasm go build -trimpath -o wasm/reveal.wasm github.com/okian/delhihouse/cmd/revealwasm && cp $GOROOT/lib/wasm/wasm_exec.js wasm/"

// wasm holds the browser reveal engine once go generate has built it. Until
// then pages fall back to the frame API.
//
//go:embed all:wasm
var wasmFS embed.FS

const (
	engineBinary = "reveal.wasm"
	engineLoader = "wasm_exec.js"
	enginePrefix = "/static/wasm/"
)

// WithRevealEngine serves the browser reveal engine from fsys instead of the
// embedded build. fsys must hold reveal.wasm and wasm_exec.js at its root.
func WithRevealEngine(fsys fs.FS) HandlerOption {
	return func(h *Handler) { h.engine = fsys }
}

func embeddedEngine() fs.FS {
	sub, err := fs.Sub(wasmFS, "wasm")
	if err != nil {
		panic(err)
	}
	return sub
}

func hasEngine(fsys fs.FS) bool {
	if fsys == nil {
		return false
	}
	for _, name := range []string{engineBinary, engineLoader} {
		if _, err := fs.Stat(fsys, name); err != nil {
			return false
		}
	}
	return true
}
