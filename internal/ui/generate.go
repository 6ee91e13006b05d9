package ui

//go:generate sh -c "GOOS=js GOARCH=wasm go build -o dist/main.wasm ../../web/gallery"
//go:generate sh -c "cp \"$(go env GOROOT)/misc/wasm/wasm_exec.js\" dist/wasm_exec.js"
