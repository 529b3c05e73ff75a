// Package web embeds the Telegram mini-app.
package web

import (
	"embed"
	"io/fs"
)

//go:embed mini-app
var files embed.FS

// IndexHTML is the mini-app page.
func IndexHTML() ([]byte, error) {
	return fs.ReadFile(files, "mini-app/index.html")
}

// Assets is the mini-app directory, served under /assets.
func Assets() fs.FS {
	sub, err := fs.Sub(files, "mini-app")
	if err != nil {
		// Only fails for an invalid path literal.
		panic(err)
	}
	return sub
}
