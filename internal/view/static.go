package view

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static
var staticFS embed.FS

// Static serves /static/* from dir when set, otherwise from the assets
// compiled into the binary.
func Static(dir string) http.Handler {
	if strings.TrimSpace(dir) != "" {
		return http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	}
	sub, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
