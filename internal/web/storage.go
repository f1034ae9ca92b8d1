package web

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// storageCSP stops stored files, SVG images in particular, from running
// scripts or loading anything when opened directly.
const storageCSP = "default-src 'none'; style-src 'unsafe-inline'; sandbox"

// serveStorage serves the files in fsys. Directories are never listed,
// they get the same not found response as missing files.
func (s *Server) serveStorage(fsys fs.FS) http.Handler {
	files := http.FileServerFS(fsys)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() {
			s.writeError(w, r, http.StatusNotFound, "Not Found", nil)
			return
		}

		w.Header().Set("Content-Security-Policy", storageCSP)
		w.Header().Set("X-Content-Type-Options", "nosniff")

		files.ServeHTTP(w, r)
	})
}
