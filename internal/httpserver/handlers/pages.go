package handlers

import (
	"net/http"
	"path"
	"path/filepath"

	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
)

// Pages serves the front-end build found in d.StaticDir. Paths that are
// not files get index.html so client-side routes resolve. Without a
// directory every page is a 404.
func Pages(d deps.Deps) http.HandlerFunc {
	if d.StaticDir == "" {
		return http.NotFound
	}

	root := http.Dir(d.StaticDir)
	files := http.FileServer(root)
	index := filepath.Join(d.StaticDir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if isFile(root, path.Clean("/"+r.URL.Path)) {
			files.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, index)
	}
}

func isFile(root http.FileSystem, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	st, err := f.Stat()
	return err == nil && !st.IsDir()
}
