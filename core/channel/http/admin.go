package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/contentgate/pkg/jsonapi"
)

const (
	adminRoot   = "/admin"
	adminInit   = "/admin/init"
	adminSignin = "/admin/signin"
)

// adminRoutes serves the admin routing state machine. No UI is rendered:
// pages answer with the page they resolve to, everything else redirects.
//
//	setup required:   /admin/init → page, anything else → /admin/init
//	signed out:       /admin/signin → page, anything else → /admin/signin?from=...
//	signed in:        /admin/init and /admin/signin redirect away
func (c *Channel) adminRoutes(r chi.Router) {
	r.Get("/", c.handleAdmin)
	r.Get("/*", c.handleAdmin)
}

func (c *Channel) handleAdmin(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "" {
		path = adminRoot
	}

	required, err := c.setupRequired(r)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	if required {
		if path == adminInit {
			writeJSON(w, http.StatusOK, map[string]any{"page": "init"})
			return
		}
		http.Redirect(w, r, adminInit, http.StatusFound)
		return
	}
	if path == adminInit {
		http.Redirect(w, r, adminRoot, http.StatusFound)
		return
	}

	_, signedIn := sessionOf(r).Session()
	if !signedIn {
		if path == adminSignin {
			writeJSON(w, http.StatusOK, map[string]any{"page": "signin"})
			return
		}
		http.Redirect(w, r, adminSignin+"?from="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
		return
	}
	if path == adminSignin {
		http.Redirect(w, r, safeRedirect(r.URL.Query().Get("from")), http.StatusFound)
		return
	}

	page, ok := c.adminPage(path)
	if !ok {
		jsonapi.WriteNotFound(w, "page")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// adminPage resolves /admin, /admin/{path}, /admin/{path}/create and
// /admin/{path}/{id}.
func (c *Channel) adminPage(path string) (map[string]any, bool) {
	rest := strings.TrimPrefix(strings.TrimPrefix(path, adminRoot), "/")
	if rest == "" {
		return map[string]any{"page": "dashboard"}, true
	}

	parts := strings.Split(rest, "/")
	d, ok := c.lists[parts[0]]
	if !ok || len(parts) > 2 {
		return nil, false
	}
	switch {
	case len(parts) == 1:
		return map[string]any{"page": "list", "list": d.Source.Key}, true
	case parts[1] == "create":
		return map[string]any{"page": "create", "list": d.Source.Key}, true
	default:
		return map[string]any{"page": "item", "list": d.Source.Key, "id": parts[1]}, true
	}
}

// safeRedirect only follows local admin paths.
func safeRedirect(from string) string {
	if from == adminRoot || strings.HasPrefix(from, adminRoot+"/") {
		return from
	}
	return adminRoot
}
