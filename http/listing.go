package http

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sagarc03/dirtar"
)

var listingTemplate = template.Must(template.New("listing").Parse(
	`<ul>` +
		`{{if .Parent}}<li><a href="{{.Parent}}">../</a></li>{{end}}` +
		`{{range .Items}}<li>` +
		`<a href="{{.Href}}">{{.Name}}{{if .IsDir}}/{{end}}</a>` +
		`{{if .IsDir}} <button onclick="download({{.Archive}})">download</button>` +
		`{{else}} <span class="size">{{.Size}}</span>{{end}}` +
		`</li>{{end}}` +
		`</ul>`,
))

type listingItem struct {
	Name    string
	Href    string
	IsDir   bool
	Archive string
	Size    string
}

type listingView struct {
	Parent string
	Items  []listingItem
}

// ListingHeader marks JSON directory listings, so clients can tell them
// apart from a served .json file.
const ListingHeader = "X-Dirtar-Listing"

// ListingResponse is the JSON form of a directory listing.
type ListingResponse struct {
	Path    string         `json:"path"`
	Parent  string         `json:"parent,omitempty"`
	Entries []dirtar.Entry `json:"entries"`
}

func (h *Handler) serveListing(w http.ResponseWriter, r *http.Request, p dirtar.ResolvedPath) {
	listing, err := h.service.List(r.Context(), p)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if wantsJSON(r) {
		entries := listing.Entries
		if entries == nil {
			entries = []dirtar.Entry{}
		}
		w.Header().Set(ListingHeader, "1")
		_ = WriteJSON(w, http.StatusOK, ListingResponse{
			Path:    p.Web,
			Parent:  dirtar.ParentWebPath(p.Rel),
			Entries: entries,
		})
		return
	}

	body, err := renderListing(h.indexHTML, listing)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Debug("failed to write listing", "path", p.Web, "err", err)
	}
}

// renderListing renders the listing as a <ul> and places it at the end of
// the shell's body.
func renderListing(shell string, listing dirtar.Listing) ([]byte, error) {
	view := listingView{Parent: dirtar.ParentWebPath(listing.Path.Rel)}
	for _, e := range listing.Entries {
		childRel := e.Name
		if !listing.Path.IsRoot() {
			childRel = listing.Path.Rel + "/" + e.Name
		}

		item := listingItem{
			Name:  e.Name,
			Href:  escapePath(dirtar.WebPath(childRel, e.IsDir)),
			IsDir: e.IsDir,
		}
		if e.IsDir {
			item.Archive = "/" + childRel
		} else {
			item.Size = humanize.Bytes(uint64(max(e.Size, 0)))
		}
		view.Items = append(view.Items, item)
	}

	var fragment bytes.Buffer
	if err := listingTemplate.Execute(&fragment, view); err != nil {
		return nil, err
	}

	return spliceBody(shell, fragment.Bytes()), nil
}

// spliceBody inserts fragment before the last </body> of shell, or appends
// it followed by a closing </body></html> when the shell has none.
func spliceBody(shell string, fragment []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(shell) + len(fragment) + 16)

	idx := strings.LastIndex(strings.ToLower(shell), "</body>")
	if idx < 0 {
		out.WriteString(shell)
		out.Write(fragment)
		out.WriteString("</body></html>")
		return out.Bytes()
	}

	out.WriteString(shell[:idx])
	out.Write(fragment)
	out.WriteString(shell[idx:])
	return out.Bytes()
}

func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}
