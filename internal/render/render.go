// Package render turns collection documents into HTML pages laid out with
// the site navigation.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/mkbrechtel/patterns/internal/collection"
	"github.com/mkbrechtel/patterns/internal/sidebar"
)

// HomeID is the document rendered at "/".
const HomeID = "index"

// Site carries the site-wide values every page shows.
type Site struct {
	Title       string
	URL         string
	Description string
	Social      map[string]string
	EditBase    string
}

// Page is a rendered document.
type Page struct {
	ID          string
	Path        string
	Title       string
	Description string
	Template    string
	Draft       bool
	Hidden      bool
	NavLabel    string
	EditURL     string
	Body        []byte // rendered markdown fragment
	HTML        []byte // full document, set by Layout
}

// URL is the route the page is served under.
func (p *Page) URL() string { return URLFor(p.ID) }

// URLFor maps a document ID (or sidebar reference) to its route.
func URLFor(id string) string {
	if id == HomeID {
		return "/"
	}
	return "/" + strings.Trim(id, "/") + "/"
}

// Renderer converts markdown with goldmark and wraps it in the page layout.
// It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	layout *template.Template
	site   Site
}

// New returns a renderer for site.
func New(site Site) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{
		md:     md,
		layout: template.Must(template.New("layout").Parse(layoutHTML)),
		site:   site,
	}
}

// Body converts the markdown of doc to an HTML fragment.
func (r *Renderer) Body(doc *collection.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(doc.Body, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse %s: %w", doc.ID, err)
	}
	return buf.Bytes(), nil
}

// Prepare renders the body of every document. The returned pages are not yet
// laid out; call Layout once all pages are known so navigation labels can
// use page titles.
func (r *Renderer) Prepare(docs []*collection.Document) (map[string]*Page, error) {
	pages := make(map[string]*Page, len(docs))
	for _, doc := range docs {
		body, err := r.Body(doc)
		if err != nil {
			return nil, err
		}
		fm := doc.FrontMatter
		pages[doc.ID] = &Page{
			ID:          doc.ID,
			Path:        doc.Path,
			Title:       fm.Title,
			Description: fm.Description,
			Template:    fm.Template,
			Draft:       fm.Draft,
			Hidden:      fm.Sidebar.Hidden,
			NavLabel:    fm.Sidebar.Label,
			EditURL:     fm.EditURL,
			Body:        body,
		}
	}
	return pages, nil
}

// Layout wraps every page body in the full HTML layout with nav.
func (r *Renderer) Layout(pages map[string]*Page, entries []sidebar.Entry) error {
	nav := Navigation(entries, pages)

	ids := make([]string, 0, len(pages))
	for id := range pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := pages[id]
		var buf bytes.Buffer
		if err := r.layout.Execute(&buf, r.view(p, nav)); err != nil {
			return fmt.Errorf("failed to lay out %s: %w", id, err)
		}
		p.HTML = buf.Bytes()
	}
	return nil
}

// NavLink is one resolved sidebar link.
type NavLink struct {
	Label   string
	URL     string
	Current bool
}

// NavGroup is one resolved sidebar element. Groups have Links, plain links
// have URL.
type NavGroup struct {
	Label     string
	URL       string
	Links     []NavLink
	Collapsed bool
}

// Navigation resolves sidebar entries against the rendered pages. References
// without a page (drafts, renamed files) and hidden pages are dropped; group
// items are labelled with the page's sidebar label or title.
func Navigation(entries []sidebar.Entry, pages map[string]*Page) []NavGroup {
	nav := make([]NavGroup, 0, len(entries))
	for _, e := range entries {
		if e.IsLink() {
			nav = append(nav, NavGroup{Label: e.Label, URL: e.Link})
			continue
		}
		g := NavGroup{Label: e.Label, Collapsed: e.Collapsed, Links: make([]NavLink, 0, len(e.Items))}
		for _, ref := range e.Items {
			p, ok := pages[ref]
			if !ok || p.Hidden {
				continue
			}
			label := p.NavLabel
			if label == "" {
				label = p.Title
			}
			g.Links = append(g.Links, NavLink{Label: label, URL: URLFor(ref)})
		}
		nav = append(nav, g)
	}
	return nav
}

type socialLink struct {
	Name string
	URL  string
}

type pageView struct {
	Site    Site
	Social  []socialLink
	Page    *Page
	Body    template.HTML
	Nav     []NavGroup
	EditURL string
	Splash  bool
}

func (r *Renderer) view(p *Page, nav []NavGroup) pageView {
	current := p.URL()
	marked := make([]NavGroup, len(nav))
	for i, g := range nav {
		marked[i] = g
		if len(g.Links) == 0 {
			continue
		}
		links := make([]NavLink, len(g.Links))
		copy(links, g.Links)
		for j := range links {
			links[j].Current = links[j].URL == current
		}
		marked[i].Links = links
	}

	social := make([]socialLink, 0, len(r.site.Social))
	for name, url := range r.site.Social {
		social = append(social, socialLink{Name: name, URL: url})
	}
	sort.Slice(social, func(i, j int) bool { return social[i].Name < social[j].Name })

	editURL := p.EditURL
	if editURL == "" && r.site.EditBase != "" {
		editURL = strings.TrimSuffix(r.site.EditBase, "/") + "/" + p.Path
	}

	return pageView{
		Site:    r.site,
		Social:  social,
		Page:    p,
		Body:    template.HTML(p.Body), // goldmark output of repository content
		Nav:     marked,
		EditURL: editURL,
		Splash:  p.Template == collection.TemplateSplash,
	}
}
