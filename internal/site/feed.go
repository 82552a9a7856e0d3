package site

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogpress/internal/render"
	"git.home.luguber.info/inful/blogpress/internal/theme"
)

// Atom feed document model (RFC 4287, the subset feed readers care about).
type atomFeed struct {
	XMLName  xml.Name    `xml:"feed"`
	Xmlns    string      `xml:"xmlns,attr"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle,omitempty"`
	ID       string      `xml:"id"`
	Updated  string      `xml:"updated"`
	Links    []atomLink  `xml:"link"`
	Author   *atomAuthor `xml:"author,omitempty"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomEntry struct {
	Title   string      `xml:"title"`
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Link    atomLink    `xml:"link"`
	Summary string      `xml:"summary,omitempty"`
	Author  *atomAuthor `xml:"author,omitempty"`
}

// buildFeed produces the Atom feed for the rendered posts. Only dated posts
// appear (a feed is chronological by nature); the feed's updated time is the
// newest post date so identical content yields identical bytes.
func buildFeed(site theme.Site, outputs []render.Result) ([]byte, error) {
	base := strings.TrimRight(site.BaseURL, "/")

	feed := atomFeed{
		Xmlns:    "http://www.w3.org/2005/Atom",
		Title:    site.Title,
		Subtitle: site.Description,
		ID:       feedID(base),
		Links: []atomLink{
			{Href: base + "/feed.xml", Rel: "self", Type: "application/atom+xml"},
			{Href: base + "/"},
		},
	}
	if site.Author != "" {
		feed.Author = &atomAuthor{Name: site.Author}
	}

	var newest time.Time
	for _, res := range outputs {
		post := res.Post
		if !post.HasDate() {
			continue
		}
		if post.Date.After(newest) {
			newest = post.Date
		}
		permalink := render.Permalink(post)
		entry := atomEntry{
			Title:   post.Title,
			ID:      base + permalink,
			Updated: post.Date.UTC().Format(time.RFC3339),
			Link:    atomLink{Href: base + permalink},
			Summary: post.Summary,
		}
		if post.Author != "" {
			entry.Author = &atomAuthor{Name: post.Author}
		}
		feed.Entries = append(feed.Entries, entry)
	}
	feed.Updated = newest.UTC().Format(time.RFC3339)

	body, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

func feedID(base string) string {
	if base == "" {
		return "/"
	}
	return base + "/"
}
