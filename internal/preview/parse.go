package preview

import (
	"bytes"
	"strings"

	"github.com/big-blue22/keizibann/internal/util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type document struct {
	title      string
	byProperty map[string]string
	byName     map[string]string
}

// get looks a meta tag up by property first, then by name
func (d *document) get(key string) string {
	if v, ok := d.byProperty[key]; ok && v != "" {
		return v
	}
	return d.byName[key]
}

// parseDocument collects the first <title> and the first value of every meta tag.
// The tokenizer never fails on malformed markup; parsing stops at the end of the body.
func parseDocument(body []byte) *document {
	doc := &document{
		byProperty: make(map[string]string),
		byName:     make(map[string]string),
	}

	z := html.NewTokenizer(bytes.NewReader(body))
	var title strings.Builder
	inTitle, titleDone := false, false
	for {
		switch z.Next() {
		case html.ErrorToken:
			doc.title = util.CollapseSpace(title.String())
			return doc
		case html.StartTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Title:
				inTitle = !titleDone
			case atom.Meta:
				doc.addMeta(tok.Attr)
			}
		case html.SelfClosingTagToken:
			if tok := z.Token(); tok.DataAtom == atom.Meta {
				doc.addMeta(tok.Attr)
			}
		case html.EndTagToken:
			if tok := z.Token(); tok.DataAtom == atom.Title && inTitle {
				inTitle, titleDone = false, true
			}
		case html.TextToken:
			if inTitle {
				title.Write(z.Text())
			}
		}
	}
}

func (d *document) addMeta(attrs []html.Attribute) {
	var property, name, content string
	hasContent := false
	for _, a := range attrs {
		switch strings.ToLower(a.Key) {
		case "property":
			property = strings.ToLower(strings.TrimSpace(a.Val))
		case "name":
			name = strings.ToLower(strings.TrimSpace(a.Val))
		case "content":
			content = strings.TrimSpace(a.Val)
			hasContent = true
		}
	}
	if !hasContent {
		return
	}
	if property != "" {
		if _, ok := d.byProperty[property]; !ok {
			d.byProperty[property] = content
		}
	}
	if name != "" {
		if _, ok := d.byName[name]; !ok {
			d.byName[name] = content
		}
	}
}
