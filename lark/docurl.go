package lark

import "regexp"

// DocKind is the document flavor encoded in a share URL path.
type DocKind string

const (
	DocKindDocx    DocKind = "docx"
	DocKindWiki    DocKind = "wiki"
	DocKindSheet   DocKind = "sheet"
	DocKindBitable DocKind = "bitable"
	DocKindDoc     DocKind = "doc"
)

var docURLPatterns = []struct {
	re   *regexp.Regexp
	kind DocKind
}{
	{regexp.MustCompile(`/docx/([a-zA-Z0-9]+)`), DocKindDocx},
	{regexp.MustCompile(`/wiki/([a-zA-Z0-9]+)`), DocKindWiki},
	{regexp.MustCompile(`/sheets/([a-zA-Z0-9]+)`), DocKindSheet},
	{regexp.MustCompile(`/base/([a-zA-Z0-9]+)`), DocKindBitable},
	{regexp.MustCompile(`/docs/([a-zA-Z0-9]+)`), DocKindDoc},
}

// ParseDocumentURL extracts the resource token and document kind from a
// share URL. ok is false when the URL matches no known document path.
func ParseDocumentURL(url string) (token string, kind DocKind, ok bool) {
	if url == "" {
		return "", "", false
	}
	for _, p := range docURLPatterns {
		if m := p.re.FindStringSubmatch(url); m != nil {
			return m[1], p.kind, true
		}
	}
	return "", "", false
}
