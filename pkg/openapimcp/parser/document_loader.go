package parser

import (
	"net/url"
	"path/filepath"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
)

// newDocument opens spec with reference lookups anchored at specURL: sibling
// files for local specs, the same host for remote ones.
func newDocument(spec []byte, specURL string) (libopenapi.Document, error) {
	if specURL == "" {
		return libopenapi.NewDocument(spec)
	}

	u, err := url.Parse(specURL)
	if err != nil {
		return libopenapi.NewDocument(spec)
	}

	cfg := datamodel.NewDocumentConfiguration()
	switch u.Scheme {
	case "", "file":
		cfg.BasePath = filepath.Dir(u.Path)
		cfg.SpecFilePath = filepath.Base(u.Path)
		cfg.AllowFileReferences = true
	case "http", "https":
		cfg.BaseURL = u
		cfg.AllowRemoteReferences = true
	default:
		return libopenapi.NewDocument(spec)
	}

	return libopenapi.NewDocumentWithConfiguration(spec, cfg)
}
