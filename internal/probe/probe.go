package probe

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"siteauditor/internal/fetch"
	"siteauditor/internal/log"
	"siteauditor/internal/model"
)

// manifestPaths are the machine-readability candidates. They collapse into
// a single signal: any one of them answering 2xx counts.
var manifestPaths = []string{"/llms.txt", "/llms-full.txt", "/ai.txt"}

type Prober struct {
	fetcher *fetch.Fetcher
}

func New(fetcher *fetch.Fetcher) *Prober {
	return &Prober{fetcher: fetcher}
}

// CoreFiles probes the well-known files under origin. Absence is a finding,
// not an error: transport failures and non-2xx responses both report the
// file as missing.
func (p *Prober) CoreFiles(ctx context.Context, origin string) model.CoreFiles {
	files := model.CoreFiles{
		Robots:  p.file(ctx, origin, "/robots.txt"),
		Sitemap: p.file(ctx, origin, "/sitemap.xml"),
	}
	for _, path := range manifestPaths {
		if p.file(ctx, origin, path).Present {
			files.LLMsTxt = true
			break
		}
	}
	return files
}

func (p *Prober) file(ctx context.Context, origin, path string) model.CoreFile {
	res, err := p.fetcher.Fetch(ctx, strings.TrimSuffix(origin, "/")+path)
	if err != nil {
		log.Logger.Debug("core file probe failed", zap.String("path", path), zap.Error(err))
		return model.CoreFile{}
	}
	if !res.OK {
		return model.CoreFile{}
	}

	return model.CoreFile{
		Present:      true,
		URL:          res.URL,
		LastModified: res.Headers.Get("Last-Modified"),
	}
}
