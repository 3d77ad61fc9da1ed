package generate

import (
	"github.com/klytics/conokit/internal/config"
	"github.com/klytics/conokit/internal/discover"
)

// DiscoveryOptions maps the discovery config onto scan options. Cono folders are searched
// recursively so dated sub folders are found.
func DiscoveryOptions(cfg *config.Config) discover.Options {
	return discover.Options{
		Recursive:  true,
		Extensions: cfg.Discovery.FileExtensions,
		Ignore:     cfg.Discovery.IgnoreFilenameContains,
	}
}

// Plan picks the workbook for every configured Cono folder.
func Plan(cfg *config.Config) ([]discover.Pick, error) {
	return discover.PickAll(cfg.Discovery.Paths, DiscoveryOptions(cfg))
}

// Jobs keeps the picks that have a workbook.
func Jobs(picks []discover.Pick) []Job {
	var jobs []Job
	for _, p := range picks {
		if p.File != nil {
			jobs = append(jobs, Job{Cono: p.Cono.Name, Source: *p.File})
		}
	}
	return jobs
}
