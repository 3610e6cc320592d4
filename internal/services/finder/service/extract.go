package service

import (
	"context"

	"appimagefinder/internal/adapters/ingest/gharchive"
	"appimagefinder/internal/core/appimage"
	"appimagefinder/internal/platform/logger"
	"appimagefinder/internal/services/finder/domain"
)

// extract turns one event into zero or more records, counting every reason
// an event is dropped
func extract(ctx context.Context, env domain.EventEnvelope, req domain.Request, st *domain.ShardStats) []domain.Record {
	rel, v := classify(env, req.Window)
	switch v {
	case notRelease:
		return nil
	case malformed:
		st.Malformed++
		return nil
	case outOfWindow:
		st.OutOfWindow++
		return nil
	case noAssets:
		st.NoAssets++
		return nil
	}
	st.ReleaseEvents++

	qualifying := appimage.FilterAssets(toAssets(rel.Assets), req.IncludeChecksums, req.Target)
	if len(qualifying) == 0 {
		return nil
	}
	if req.Policy.IsContinuous(rel.Name, qualifying) {
		st.ContinuousDropped++
		logger.C(ctx).Debug().Str("repo", env.Repo.Name).Str("release", rel.Name).Msg("finder: continuous release skipped")
		return nil
	}

	out := make([]domain.Record, 0, len(qualifying))
	for _, a := range qualifying {
		at, err := appimage.Describe(env.Repo.Name, rel.TagName, a.Name, req.Target)
		if err != nil {
			st.MalformedRepos++
			logger.C(ctx).Debug().Err(err).Str("event_id", env.ID).Msg("finder: record skipped")
			return nil
		}
		out = append(out, domain.Record{
			Repo:         env.Repo.Name,
			ReleaseName:  rel.Name,
			TagName:      rel.TagName,
			PublishedAt:  rel.PublishedAt,
			AppImageName: a.Name,
			DownloadURL:  a.URL,
			Architecture: string(at.Arch),
			PackageName:  at.PackageName,
			Version:      at.Version,
		})
	}
	return out
}

func toAssets(in []gharchive.Asset) []appimage.Asset {
	out := make([]appimage.Asset, len(in))
	for i, a := range in {
		out[i] = appimage.Asset{Name: a.Name, URL: a.BrowserDownloadURL}
	}
	return out
}
