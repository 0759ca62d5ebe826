package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/shared"
)

const btsMimeType = "application/vnd.tidal.bts"

// StreamURL resolves the first stream URL of a track at the session's quality.
//
// Only BTS manifests are understood; DASH manifests fail with [shared.ErrUnsupportedManifest].
func (s *TidalService) StreamURL(ctx context.Context, trackID int64) (string, error) {
	quality := s.session.Info().Quality
	if quality == "" {
		quality = models.QualityLossless
	}

	r := request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/tracks/%d/playbackinfopostpaywall", trackID),
		query: url.Values{
			"audioquality":      {string(quality)},
			"playbackmode":      {"STREAM"},
			"assetpresentation": {"FULL"},
		},
		auth: true,
	}

	var info playbackInfo
	if err := s.doRequest(ctx, r, &info); err != nil {
		return "", err
	}
	return decodeManifest(info)
}

func decodeManifest(info playbackInfo) (string, error) {
	if info.ManifestMimeType != btsMimeType {
		return "", fmt.Errorf("%w: %s", shared.ErrUnsupportedManifest, info.ManifestMimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(info.Manifest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrUnsupportedManifest, err)
	}

	var m btsManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrUnsupportedManifest, err)
	}
	if len(m.URLs) == 0 {
		return "", fmt.Errorf("%w: manifest has no urls", shared.ErrUnsupportedManifest)
	}
	return m.URLs[0], nil
}
