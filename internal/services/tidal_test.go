package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/session"
	"github.com/desertthunder/tidalx/internal/shared"
	tu "github.com/desertthunder/tidalx/internal/testing"
)

func newTestService(t *testing.T, handler http.Handler, sess *session.Session) *TidalService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := shared.TidalConfig{
		ClientID: "client-123",
		APIURL:   server.URL + "/v1",
		AuthURL:  server.URL + "/oauth2",
		PageSize: 2,
	}
	return NewTidalService(cfg, sess, server.Client(), shared.NewLogger(&bytes.Buffer{}))
}

func anonymous() *session.Session {
	return session.New("US", models.QualityLossless)
}

func authenticated() *session.Session {
	sess := session.New("US", models.QualityLossless)
	sess.Restore(models.TokenRecord{UserID: 7, CountryCode: "DE", AccessToken: "old", RefreshToken: "r"})
	return sess
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func trackJSON(id int64, title string) map[string]any {
	return map[string]any{
		"id":       id,
		"title":    title,
		"duration": 200,
		"url":      "http://www.tidal.com/track/" + title,
		"artist":   map[string]any{"id": 1, "name": "Artist"},
		"album":    map[string]any{"id": 2, "title": "Album", "cover": "ab12-cd34"},
	}
}

func TestNewTidalService(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		srv := NewTidalService(shared.TidalConfig{ClientID: "id"}, anonymous(), nil, nil)

		if srv.cfg.APIURL != defaultAPIURL {
			t.Errorf("expected default API URL, got %s", srv.cfg.APIURL)
		}
		if srv.oauth.Endpoint.TokenURL != defaultAuthURL+"/token" {
			t.Errorf("unexpected token URL %s", srv.oauth.Endpoint.TokenURL)
		}
		if srv.cfg.PageSize != 50 {
			t.Errorf("expected page size 50, got %d", srv.cfg.PageSize)
		}
		if srv.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
		if srv.Name() != "TIDAL" {
			t.Errorf("expected name TIDAL, got %s", srv.Name())
		}
	})

	t.Run("Trims trailing slashes", func(t *testing.T) {
		srv := NewTidalService(shared.TidalConfig{APIURL: "http://example.com/v1/"}, anonymous(), nil, nil)
		if srv.cfg.APIURL != "http://example.com/v1" {
			t.Errorf("expected trimmed URL, got %s", srv.cfg.APIURL)
		}
	})
}

func TestDeviceAuthorization(t *testing.T) {
	t.Run("IssueDeviceCode", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /oauth2/device_authorization", func(w http.ResponseWriter, r *http.Request) {
				r.ParseForm()
				if r.PostForm.Get("client_id") != "client-123" {
					t.Errorf("expected client_id client-123, got %s", r.PostForm.Get("client_id"))
				}
				if r.PostForm.Get("scope") != tidalScopes {
					t.Errorf("unexpected scope %q", r.PostForm.Get("scope"))
				}
				writeJSON(w, http.StatusOK, map[string]any{
					"deviceCode":              "dev-1",
					"userCode":                "ABC123",
					"verificationUri":         "link.tidal.com",
					"verificationUriComplete": "link.tidal.com/ABC123",
					"expiresIn":               300,
					"interval":                2,
				})
			})
			srv := newTestService(t, mux, anonymous())

			grant, err := srv.IssueDeviceCode(context.Background())
			if err != nil {
				t.Fatalf("IssueDeviceCode() error = %v", err)
			}
			if grant.DeviceCode != "dev-1" || grant.UserCode != "ABC123" {
				t.Errorf("unexpected grant %+v", grant)
			}
			if grant.VerificationURI != "https://link.tidal.com/ABC123" {
				t.Errorf("expected complete URI with scheme, got %s", grant.VerificationURI)
			}
			if grant.Interval != 2*time.Second {
				t.Errorf("expected 2s interval, got %v", grant.Interval)
			}
			if !grant.ExpiresAt.After(time.Now()) {
				t.Error("expected expiry in the future")
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/oauth2/device_authorization", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			})
			srv := newTestService(t, mux, anonymous())

			if _, err := srv.IssueDeviceCode(context.Background()); !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
		})

		t.Run("Transport Error", func(t *testing.T) {
			srv := NewTidalService(shared.TidalConfig{ClientID: "id"}, anonymous(), &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("dial tcp: refused")),
			}, shared.NewLogger(&bytes.Buffer{}))

			if _, err := srv.IssueDeviceCode(context.Background()); !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
		})
	})

	t.Run("PollToken", func(t *testing.T) {
		errorCases := []struct {
			name   string
			status int
			code   string
			want   error
		}{
			{"Pending", http.StatusBadRequest, "authorization_pending", shared.ErrAuthorizationPending},
			{"Slow Down", http.StatusBadRequest, "slow_down", shared.ErrAuthorizationPending},
			{"Expired", http.StatusBadRequest, "expired_token", shared.ErrAuthTimeout},
			{"Denied", http.StatusBadRequest, "access_denied", shared.ErrAccessDenied},
			{"Rejected Code", http.StatusBadRequest, "invalid_grant", shared.ErrInvalidGrant},
			{"Server Error", http.StatusBadGateway, "", shared.ErrNetwork},
		}

		for _, tc := range errorCases {
			t.Run(tc.name, func(t *testing.T) {
				mux := http.NewServeMux()
				mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
					if tc.code == "" {
						w.WriteHeader(tc.status)
						return
					}
					writeJSON(w, tc.status, map[string]any{"error": tc.code, "error_description": "nope"})
				})
				srv := newTestService(t, mux, anonymous())

				if _, err := srv.PollToken(context.Background(), "dev-1"); !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
			})
		}

		t.Run("Granted", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
				r.ParseForm()
				if got := r.PostForm.Get("grant_type"); got != deviceGrant {
					t.Errorf("expected device grant type, got %s", got)
				}
				if got := r.PostForm.Get("device_code"); got != "dev-1" {
					t.Errorf("expected device_code dev-1, got %s", got)
				}
				if got := r.PostForm.Get("client_id"); got != "client-123" {
					t.Errorf("expected client_id in body, got %s", got)
				}
				writeJSON(w, http.StatusOK, map[string]any{
					"access_token":  "acc",
					"refresh_token": "ref",
					"token_type":    "Bearer",
					"expires_in":    3600,
					"user_id":       123,
					"user":          map[string]any{"userId": 123, "countryCode": "DE"},
				})
			})
			srv := newTestService(t, mux, anonymous())

			rec, err := srv.PollToken(context.Background(), "dev-1")
			if err != nil {
				t.Fatalf("PollToken() error = %v", err)
			}
			want := models.TokenRecord{UserID: 123, CountryCode: "DE", AccessToken: "acc", RefreshToken: "ref"}
			if rec != want {
				t.Errorf("PollToken() = %+v, want %+v", rec, want)
			}
		})
	})
}

func TestCatalog(t *testing.T) {
	t.Run("Anonymous Tracks", func(t *testing.T) {
		var offsets []string
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/featured/top/tracks", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Tidal-Token") != "client-123" {
				t.Errorf("expected client token header, got %q", r.Header.Get("X-Tidal-Token"))
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("expected no Authorization header")
			}
			if r.URL.Query().Get("countryCode") != "US" {
				t.Errorf("expected default country US, got %s", r.URL.Query().Get("countryCode"))
			}
			offsets = append(offsets, r.URL.Query().Get("offset"))
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{trackJSON(1, "one"), trackJSON(2, "two")}})
		})
		srv := newTestService(t, mux, anonymous())

		tracks, err := srv.Tracks(context.Background(), false)
		if err != nil {
			t.Fatalf("Tracks() error = %v", err)
		}
		if len(tracks) != 2 || tracks[0].ID != 1 || tracks[0].Artist != "Artist" || tracks[0].Album != "Album" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
		if tracks[0].Artwork != resourcesURL+"/ab12/cd34/320x320.jpg" {
			t.Errorf("unexpected artwork %s", tracks[0].Artwork)
		}

		_, _ = srv.Tracks(context.Background(), false)
		_, _ = srv.Tracks(context.Background(), true)

		want := []string{"0", "2", "0"}
		if strings.Join(offsets, ",") != strings.Join(want, ",") {
			t.Errorf("expected offsets %v, got %v", want, offsets)
		}
	})

	t.Run("Favorite Tracks Are Liked", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/users/7/favorites/tracks", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer old" {
				t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
			}
			if r.URL.Query().Get("countryCode") != "DE" {
				t.Errorf("expected country DE, got %s", r.URL.Query().Get("countryCode"))
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{
				map[string]any{"created": "2024-01-01", "item": trackJSON(5, "five")},
			}})
		})
		srv := newTestService(t, mux, authenticated())

		tracks, err := srv.Tracks(context.Background(), true)
		if err != nil {
			t.Fatalf("Tracks() error = %v", err)
		}
		if len(tracks) != 1 || !tracks[0].Liked {
			t.Errorf("expected one liked track, got %+v", tracks)
		}
	})

	t.Run("Requires Session", func(t *testing.T) {
		srv := newTestService(t, http.NotFoundHandler(), anonymous())

		calls := map[string]func() error{
			"Artists":   func() error { _, err := srv.Artists(context.Background(), false); return err },
			"Albums":    func() error { _, err := srv.Albums(context.Background(), false); return err },
			"Playlists": func() error { _, err := srv.Playlists(context.Background(), false); return err },
			"Mixes":     func() error { _, err := srv.Mixes(context.Background(), false); return err },
			"Stream":    func() error { _, err := srv.StreamURL(context.Background(), 1); return err },
		}
		for name, call := range calls {
			if err := call(); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("%s: expected ErrNotAuthenticated, got %v", name, err)
			}
		}
	})

	t.Run("Artists And Albums", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/users/7/favorites/artists", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{
				map[string]any{"item": map[string]any{"id": 10, "name": "Band", "picture": "aa-bb", "url": "http://tidal.com/artist/10"}},
			}})
		})
		mux.HandleFunc("GET /v1/users/7/favorites/albums", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{
				map[string]any{"item": map[string]any{"id": 20, "title": "LP", "cover": "cc-dd", "artist": map[string]any{"name": "Band"}}},
			}})
		})
		srv := newTestService(t, mux, authenticated())

		artists, err := srv.Artists(context.Background(), false)
		if err != nil || len(artists) != 1 || artists[0].Name != "Band" || artists[0].ID != 10 {
			t.Errorf("Artists() = %+v, %v", artists, err)
		}
		albums, err := srv.Albums(context.Background(), false)
		if err != nil || len(albums) != 1 || albums[0].Artist != "Band" || albums[0].ID != 20 {
			t.Errorf("Albums() = %+v, %v", albums, err)
		}
	})

	t.Run("Playlists And Items", func(t *testing.T) {
		uuid := "0d4e1f1a-2b3c-4d5e-8f90-123456789abc"
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/users/7/playlists", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{
				map[string]any{"uuid": uuid, "title": "Mine", "duration": 900, "squareImage": "ee-ff"},
			}})
		})
		mux.HandleFunc("GET /v1/playlists/"+uuid+"/items", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{
				map[string]any{"type": "track", "item": trackJSON(1, "one")},
				map[string]any{"type": "video", "item": trackJSON(2, "clip")},
			}})
		})
		srv := newTestService(t, mux, authenticated())

		playlists, err := srv.Playlists(context.Background(), false)
		if err != nil || len(playlists) != 1 || playlists[0].UUID != uuid || playlists[0].Duration != 900 {
			t.Fatalf("Playlists() = %+v, %v", playlists, err)
		}
		if playlists[0].Artwork != resourcesURL+"/ee/ff/480x480.jpg" {
			t.Errorf("unexpected artwork %s", playlists[0].Artwork)
		}

		tracks, err := srv.PlaylistTracks(context.Background(), uuid, false)
		if err != nil || len(tracks) != 1 || tracks[0].ID != 1 {
			t.Errorf("expected videos to be skipped, got %+v, %v", tracks, err)
		}
	})

	t.Run("Mixes Keep Duplicates", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/pages/my_collection_my_mixes", func(w http.ResponseWriter, r *http.Request) {
			mix := map[string]any{"id": "mix-1", "title": "Daily", "images": map[string]any{"MEDIUM": map[string]any{"url": "http://img/m.jpg"}}}
			writeJSON(w, http.StatusOK, map[string]any{"rows": []any{
				map[string]any{"modules": []any{map[string]any{"pagedList": map[string]any{"items": []any{mix, mix}}}}},
			}})
		})
		srv := newTestService(t, mux, authenticated())

		mixes, err := srv.Mixes(context.Background(), false)
		if err != nil {
			t.Fatalf("Mixes() error = %v", err)
		}
		if len(mixes) != 2 || mixes[0].Artwork != "http://img/m.jpg" {
			t.Errorf("unexpected mixes %+v", mixes)
		}
	})

	t.Run("Children And Search", func(t *testing.T) {
		var searchOffsets []string
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/artists/10/toptracks", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{trackJSON(1, "one")}})
		})
		mux.HandleFunc("GET /v1/albums/20/tracks", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{trackJSON(2, "two")}})
		})
		mux.HandleFunc("GET /v1/mixes/mix-1/items", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{map[string]any{"type": "track", "item": trackJSON(3, "three")}}})
		})
		mux.HandleFunc("GET /v1/search/tracks", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("query") != "daft punk" {
				t.Errorf("unexpected query %q", r.URL.Query().Get("query"))
			}
			searchOffsets = append(searchOffsets, r.URL.Query().Get("offset"))
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{trackJSON(4, "four")}})
		})
		srv := newTestService(t, mux, authenticated())
		ctx := context.Background()

		if tracks, err := srv.ArtistTracks(ctx, 10, false); err != nil || len(tracks) != 1 || tracks[0].ID != 1 {
			t.Errorf("ArtistTracks() = %+v, %v", tracks, err)
		}
		if tracks, err := srv.AlbumTracks(ctx, 20, false); err != nil || len(tracks) != 1 || tracks[0].ID != 2 {
			t.Errorf("AlbumTracks() = %+v, %v", tracks, err)
		}
		if tracks, err := srv.MixTracks(ctx, "mix-1", false); err != nil || len(tracks) != 1 || tracks[0].ID != 3 {
			t.Errorf("MixTracks() = %+v, %v", tracks, err)
		}
		if tracks, err := srv.SearchTracks(ctx, " daft punk ", false); err != nil || len(tracks) != 1 {
			t.Errorf("SearchTracks() = %+v, %v", tracks, err)
		}
		_, _ = srv.SearchTracks(ctx, "daft punk", false)
		if strings.Join(searchOffsets, ",") != "0,1" {
			t.Errorf("expected search offsets 0,1, got %v", searchOffsets)
		}
		if _, err := srv.SearchTracks(ctx, "  ", false); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("API Error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/albums/1/tracks", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "subStatus": 2001, "userMessage": "Album not found"})
		})
		srv := newTestService(t, mux, anonymous())

		_, err := srv.AlbumTracks(context.Background(), 1, false)
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "Album not found") {
			t.Errorf("expected ErrAPIRequest with message, got %v", err)
		}
	})

	t.Run("Network Error", func(t *testing.T) {
		srv := NewTidalService(shared.TidalConfig{ClientID: "id"}, anonymous(), &http.Client{
			Transport: tu.NewMockRoundTripper(nil, errors.New("connection reset")),
		}, shared.NewLogger(&bytes.Buffer{}))

		if _, err := srv.Tracks(context.Background(), false); !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	t.Run("Retries Once After Refresh", func(t *testing.T) {
		var apiCalls int
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/albums/1/tracks", func(w http.ResponseWriter, r *http.Request) {
			apiCalls++
			if r.Header.Get("Authorization") != "Bearer new" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{trackJSON(1, "one")}})
		})
		mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") != "r" {
				t.Errorf("unexpected refresh form %v", r.PostForm)
			}
			writeJSON(w, http.StatusOK, map[string]any{"access_token": "new", "token_type": "Bearer", "expires_in": 3600})
		})
		sess := authenticated()
		srv := newTestService(t, mux, sess)

		var mu sync.Mutex
		var persisted []models.TokenRecord
		srv.OnRefresh = func(rec models.TokenRecord) error {
			mu.Lock()
			defer mu.Unlock()
			persisted = append(persisted, rec)
			return nil
		}

		tracks, err := srv.AlbumTracks(context.Background(), 1, false)
		if err != nil {
			t.Fatalf("AlbumTracks() error = %v", err)
		}
		if len(tracks) != 1 || apiCalls != 2 {
			t.Errorf("expected one retry, got %d calls", apiCalls)
		}
		if len(persisted) != 1 {
			t.Fatalf("expected one persisted refresh, got %d", len(persisted))
		}
		want := models.TokenRecord{UserID: 7, CountryCode: "DE", AccessToken: "new", RefreshToken: "r"}
		if persisted[0] != want {
			t.Errorf("persisted %+v, want %+v", persisted[0], want)
		}
		if sess.Record() != want {
			t.Errorf("session %+v, want %+v", sess.Record(), want)
		}
	})

	t.Run("Rejected Refresh Token", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/albums/1/tracks", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
		})
		srv := newTestService(t, mux, authenticated())

		_, err := srv.AlbumTracks(context.Background(), 1, false)
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
	})

	t.Run("Without Refresh Token", func(t *testing.T) {
		srv := newTestService(t, http.NotFoundHandler(), anonymous())
		if err := srv.Refresh(context.Background()); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})
}

func TestStreamURL(t *testing.T) {
	manifest := func(v any) string {
		b, _ := json.Marshal(v)
		return base64.StdEncoding.EncodeToString(b)
	}

	t.Run("BTS Manifest", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/tracks/42/playbackinfopostpaywall", func(w http.ResponseWriter, r *http.Request) {
			if q := r.URL.Query().Get("audioquality"); q != "HIGH" {
				t.Errorf("expected audioquality HIGH, got %s", q)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"trackId":          42,
				"manifestMimeType": btsMimeType,
				"manifest":         manifest(map[string]any{"mimeType": "audio/flac", "urls": []string{"https://cdn.example/42.flac"}}),
			})
		})
		sess := authenticated()
		sess.SetQuality(models.QualityHigh)
		srv := newTestService(t, mux, sess)

		u, err := srv.StreamURL(context.Background(), 42)
		if err != nil {
			t.Fatalf("StreamURL() error = %v", err)
		}
		if u != "https://cdn.example/42.flac" {
			t.Errorf("unexpected URL %s", u)
		}
	})

	t.Run("Unsupported Manifests", func(t *testing.T) {
		cases := []playbackInfo{
			{ManifestMimeType: "application/dash+xml", Manifest: "PE1QRD4="},
			{ManifestMimeType: btsMimeType, Manifest: "%%%"},
			{ManifestMimeType: btsMimeType, Manifest: manifest(map[string]any{"urls": []string{}})},
		}
		for _, info := range cases {
			if _, err := decodeManifest(info); !errors.Is(err, shared.ErrUnsupportedManifest) {
				t.Errorf("expected ErrUnsupportedManifest for %+v, got %v", info, err)
			}
		}
	})
}

func TestToggleLike(t *testing.T) {
	t.Run("Adds Then Removes", func(t *testing.T) {
		var methods []string
		mux := http.NewServeMux()
		mux.HandleFunc("POST /v1/users/7/favorites/tracks", func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			if r.PostForm.Get("trackIds") != "42" {
				t.Errorf("expected trackIds 42, got %s", r.PostForm.Get("trackIds"))
			}
			methods = append(methods, r.Method)
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("DELETE /v1/users/7/favorites/tracks/42", func(w http.ResponseWriter, r *http.Request) {
			methods = append(methods, r.Method)
			w.WriteHeader(http.StatusNoContent)
		})
		srv := newTestService(t, mux, authenticated())

		liked, err := srv.ToggleLike(context.Background(), "42")
		if err != nil || !liked {
			t.Fatalf("first ToggleLike() = %v, %v", liked, err)
		}
		liked, err = srv.ToggleLike(context.Background(), "42")
		if err != nil || liked {
			t.Fatalf("second ToggleLike() = %v, %v", liked, err)
		}
		if strings.Join(methods, ",") != "POST,DELETE" {
			t.Errorf("expected POST,DELETE, got %v", methods)
		}
	})

	t.Run("Failure Keeps State", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/users/7/favorites/tracks", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		srv := newTestService(t, mux, authenticated())

		liked, err := srv.ToggleLike(context.Background(), "42")
		if err == nil || liked {
			t.Errorf("expected error and unchanged state, got %v, %v", liked, err)
		}
	})

	t.Run("Invalid ID", func(t *testing.T) {
		srv := newTestService(t, http.NotFoundHandler(), authenticated())
		if _, err := srv.ToggleLike(context.Background(), "not-a-number"); !errors.Is(err, shared.ErrInvalidID) {
			t.Errorf("expected ErrInvalidID, got %v", err)
		}
	})
}

func TestReset(t *testing.T) {
	var offsets, methods []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/users/7/favorites/tracks", func(w http.ResponseWriter, r *http.Request) {
		offsets = append(offsets, r.URL.Query().Get("offset"))
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{
			map[string]any{"item": trackJSON(1, "one")},
			map[string]any{"item": trackJSON(2, "two")},
		}})
	})
	mux.HandleFunc("POST /v1/users/7/favorites/tracks", func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusOK)
	})
	srv := newTestService(t, mux, authenticated())

	_, _ = srv.Tracks(context.Background(), false)
	if liked, err := srv.ToggleLike(context.Background(), "42"); err != nil || !liked {
		t.Fatalf("ToggleLike() = %v, %v", liked, err)
	}

	srv.Reset()

	tracks, err := srv.Tracks(context.Background(), false)
	if err != nil {
		t.Fatalf("Tracks() error = %v", err)
	}
	if strings.Join(offsets, ",") != "0,0" {
		t.Errorf("expected listing to restart at offset 0, got %v", offsets)
	}
	if len(tracks) != 2 || !tracks[0].Liked {
		t.Errorf("expected favorites to be marked liked again, got %+v", tracks)
	}
	if liked, err := srv.ToggleLike(context.Background(), "42"); err != nil || !liked {
		t.Errorf("expected a fresh like after reset, got %v, %v", liked, err)
	}
	if strings.Join(methods, ",") != "POST,POST" {
		t.Errorf("expected POST,POST, got %v", methods)
	}
}

func TestImageURL(t *testing.T) {
	if got := imageURL("", coverSize); got != "" {
		t.Errorf("expected empty URL, got %s", got)
	}
	if got := imageURL("a1-b2-c3", "80x80"); got != resourcesURL+"/a1/b2/c3/80x80.jpg" {
		t.Errorf("unexpected URL %s", got)
	}
}
