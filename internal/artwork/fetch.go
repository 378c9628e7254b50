// Package artwork loads cover art, derives a color palette from it and
// renders it as half-block terminal art.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	fetchTimeout = 5 * time.Second
	// covers are small; anything bigger is not a cover
	maxArtworkBytes = 16 << 20
)

var client = &http.Client{Timeout: fetchTimeout}

// Fetch loads the image behind an MPRIS art url: file:// for players that
// cache covers locally, http(s) otherwise.
func Fetch(ctx context.Context, artworkURL string) (image.Image, error) {
	if artworkURL == "" {
		return nil, errors.New("empty artwork url")
	}

	u, err := url.Parse(artworkURL)
	if err != nil {
		return nil, fmt.Errorf("invalid artwork url: %w", err)
	}

	switch u.Scheme {
	case "file":
		return decodeFile(u.Path)
	case "http", "https":
		return fetchRemote(ctx, artworkURL)
	default:
		return nil, fmt.Errorf("unsupported artwork url scheme %q", u.Scheme)
	}
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artwork file: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(io.LimitReader(f, maxArtworkBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork image: %w", err)
	}
	return img, nil
}

func fetchRemote(ctx context.Context, artworkURL string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxArtworkBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}

	return img, nil
}
