package infra

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
)

// PortraitDownloader handles downloading and caching player portraits for
// the UI layer.
type PortraitDownloader struct {
	basePath string
	client   *http.Client
}

// NewPortraitDownloader creates a new PortraitDownloader
func NewPortraitDownloader() (*PortraitDownloader, error) {
	path, err := getAssetsPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets path: %w", err)
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &PortraitDownloader{
		basePath: path,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// DownloadPortrait downloads a player's portrait from the given URL if it is
// not already cached, and returns the local file path. Portraits are resized
// to 48x48 pixels for consistent UI display.
func (d *PortraitDownloader) DownloadPortrait(playerID int64, url string) (string, error) {
	if playerID <= 0 {
		return "", fmt.Errorf("invalid player id: %d", playerID)
	}

	filePath := d.PortraitPath(playerID)

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Already exists (Cache Hit)
	}

	resp, err := d.client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Resize with high-quality Lanczos filter
	resizedImg := imaging.Resize(srcImg, 48, 48, imaging.Lanczos)

	if err := imaging.Save(resizedImg, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// PortraitPath returns the local path for a player's portrait.
func (d *PortraitDownloader) PortraitPath(playerID int64) string {
	return filepath.Join(d.basePath, strconv.FormatInt(playerID, 10)+".png")
}

func getAssetsPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "FantasyGo", "assets", "portraits"), nil
}
