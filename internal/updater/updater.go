// Package updater checks a release manifest at startup and, when a newer
// build exists, downloads it and swaps the running binary.
package updater

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/minio/selfupdate"

	"github.com/supacortex/desktop/internal/events"
	"github.com/supacortex/desktop/internal/httputil"
	"github.com/supacortex/desktop/internal/toast"
)

// Asset is one downloadable binary.
type Asset struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256,omitempty"`
}

// Release is the manifest served at the configured URL. Platforms is keyed
// by GOOS-GOARCH, e.g. "darwin-arm64".
type Release struct {
	Version   string           `json:"version"`
	Notes     string           `json:"notes"`
	PubDate   string           `json:"pub_date,omitempty"`
	Platforms map[string]Asset `json:"platforms"`
}

// Info is the update-available payload.
type Info struct {
	Version string `json:"version"`
	Body    string `json:"body"`
}

// DefaultDownloadTimeout bounds one release download.
const DefaultDownloadTimeout = 15 * time.Minute

// Options configures an Updater.
type Options struct {
	ManifestURL     string
	CurrentVersion  string
	StartupDelay    time.Duration
	DownloadTimeout time.Duration // zero = DefaultDownloadTimeout
	Platform        string        // empty = runtime GOOS-GOARCH
	TargetPath      string        // empty = the running executable
}

// Updater runs the check/download/install flow. At most one flow runs at
// a time.
type Updater struct {
	client   *http.Client // manifest
	download *http.Client // release binaries; no overall timeout
	sink     events.Sink
	log      *slog.Logger
	opts     Options

	apply  func(update io.Reader, opts selfupdate.Options) error
	notify func(title, message string) error

	running sync.Mutex
}

// New returns an updater. client fetches the manifest; a nil client uses
// the shared 30s client. Downloads use a stream client bounded only by
// DownloadTimeout.
func New(client *http.Client, sink events.Sink, log *slog.Logger, opts Options) *Updater {
	if client == nil {
		client = httputil.Client
	}
	if opts.Platform == "" {
		opts.Platform = runtime.GOOS + "-" + runtime.GOARCH
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = DefaultDownloadTimeout
	}
	return &Updater{
		client:   client,
		download: httputil.NewStreamClient(),
		sink:     sink,
		log:      log,
		opts:     opts,
		apply:    selfupdate.Apply,
		notify:   toast.Show,
	}
}

// Check fetches the manifest and returns the release if it is newer than
// the running version, or nil when already up to date.
func (u *Updater) Check(ctx context.Context) (*Release, error) {
	current, err := semver.NewVersion(u.opts.CurrentVersion)
	if err != nil {
		return nil, fmt.Errorf("updater: current version %q: %w", u.opts.CurrentVersion, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.opts.ManifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("updater: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("updater: fetch manifest: %w", err)
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus(resp, "updater: manifest"); err != nil {
		return nil, err
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("updater: parse manifest: %w", err)
	}
	latest, err := semver.NewVersion(rel.Version)
	if err != nil {
		return nil, fmt.Errorf("updater: manifest version %q: %w", rel.Version, err)
	}
	if !latest.GreaterThan(current) {
		return nil, nil
	}
	return &rel, nil
}

// Install downloads the asset for this platform and replaces the target
// binary. The checksum is verified before anything is swapped.
func (u *Updater) Install(ctx context.Context, rel *Release) error {
	asset, ok := rel.Platforms[u.opts.Platform]
	if !ok || asset.URL == "" {
		return fmt.Errorf("updater: release %s has no build for %s", rel.Version, u.opts.Platform)
	}

	opts := selfupdate.Options{TargetPath: u.opts.TargetPath}
	if asset.SHA256 != "" {
		sum, err := hex.DecodeString(asset.SHA256)
		if err != nil {
			return fmt.Errorf("updater: checksum: %w", err)
		}
		opts.Checksum = sum
	}

	ctx, cancel := context.WithTimeout(ctx, u.opts.DownloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return fmt.Errorf("updater: new request: %w", err)
	}
	resp, err := u.download.Do(req)
	if err != nil {
		return fmt.Errorf("updater: download: %w", err)
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus(resp, "updater: download"); err != nil {
		return err
	}

	if err := u.apply(resp.Body, opts); err != nil {
		if rerr := selfupdate.RollbackError(err); rerr != nil {
			u.log.Error("updater: rollback failed", "error", rerr)
		}
		return fmt.Errorf("updater: apply: %w", err)
	}
	return nil
}

// Run waits for the startup delay, then checks and installs. Every failure
// is logged and dropped.
func (u *Updater) Run(ctx context.Context) {
	t := time.NewTimer(u.opts.StartupDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return
	case <-t.C:
	}
	u.CheckAndInstall(ctx)
}

// CheckAndInstall runs one check/download/install pass without delay.
func (u *Updater) CheckAndInstall(ctx context.Context) {
	if !u.running.TryLock() {
		u.log.Info("updater: already running")
		return
	}
	defer u.running.Unlock()

	rel, err := u.Check(ctx)
	if err != nil {
		u.log.Warn("update check failed", "error", err)
		return
	}
	if rel == nil {
		u.log.Info("up to date", "version", u.opts.CurrentVersion)
		return
	}

	u.log.Info("update available", "version", rel.Version)
	u.sink.Publish(events.UpdateAvailable, Info{Version: rel.Version, Body: rel.Notes})

	if err := u.Install(ctx, rel); err != nil {
		u.log.Warn("update install failed", "version", rel.Version, "error", err)
		return
	}

	u.log.Info("update installed", "version", rel.Version)
	u.sink.Publish(events.UpdateDownloaded, nil)
	if err := u.notify("supacortex", fmt.Sprintf("Version %s is ready. Restart to apply.", rel.Version)); err != nil {
		u.log.Debug("update toast failed", "error", err)
	}
}
