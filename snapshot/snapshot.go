package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/chromedp/chromedp"

	"airbnb-dashboard/config"
	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

// mapSelector is the element the search page renders the Leaflet map into.
const mapSelector = "#map"

// Target is one map view to capture.
type Target struct {
	Name string
	URL  string
	File string
}

// Result reports the outcome of a single capture.
type Result struct {
	Target
	Err error
}

// Capturer renders dashboard map views in a headless browser and saves
// them as PNG files.
type Capturer struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	seen   *utils.URLSet
	retry  *utils.RetryConfig

	// files holds the file names already handed out.
	files map[string]bool
}

// New creates a ready-to-use Capturer.
func New(cfg *config.Config, logger *utils.Logger) *Capturer {
	return &Capturer{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.SnapshotConcurrency, cfg.RateLimitMs),
		seen:   utils.NewURLSet(),
		files:  make(map[string]bool),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Targets builds the capture list for a running dashboard at baseURL: one
// map of every listing, then one per neighbourhood. Repeated names are
// captured once.
func (c *Capturer) Targets(baseURL string, neighbourhoods []string) ([]Target, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("snapshot: base url: %w", err)
	}

	var targets []Target
	add := func(name string, q url.Values) {
		u := *base
		u.Path += "/search"
		u.RawQuery = q.Encode()
		if !c.seen.Add(u.String()) {
			return
		}
		targets = append(targets, Target{
			Name: name,
			URL:  u.String(),
			File: filepath.Join(c.cfg.SnapshotDir, c.fileName(name)),
		})
	}

	add(models.AllNeighbourhoods, url.Values{"display": {"map"}, "mode": {"all"}})
	for _, n := range neighbourhoods {
		add(n, url.Values{"display": {"map"}, "mode": {"filter"}, "neighbourhood": {n}})
	}
	c.logger.Debug("[snapshot] %d unique pages queued", c.seen.Size())
	return targets, nil
}

// Capture renders every target and writes its screenshot. Failed captures
// are reported in the results; the error is only set when the browser
// cannot be started or the output directory cannot be created.
func (c *Capturer) Capture(ctx context.Context, targets []Target) ([]Result, error) {
	if err := os.MkdirAll(c.cfg.SnapshotDir, 0755); err != nil {
		return nil, fmt.Errorf("snapshot: create output dir: %w", err)
	}

	chromeBin := findChromeBinary(c.cfg.ChromeBin)
	c.logger.Info("[snapshot] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 1024),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// Start the browser up front so a missing binary fails the whole run.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("snapshot: start browser: %w", err)
	}

	var mu sync.Mutex
	results := make([]Result, len(targets))
	for i, t := range targets {
		i, t := i, t
		c.pool.Submit(func() {
			err := c.captureOne(browserCtx, t)
			if err != nil {
				c.logger.Warn("[snapshot] %s failed: %v", t.Name, err)
			} else {
				c.logger.Info("[snapshot] %s → %s", t.Name, t.File)
			}
			mu.Lock()
			results[i] = Result{Target: t, Err: err}
			mu.Unlock()
		})
	}
	c.pool.Wait()

	return results, nil
}

func (c *Capturer) captureOne(browserCtx context.Context, t Target) error {
	var buf []byte
	err := c.retry.Do(browserCtx, "capture "+t.Name, func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(t.URL),
			chromedp.WaitVisible(mapSelector, chromedp.ByQuery),
			// Tiles load after the map container appears.
			chromedp.Sleep(2*time.Second),
			chromedp.FullScreenshot(&buf, 100),
		)
	})
	if err != nil {
		return err
	}
	return os.WriteFile(t.File, buf, 0644)
}

// fileName returns a PNG name for name that no earlier target uses. Names
// that slug alike get -2, -3, ... suffixes in the order they are queued.
func (c *Capturer) fileName(name string) string {
	base := slug(name)
	candidate := base
	for n := 2; c.files[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	c.files[candidate] = true
	return candidate + ".png"
}

// slug turns a neighbourhood name into a file name.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// findChromeBinary locates Chrome/Chromium, preferring the configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
