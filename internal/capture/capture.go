package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"chatstitch/internal/domain"
)

// extractRowsJS pulls every visible message row from the conversation pane.
// Messenger renders rows as div[role=row]; sender and body text live in the
// row's innerText and media as img/video descendants. blob: and data: srcs
// are kept so the media extractor can pick them up later.
const extractRowsJS = `
(function() {
	var rows = document.querySelectorAll('div[role="row"]');
	var out = [];
	rows.forEach(function(row) {
		var sender = '';
		var h = row.querySelector('h4, h5, [data-scope="first_name"]');
		if (h) sender = h.innerText.trim();
		var media = [];
		row.querySelectorAll('img, video').forEach(function(el) {
			var src = el.currentSrc || el.src || '';
			if (src) media.push(src);
		});
		var text = (row.innerText || '').trim();
		if (text || media.length > 0) {
			out.push({sender: sender, raw_text: text, media_urls: media});
		}
	});
	return out;
})()
`

const scrollUpJS = `
(function() {
	var panes = document.querySelectorAll('div[role="main"] [style*="overflow"], div[role="main"]');
	var pane = panes[0] || document.scrollingElement;
	var before = pane.scrollTop;
	pane.scrollTop = 0;
	window.scrollBy(0, -2000);
	return before;
})()
`

// Config controls one capture session.
type Config struct {
	URL         string        // conversation URL
	OutDir      string        // batch directory for part files
	PartSize    int           // snapshots per part file
	MaxParts    int           // stop after this many parts
	ScrollPause time.Duration // wait between scrolls for lazy loading
}

// Capturer snapshots a conversation into part files that the sequencer can
// later stitch. Each scroll position yields one snapshot; snapshots overlap
// heavily, which the downstream deduplicator is built to absorb.
type Capturer struct {
	bridge *Bridge
	cfg    Config
}

func NewCapturer(bridge *Bridge, cfg Config) *Capturer {
	if cfg.PartSize <= 0 {
		cfg.PartSize = 10
	}
	if cfg.MaxParts <= 0 {
		cfg.MaxParts = 50
	}
	if cfg.ScrollPause <= 0 {
		cfg.ScrollPause = 2 * time.Second
	}
	return &Capturer{bridge: bridge, cfg: cfg}
}

type snapshotRow struct {
	Sender    string   `json:"sender"`
	RawText   string   `json:"raw_text"`
	MediaURLs []string `json:"media_urls,omitempty"`
}

// Run captures the conversation, scrolling from newest to oldest, and writes
// messenger_row_part_N.json files into the batch directory. It returns the
// number of part files written.
func (c *Capturer) Run(ctx context.Context) (int, error) {
	if c.cfg.URL == "" {
		return 0, fmt.Errorf("capture URL is not configured")
	}
	if err := os.MkdirAll(c.cfg.OutDir, 0o755); err != nil {
		return 0, fmt.Errorf("cannot create batch directory %s: %w", c.cfg.OutDir, err)
	}

	taskCtx, cancel := c.bridge.NewContext(ctx)
	defer cancel()

	c.bridge.logger.Info("starting capture", "url", c.cfg.URL, "out", c.cfg.OutDir)

	err := chromedp.Run(taskCtx,
		chromedp.Navigate(c.cfg.URL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		return 0, fmt.Errorf("open conversation: %w", err)
	}

	parts := 0
	snapshots := 0
	var buffer []snapshotRow
	lastCount := -1
	stale := 0

	for parts < c.cfg.MaxParts {
		select {
		case <-ctx.Done():
			return parts, ctx.Err()
		default:
		}

		var rows []snapshotRow
		if err := chromedp.Run(taskCtx, chromedp.Evaluate(extractRowsJS, &rows)); err != nil {
			return parts, fmt.Errorf("extract rows: %w", err)
		}
		buffer = append(buffer, rows...)
		snapshots++

		// Stop once three consecutive scrolls load nothing new: we have
		// reached the top of the conversation.
		if len(rows) == lastCount {
			stale++
		} else {
			stale = 0
		}
		lastCount = len(rows)
		if stale >= 3 {
			break
		}

		if snapshots >= c.cfg.PartSize && len(buffer) > 0 {
			parts++
			if err := c.writePart(parts, buffer); err != nil {
				return parts - 1, err
			}
			buffer = buffer[:0]
			snapshots = 0
		}

		var prevTop float64
		if err := chromedp.Run(taskCtx,
			chromedp.Evaluate(scrollUpJS, &prevTop),
			chromedp.Sleep(c.cfg.ScrollPause),
		); err != nil {
			return parts, fmt.Errorf("scroll: %w", err)
		}
	}

	if len(buffer) > 0 {
		parts++
		if err := c.writePart(parts, buffer); err != nil {
			return parts - 1, err
		}
	}

	c.bridge.logger.Info("capture finished", "parts", parts)
	return parts, nil
}

func (c *Capturer) writePart(part int, rows []snapshotRow) error {
	entries := make([]domain.RawCaptureEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, domain.RawCaptureEntry{
			Sender:    r.Sender,
			RawText:   r.RawText,
			MediaURLs: r.MediaURLs,
			Index:     i,
		})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode part %d: %w", part, err)
	}
	path := filepath.Join(c.cfg.OutDir, fmt.Sprintf("messenger_row_part_%d.json", part))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write part %d: %w", part, err)
	}
	c.bridge.logger.Info("wrote part file", "path", path, "rows", len(rows))
	return nil
}
