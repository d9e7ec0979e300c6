// Package imageload turns a user-selected screenshot into an in-memory
// TradeImage carrying a base64 data URL.
package imageload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/dyike/CortexReview/internal/logger"
	"github.com/dyike/CortexReview/models"
)

var (
	ErrNotImage   = errors.New("file is not an image")
	ErrEmptyImage = errors.New("image is empty")
	ErrTooLarge   = errors.New("image exceeds size limit")
	ErrBadDataURL = errors.New("invalid data url")
)

const defaultFetchTimeout = 30 * time.Second

type Loader struct {
	maxBytes int64
	client   *resty.Client
	now      func() time.Time
	newID    func() string
}

type Option func(*Loader)

// WithHTTPClient replaces the resty client used for URL sources.
func WithHTTPClient(c *resty.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLoader(maxBytes int64, opts ...Option) *Loader {
	l := &Loader{
		maxBytes: maxBytes,
		client:   resty.New().SetTimeout(defaultFetchTimeout),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.maxBytes > 0 {
		l.client.SetResponseBodyLimit(int(l.maxBytes))
	}
	return l
}

// MaxBytes is the size cap, 0 when unlimited.
func (l *Loader) MaxBytes() int64 {
	return l.maxBytes
}

// Load reads source as an http(s) URL or a local path.
func (l *Loader) Load(ctx context.Context, source string) (*models.TradeImage, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("no image selected")
	}
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return l.LoadURL(ctx, source)
	}
	return l.LoadFile(ctx, source)
}

func (l *Loader) LoadFile(ctx context.Context, path string) (*models.TradeImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path = expandHome(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read image %s: is a directory", path)
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, path, info.Size(), l.maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return l.FromBytes(data, path)
}

func (l *Loader) LoadURL(ctx context.Context, url string) (*models.TradeImage, error) {
	resp, err := l.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return nil, fmt.Errorf("%w: %s", ErrTooLarge, url)
		}
		return nil, fmt.Errorf("download image: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download image, status: %d", resp.StatusCode())
	}
	return l.FromBytes(resp.Body(), url)
}

// FromBytes validates raw bytes and wraps them in a new TradeImage. The
// media type comes from the content, never from the file name.
func (l *Loader) FromBytes(data []byte, source string) (*models.TradeImage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(data), l.maxBytes)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mime.String())
	}
	mimeType := baseMIME(mime.String())

	img := &models.TradeImage{
		ID:        l.newID(),
		DataURL:   EncodeDataURL(mimeType, data),
		MIMEType:  mimeType,
		Source:    source,
		Size:      len(data),
		Timestamp: l.now(),
	}
	logger.Log.WithField("image_id", img.ID).Debugf("loaded %s (%s, %d bytes)", source, mimeType, len(data))
	return img, nil
}

// EncodeDataURL builds data:<mime>;base64,<payload>.
func EncodeDataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// ParseDataURL splits a base64 data URL into its media type and raw bytes.
func ParseDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: prefix", ErrBadDataURL)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrBadDataURL)
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrBadDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	if len(data) == 0 {
		return "", nil, ErrEmptyImage
	}
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	return baseMIME(mimeType), data, nil
}

// baseMIME drops parameters such as "; charset=utf-8".
func baseMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(m)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
