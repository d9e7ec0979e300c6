// Package desk holds the review desk state machine shared by the terminal
// and web front ends.
package desk

import (
	"context"
	"errors"
	"sync"

	"github.com/dyike/CortexReview/consts"
	"github.com/dyike/CortexReview/internal/logger"
	"github.com/dyike/CortexReview/models"
)

var (
	ErrNoImage         = errors.New("no trade image loaded")
	ErrAlreadyAnalyzed = errors.New("trade image already evaluated")
	ErrBusy            = errors.New("evaluation already in progress")
	ErrNoAnalyzer      = errors.New("analysis client not configured")
	// ErrSuperseded is returned to an evaluation whose image was reset or
	// replaced while the request was in flight. Its result is dropped.
	ErrSuperseded = errors.New("evaluation superseded")
)

// Analyzer evaluates one screenshot. *analysis.Client satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, dataURL string) (*models.AnalysisResult, error)
}

// Recorder is told about every completed evaluation.
type Recorder interface {
	Record(ctx context.Context, img *models.TradeImage) error
}

// Snapshot is a copy of the desk for renderers.
type Snapshot struct {
	State     consts.DeskState   `json:"state"`
	Image     *models.TradeImage `json:"image,omitempty"`
	Busy      bool               `json:"busy"`
	LastError string             `json:"last_error,omitempty"`
}

// CanEvaluate mirrors Controller.CanEvaluate for the captured state.
func (s Snapshot) CanEvaluate() bool {
	return s.Image != nil && !s.Image.HasAnalysis() && !s.Busy
}

type Controller struct {
	mu        sync.Mutex
	analyzer  Analyzer
	recorder  Recorder
	image     *models.TradeImage
	busy      bool
	gen       uint64
	cancel    context.CancelFunc
	lastErr   string
	listeners []func(Snapshot)
}

type Option func(*Controller)

func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

func NewController(analyzer Analyzer, opts ...Option) *Controller {
	c := &Controller{analyzer: analyzer}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAnalyzer swaps the analysis client, e.g. after a config reload. An
// evaluation already in flight keeps the client it started with.
func (c *Controller) SetAnalyzer(a Analyzer) {
	c.mu.Lock()
	c.analyzer = a
	c.mu.Unlock()
}

// OnChange registers fn to be called after every state change.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Load holds img, replacing whatever was held. An evaluation in flight for
// the previous image is cancelled.
func (c *Controller) Load(img *models.TradeImage) error {
	if img == nil || img.DataURL == "" {
		return ErrNoImage
	}
	held := img.Clone()
	held.Analysis = nil

	c.mu.Lock()
	c.abortLocked()
	c.image = held
	c.lastErr = ""
	c.mu.Unlock()

	logger.Log.WithField("image_id", held.ID).Infof("trade image loaded from %s", held.Source)
	c.notify()
	return nil
}

// CanEvaluate reports whether an image is held with no analysis attached and
// no request in flight.
func (c *Controller) CanEvaluate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canEvaluateLocked() == nil
}

// Evaluate sends the held image for analysis and attaches the result. On
// failure the image is left as it was and evaluation becomes available again.
func (c *Controller) Evaluate(ctx context.Context) (*models.AnalysisResult, error) {
	c.mu.Lock()
	if err := c.canEvaluateLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	analyzer := c.analyzer
	if analyzer == nil {
		c.mu.Unlock()
		return nil, ErrNoAnalyzer
	}
	ctx, cancel := context.WithCancel(ctx)
	c.gen++
	gen := c.gen
	c.busy = true
	c.cancel = cancel
	c.lastErr = ""
	imageID := c.image.ID
	dataURL := c.image.DataURL
	c.mu.Unlock()
	c.notify()

	logger.Log.WithField("image_id", imageID).Info("evaluation started")
	result, err := analyzer.Analyze(ctx, dataURL)
	cancel()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		logger.Log.WithField("image_id", imageID).Info("evaluation result discarded")
		return nil, ErrSuperseded
	}
	c.busy = false
	c.cancel = nil
	if err != nil {
		c.lastErr = err.Error()
		c.mu.Unlock()
		logger.Log.WithField("image_id", imageID).Errorf("evaluation failed: %v", err)
		c.notify()
		return nil, err
	}
	c.image.Analysis = result.Clone()
	record := c.image.Clone()
	recorder := c.recorder
	c.mu.Unlock()

	logger.Log.WithField("image_id", imageID).Infof("evaluation complete: %s (%d/10)", result.Verdict, result.ConfluenceScore)
	c.notify()

	if recorder != nil {
		if err := recorder.Record(context.WithoutCancel(ctx), record); err != nil {
			logger.Log.Warnf("journal write failed: %v", err)
		}
	}
	return result.Clone(), nil
}

// Reset discards the held image and cancels any request in flight.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.abortLocked()
	c.image = nil
	c.lastErr = ""
	c.mu.Unlock()

	logger.Log.Debug("desk reset")
	c.notify()
}

func (c *Controller) State() consts.DeskState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) canEvaluateLocked() error {
	switch {
	case c.busy:
		return ErrBusy
	case c.image == nil:
		return ErrNoImage
	case c.image.HasAnalysis():
		return ErrAlreadyAnalyzed
	}
	return nil
}

// abortLocked cancels an in-flight request and bumps the generation so its
// result can never attach.
func (c *Controller) abortLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.busy = false
	c.gen++
}

func (c *Controller) stateLocked() consts.DeskState {
	switch {
	case c.busy:
		return consts.State_Analyzing
	case c.image == nil:
		return consts.State_Empty
	case c.image.HasAnalysis():
		return consts.State_AnalysisComplete
	default:
		return consts.State_ImageLoaded
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:     c.stateLocked(),
		Image:     c.image.Clone(),
		Busy:      c.busy,
		LastError: c.lastErr,
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	listeners := append([]func(Snapshot){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
