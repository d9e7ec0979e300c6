package journal

import (
	"context"

	"github.com/dyike/CortexReview/internal/logger"
	"github.com/dyike/CortexReview/models"
)

// Recorder appends every completed evaluation of a desk to the store.
type Recorder struct {
	store *Store
	names func() (string, string)
}

// NewRecorder journals into store. names reports the provider and model in
// use at the time of recording, so a config reload is reflected.
func NewRecorder(store *Store, names func() (provider, model string)) *Recorder {
	return &Recorder{store: store, names: names}
}

func (r *Recorder) Record(ctx context.Context, img *models.TradeImage) error {
	var provider, model string
	if r.names != nil {
		provider, model = r.names()
	}
	entry, err := r.store.Append(ctx, img, provider, model)
	if err != nil {
		return err
	}
	logger.Log.WithField("image_id", img.ID).Debugf("journaled evaluation %s", entry.ID)
	return nil
}
