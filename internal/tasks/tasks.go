package tasks

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/shared"
	"golang.org/x/time/rate"
)

// Lister loads the playlists owned by one user.
type Lister interface {
	ListForUser(username string) ([]models.Playlist, error)
}

// Exporter runs bulk exports over a playlist store.
type Exporter struct {
	store  Lister
	client *http.Client
	logger *log.Logger
}

// NewExporter creates an [Exporter]. client is used for cover downloads and may be nil.
func NewExporter(store Lister, client *http.Client, logger *log.Logger) *Exporter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Exporter{
		store:  store,
		client: client,
		logger: shared.WithLogger(logger, "component", "exporter"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// limitedTransport waits on a shared limiter before every request.
type limitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// throttled returns a copy of e.client whose requests share limiter.
func (e *Exporter) throttled(limiter *rate.Limiter) *http.Client {
	base := e.client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c := *e.client
	c.Transport = &limitedTransport{limiter: limiter, base: base}
	return &c
}
