package photo

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"

	"github.com/about-last-night/aln-backend/app/metrics"
	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
	photoservice "github.com/about-last-night/aln-backend/app/modules/photo/application"
	"github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/blobstore"
	photohandlers "github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/handlers"
	photodb "github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/app/shared/httpapi"
)

// Upload rate limit: a burst covers a quick series of captures, the steady
// rate keeps one IP from monopolizing the store.
const (
	uploadRatePerSecond = 2
	uploadBurst         = 5
)

// Module wires the photo service and its HTTP handlers.
type Module struct {
	Service  *photoservice.PhotoService
	Handlers *photohandlers.Handlers
}

// NewModule creates the photo module.
func NewModule(
	logger *slog.Logger,
	photoDB photodb.Repository,
	participantDB eventdb.ParticipantRepository,
	blobs blobstore.Store,
	namespace string,
	m metrics.Metrics,
	db *bun.DB,
) *Module {
	service := photoservice.NewPhotoService(photoDB, participantDB, blobs, namespace, logger, m, db)
	limiter := httpapi.NewIPRateLimiter(rate.Limit(uploadRatePerSecond), uploadBurst)

	return &Module{
		Service:  service,
		Handlers: photohandlers.NewHandlers(service, limiter, logger),
	}
}

// Routes mounts the module's HTTP routes.
func (m *Module) Routes(r chi.Router) {
	m.Handlers.Routes(r)
}
