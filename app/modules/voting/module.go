package voting

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/about-last-night/aln-backend/app/metrics"
	photodb "github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/repositories"
	votingservice "github.com/about-last-night/aln-backend/app/modules/voting/application"
	votinghandlers "github.com/about-last-night/aln-backend/app/modules/voting/infrastructure/handlers"
	votedb "github.com/about-last-night/aln-backend/app/modules/voting/infrastructure/repositories"
)

// Module wires the voting engine and its HTTP handlers.
type Module struct {
	Engine   *votingservice.Engine
	Handlers *votinghandlers.Handlers
}

// NewModule creates the voting module.
func NewModule(
	logger *slog.Logger,
	voteDB votedb.Repository,
	photoDB photodb.Repository,
	m metrics.Metrics,
) *Module {
	engine := votingservice.NewEngine(voteDB, photoDB, logger, m)
	return &Module{
		Engine:   engine,
		Handlers: votinghandlers.NewHandlers(engine, logger),
	}
}

// Routes mounts the module's HTTP routes.
func (m *Module) Routes(r chi.Router) {
	m.Handlers.Routes(r)
}
