package stage

import (
	"context"

	"vellum/internal/ledger"
)

// Handler describes the contract the workflow manager needs from each
// pipeline stage. Execute performs the stage's gateway call and writes the
// result onto the entry; the manager owns persistence and transition
// decisions around it.
type Handler interface {
	Execute(context.Context, *ledger.Entry) error
	HealthCheck(context.Context) Health
}
