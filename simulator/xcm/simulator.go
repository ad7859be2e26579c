package xcm

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

var xcmLog zerolog.Logger

var tracer = otel.Tracer("github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm")

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	xcmLog = zerolog.New(out).With().Timestamp().Str("component", "xcm").Logger()
}

// DefaultFeeMarginPercentage is the origin fee margin used when the caller gives none
const DefaultFeeMarginPercentage int64 = 10

// Simulator answers transfer questions without submitting anything
type Simulator struct {
	clients  ClientFactory      // hands out unbound chain clients
	registry AssetRegistry      // chains, assets and existential deposits
	builder  TxBuilder          // candidate transaction builder
	fees     FeeCalculator      // per-leg fee breakdown
	tokens   TokenBalanceReader // Ethereum balances, may be nil
}

// NewSimulator wires the simulator to its collaborators
func NewSimulator(
	clients ClientFactory,
	registry AssetRegistry,
	builder TxBuilder,
	fees FeeCalculator,
	tokens TokenBalanceReader,
) *Simulator {
	return &Simulator{
		clients:  clients,
		registry: registry,
		builder:  builder,
		fees:     fees,
		tokens:   tokens,
	}
}

// Registry exposes the registry the simulator resolves against
func (s *Simulator) Registry() AssetRegistry {
	return s.registry
}
