package xcm

import (
	"encoding/json"
	"fmt"
)

// RouteKind is the topology class of a transfer
type RouteKind int

const (
	RouteDirect RouteKind = iota
	RouteThroughAssetHub
	RouteThroughBridge
	RouteThroughArbitraryHops
)

func (k RouteKind) String() string {
	switch k {
	case RouteDirect:
		return "direct"
	case RouteThroughAssetHub:
		return "through-asset-hub"
	case RouteThroughBridge:
		return "through-bridge"
	case RouteThroughArbitraryHops:
		return "through-hops"
	}
	return "unknown"
}

// RouteShape is computed once per transfer from the fee breakdown and decides
// which leg snapshots get built
type RouteShape struct {
	Kind      RouteKind
	AssetHub  bool // asset hub leg present
	BridgeHub bool // bridge hub leg present
	ExtraHops int  // additional intermediate chains
}

// ShapeOf classifies a fee breakdown
func ShapeOf(b *FeeBreakdown) RouteShape {
	shape := RouteShape{
		AssetHub:  b.AssetHub != nil,
		BridgeHub: b.BridgeHub != nil,
		ExtraHops: len(b.Hops),
	}
	switch {
	case shape.BridgeHub:
		shape.Kind = RouteThroughBridge
	case shape.AssetHub:
		shape.Kind = RouteThroughAssetHub
	case shape.ExtraHops > 0:
		shape.Kind = RouteThroughArbitraryHops
	default:
		shape.Kind = RouteDirect
	}
	return shape
}

func (s RouteShape) String() string {
	if s.Kind == RouteThroughArbitraryHops {
		return fmt.Sprintf("%s(%d)", s.Kind, s.ExtraHops)
	}
	return s.Kind.String()
}

func (s RouteShape) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
