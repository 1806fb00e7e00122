package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span names used for instrumentation.
const (
	SpanOverlayBuild    = "overlay.build"
	SpanBookingSubmit   = "booking.submit"
	SpanBookingConfirm  = "booking.confirm"
	SpanTrackingLookup  = "tracking.lookup"
	SpanTrackingPublish = "tracking.publish"
)

// Attribute keys.
const (
	AttrRoutePoints   = attribute.Key("cargoconnect.route.points")
	AttrMarkers       = attribute.Key("cargoconnect.overlay.markers")
	AttrFitSkipReason = attribute.Key("cargoconnect.overlay.fit_skip_reason")
	AttrVehicleType   = attribute.Key("cargoconnect.booking.vehicle_type")
	AttrBookingID     = attribute.Key("cargoconnect.booking.id")
	AttrTrackingID    = attribute.Key("cargoconnect.tracking.id")
	AttrCacheHit      = attribute.Key("cargoconnect.cache.hit")
)
