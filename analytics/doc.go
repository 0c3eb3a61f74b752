// Package analytics captures product events enriched with the current user,
// device, browsing session and page path, and hands them to a Sink.
//
//	tr := analytics.New(cfg, memberStore, escortStore, sessionStorage, analytics.LogSink(log))
//	tr.Track(analytics.WithPath(ctx, "/motels"), analytics.EventMotelPreviewsView, nil)
package analytics
