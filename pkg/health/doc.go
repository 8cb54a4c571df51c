// Package health provides liveness and readiness probes for the address
// formatting service.
//
// [LivenessHandler] answers healthy as long as the process serves HTTP.
// [ReadinessHandler] runs a set of named [Checks] concurrently and answers
// 503 when any of them fails or exceeds the timeout. Each check returns a
// short detail next to its error; [Countries] reports how many countries the
// formatter holds templates for:
//
//	r.Get("/healthz", health.LivenessHandler())
//	r.Get("/readyz", health.ReadinessHandler(health.Checks{
//		"templates": health.Countries(func() int { return len(f.Countries()) }),
//	}, health.WithTimeout(2*time.Second), health.WithLogger(log)))
//
// Responses are a plain-text report unless the client asks for JSON with
// Accept: application/json or ?format=json:
//
//	healthy
//	templates: healthy (17 countries registered)
//
//	{"checks":{"templates":{"status":"healthy","detail":"17 countries registered"}},"status":"healthy"}
//
// [Run] evaluates checks without HTTP.
package health
