// Package analyzer classifies a natural-language query into a structured
// task breakdown: capabilities needed, input type, complexity, a
// multi-agent flag, a strategy hint, and dependency strings.
//
// Analysis never fails. The primary path asks an external classification
// collaborator and scans its reply for the first well-formed JSON block;
// transport failures, timeouts, and unparseable replies all fall back to
// a deterministic heuristic that scans the query for fixed indicator
// substrings. The fallback is a pure function of the query text, so the
// same query always yields the same analysis.
//
//	a := analyzer.New(analyzer.NewClassifierFromConfig(cfg.Classifier), logger)
//	analysis := a.Analyze(ctx, "Summarize this document then create a presentation")
package analyzer
