// Package ctxlog is the ctxmock engine's logging façade, adapted from
// the teacher's pkg/logging: a small log/slog-based wrapper exposing
// Debug/Info/Warn/Error plus a logr.Logger adaptor for host test
// harnesses already standardized on go-logr.
//
// The engine itself never logs above Debug level during normal
// operation; Debug traces rule registration, rule matches/misses, and
// verification failures, so enabling Debug on the configured *slog.Logger
// is the way to see what ctxmock matched and why.
package ctxlog
