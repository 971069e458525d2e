// Package mcruntime executes the colorization models.
//
// It provides:
//   - Params validation for colorization requests (atoms)
//   - CGo bindings to the native model runtime, with a pure-Go stub build
//     (molecules)
//   - ModelManager for reference-counted model lifecycles and a process-wide
//     run lock (organism)
//   - FastEngine and GenerativeEngine implementing the Engine interface
//     (organisms)
//
// The native runtime is linked only when building with the "native" tag.
// The default build uses deterministic pure-Go transforms so the rest of
// the pipeline is fully exercisable without the shared library.
package mcruntime
