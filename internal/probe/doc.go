// Package probe opens input containers for the resolver. Prober runs a
// single ffprobe JSON call per input and converts the result into a
// media.Container; MemoryOpener serves prepared containers from memory and
// backs fixture files.
package probe
