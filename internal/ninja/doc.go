// Package ninja plans build parallelism for ninja invocations. Builds
// accelerated by goma or remote execution receive a large -j value scaled
// from the host core count, while unaccelerated builds stay close to the
// core count so they do not swap-storm the machine.
package ninja
