// Package blur smooths 8-bit pixel buffers in place.
//
// Box is a separable sliding-window box blur: a horizontal pass keeps a
// running sum per row, a vertical pass does the same down each column, and
// a division lookup table turns sums into averages. Each pixel costs O(1)
// whatever the radius. Window indices are clamped to the edge of the
// buffer, so border pixels average in repeated copies of the edge value.
//
// Progressive is the cheaper multi-pass alternative: every pass is a
// 3-tap average at a growing offset (i*i/2 + 1 for pass i), which reaches
// EffectiveRadius(passes) pixels after all passes.
//
// All buffers are tightly packed (stride == width * channels).
package blur
