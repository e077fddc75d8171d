// Package classify implements the document classification gateway.
//
// The built-in implementation is a keyword-rule classifier: configured
// categories map to keyword lists, case-folded matching picks the category
// with the most hits, and a saturating confidence reflects match density.
// Swapping in a model-backed classifier only requires implementing Service.
package classify
