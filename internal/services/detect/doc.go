// Package detect implements the format classifier gateway: the verdict on
// whether a PDF carries a usable embedded text layer (machine-readable) or
// needs OCR (scanned).
//
// The built-in detector validates the file with pdfcpu and samples the text
// layer of the first few pages; thresholds come from configuration. An
// unreadable text layer produces an Unknown verdict, not a failure — the
// workflow routes Unknown through the configured default strategy.
package detect
