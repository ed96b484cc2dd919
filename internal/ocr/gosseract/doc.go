// Package gosseract provides an in-process OCR engine backed by libtesseract.
// It needs cgo and the tesseract/leptonica headers, so it only builds with
// -tags gosseract.
package gosseract
