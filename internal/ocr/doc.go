// Package ocr reads the text of preprocessed HUD regions with Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). An Engine
// holds one Tesseract client configured for short single-line HUD text and
// is reused for every region of every frame.
//
// # Prerequisites
//
// Tesseract and its English language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng libtesseract-dev
//   - macOS: brew install tesseract
//
// # Page Segmentation
//
// HUD regions hold a single line of text, so the default page segmentation
// mode is 7 (PSM_SINGLE_LINE). Buy menu slots with a name and a price on
// separate lines read better with mode 6 (PSM_SINGLE_BLOCK).
//
// # Confidence
//
// Tesseract reports per-word confidence on a 0-100 scale. Read returns the
// mean word confidence scaled to 0-1, which the classifier compares with
// its minimum OCR confidence.
//
// # Thread Safety
//
// An Engine serializes calls to its Tesseract client and is safe for
// concurrent use.
package ocr
