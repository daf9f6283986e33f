// Package imaging prepares HUD regions of a gameplay frame for OCR.
//
// This package implements the region extractor: it crops a detected
// bounding box out of a frame, scales it up and cleans it so Tesseract
// reads the small HUD fonts reliably, and inspects the crop border for
// the colour cues the buy menu uses to mark highlighted and hovered
// slots. It also provides the edge measures the layout detector uses to
// decide whether a fixed HUD region currently shows any text.
//
// # Coordinate System
//
// Bounding boxes are in frame pixels relative to the frame's top-left
// corner:
//   - X, Y: top-left corner (inclusive)
//   - W, H: width and height
//   - Boxes are clamped to the frame; a box with no area inside the frame
//     yields ErrEmptyRegion
//
// # Preprocessing
//
// ExtractRegion applies, in order:
//   - Lanczos upscaling by Preprocess.Scale
//   - Grayscale conversion
//   - Contrast adjustment by Preprocess.Contrast percent
//   - Optional binarization at Preprocess.Threshold
//
// # Thread Safety
//
// All functions are stateless and can be called concurrently on different
// frames. Frames are never modified.
package imaging
