package barcode

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

func renderCode128(t *testing.T, value string, width, height int) image.Image {
	t.Helper()
	return renderBarcode(t, oned.NewCode128Writer(), gozxing.BarcodeFormat_CODE_128, value, width, height)
}

func renderBarcode(t *testing.T, writer gozxing.Writer, format gozxing.BarcodeFormat, value string, width, height int) image.Image {
	t.Helper()
	matrix, err := writer.Encode(value, format, width, height, nil)
	if err != nil {
		t.Fatalf("encode %q: %v", value, err)
	}

	img := image.NewGray(image.Rect(0, 0, matrix.GetWidth(), matrix.GetHeight()))
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// deterministic per-pixel noise, no barcode structure
func noiseImage(width, height int) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	seed := uint32(42)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			seed = seed*1664525 + 1013904223
			if seed&0x10000 != 0 {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestDecodeFrameRoundtrip(t *testing.T) {
	img := renderCode128(t, "MACH-0042", 400, 120)

	result, err := DecodeFrame(img)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if result == nil {
		t.Fatal("DecodeFrame returned no result for a clean barcode")
	}
	if result.Text != "MACH-0042" {
		t.Errorf("Text = %q, want MACH-0042", result.Text)
	}
	if result.Format != gozxing.BarcodeFormat_CODE_128.String() {
		t.Errorf("Format = %q, want %q", result.Format, gozxing.BarcodeFormat_CODE_128.String())
	}
	if result.Confidence < minRowCoherence {
		t.Errorf("Confidence = %f, want at least %f", result.Confidence, minRowCoherence)
	}
}

// Labels in the field are not all Code128; the scanner must fall through
// its reader set until one symbology matches.
func TestDecodeFrameCode39(t *testing.T) {
	img := renderBarcode(t, oned.NewCode39Writer(), gozxing.BarcodeFormat_CODE_39, "MACH-0042", 400, 120)

	result, err := DecodeFrame(img)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if result == nil {
		t.Fatal("DecodeFrame returned no result for a clean Code39 barcode")
	}
	if result.Text != "MACH-0042" {
		t.Errorf("Text = %q, want MACH-0042", result.Text)
	}
	if result.Format != gozxing.BarcodeFormat_CODE_39.String() {
		t.Errorf("Format = %q, want %q", result.Format, gozxing.BarcodeFormat_CODE_39.String())
	}
}

func TestDecodeFrameNoise(t *testing.T) {
	result, err := DecodeFrame(noiseImage(400, 120))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if result != nil {
		t.Errorf("noise frame decoded to %+v, want miss", result)
	}
}

func TestDecodeFrameBlank(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 400, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 400; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	result, err := DecodeFrame(img)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if result != nil {
		t.Errorf("blank frame decoded to %+v, want miss", result)
	}
}

func TestScannerGovernorDropsFastFrames(t *testing.T) {
	img := renderCode128(t, "MACH-0042", 400, 120)

	scanner := NewScanner()
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	scanner.governor.now = func() time.Time { return clock }

	first, err := scanner.Scan(img)
	if err != nil || first == nil {
		t.Fatalf("first scan = %+v, %v; want a result", first, err)
	}

	// next frame arrives 5ms later, inside the throttle window
	clock = clock.Add(5 * time.Millisecond)
	second, err := scanner.Scan(img)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if second != nil {
		t.Error("frame inside the throttle window should be dropped")
	}

	clock = clock.Add(DefaultFrameInterval)
	third, err := scanner.Scan(img)
	if err != nil || third == nil {
		t.Fatalf("third scan = %+v, %v; want a result", third, err)
	}
}
