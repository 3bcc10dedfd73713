package barcode

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

const (
	// sampled scanlines across the middle band of the frame
	scanlineCount = 20
	// a 1D code yields dozens of bar/space runs per row
	minRunsPerRow = 16
	// rows with less luminance spread than this carry no bars
	minRowContrast = 32
	// bars are vertical, adjacent rows of a real code agree on
	// nearly every pixel; sensor noise agrees on about half
	minRowCoherence = 0.85
)

// Result is a successfully decoded and validated barcode.
type Result struct {
	Text       string  `json:"text"`
	Format     string  `json:"format"`
	Confidence float64 `json:"confidence"`
}

// Scanner decodes 1D barcodes from a stream of camera frames, throttled
// by a frame governor. Not safe for concurrent use.
type Scanner struct {
	governor *FrameGovernor
	readers  []gozxing.Reader
	hints    map[gozxing.DecodeHintType]interface{}
}

func NewScanner() *Scanner {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return &Scanner{
		governor: NewFrameGovernor(DefaultFrameInterval),
		// zxing ships per-symbology one-D readers; try them in order of
		// how likely the format is on our asset labels.
		readers: []gozxing.Reader{
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
			oned.NewITFReader(),
			oned.NewMultiFormatUPCEANReader(hints),
		},
		hints: hints,
	}
}

// Scan decodes one frame. Frames arriving faster than the governor allows
// are dropped, returning (nil, nil) like any other miss.
func (s *Scanner) Scan(img image.Image) (*Result, error) {
	if !s.governor.ShouldProcess() {
		return nil, nil
	}
	return s.decode(img)
}

// Reset clears the frame throttle, used when the camera is re-aimed.
func (s *Scanner) Reset() {
	s.governor.Reset()
}

// Close releases the scanner. The zxing readers hold no OS resources, so
// closing only clears decode state and the throttle for reuse.
func (s *Scanner) Close() {
	for _, r := range s.readers {
		r.Reset()
	}
	s.governor.Reset()
}

// DecodeFrame decodes a single still image with no throttling.
func DecodeFrame(img image.Image) (*Result, error) {
	return NewScanner().decode(img)
}

// decode runs the cheap scanline pre-filter first, then hands plausible
// frames to the zxing reader. A frame with no barcode is a miss, not an
// error: misses return (nil, nil) so callers can keep streaming.
func (s *Scanner) decode(img image.Image) (*Result, error) {
	confidence := candidateConfidence(img)
	if confidence < minRowCoherence {
		return nil, nil
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, nil
	}
	for _, reader := range s.readers {
		decoded, err := reader.Decode(bmp, s.hints)
		if err != nil {
			continue
		}
		text := decoded.GetText()
		if err := ValidateBarcodeValue(text); err != nil {
			continue
		}
		return &Result{
			Text:       text,
			Format:     decoded.GetBarcodeFormat().String(),
			Confidence: confidence,
		}, nil
	}
	return nil, nil
}

// candidateConfidence scores how barcode-like the frame is by sampling
// scanlines across the middle 40% of the image. Each row is binarized
// against its own contrast midpoint and run-length encoded; rows with a
// plausible run count are compared to the next sampled row, and the best
// pixel agreement between adjacent rows is the score.
func candidateConfidence(img image.Image) float64 {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width < 2*minRunsPerRow || height < scanlineCount {
		return 0
	}

	top := bounds.Min.Y + height*30/100
	bottom := bounds.Min.Y + height*70/100
	step := (bottom - top) / scanlineCount
	if step < 1 {
		step = 1
	}

	var prev []bool
	best := 0.0
	for y := top; y < bottom; y += step {
		row := binarizeRow(gray, bounds.Min.X, width, y)
		if row == nil || countRuns(row) < minRunsPerRow {
			prev = nil
			continue
		}
		if prev != nil {
			if score := rowCoherence(prev, row); score > best {
				best = score
			}
		}
		prev = row
	}
	return best
}

// binarizeRow thresholds one scanline at the midpoint of its luminance
// range. Returns nil for rows without enough contrast to hold bars.
func binarizeRow(gray *image.NRGBA, minX, width, y int) []bool {
	lum := make([]uint8, width)
	lo, hi := uint8(255), uint8(0)
	for x := 0; x < width; x++ {
		v := gray.NRGBAAt(minX+x, y).R
		lum[x] = v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if int(hi)-int(lo) < minRowContrast {
		return nil
	}
	threshold := uint8((int(hi) + int(lo)) / 2)
	row := make([]bool, width)
	for x := 0; x < width; x++ {
		row[x] = lum[x] < threshold // true = dark bar
	}
	return row
}

func countRuns(row []bool) int {
	runs := 1
	for x := 1; x < len(row); x++ {
		if row[x] != row[x-1] {
			runs++
		}
	}
	return runs
}

func rowCoherence(a, b []bool) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	match := 0
	for i := range a {
		if a[i] == b[i] {
			match++
		}
	}
	return float64(match) / float64(len(a))
}
