package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"golang.org/x/image/draw"
)

// Images wider than this get downscaled before decoding. Large photos slow
// the scan down without improving the hit rate.
const maxDecodeWidth = 800

type BarcodeService struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewBarcodeService() *BarcodeService {
	return &BarcodeService{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{
				gozxing.BarcodeFormat_EAN_8,
				gozxing.BarcodeFormat_EAN_13,
				gozxing.BarcodeFormat_UPC_A,
				gozxing.BarcodeFormat_UPC_E,
				gozxing.BarcodeFormat_CODE_128,
			},
		},
	}
}

// DecodeBarcode scans the uploaded image for a 1D product barcode.
// A missing or unreadable barcode returns ("", nil) — the caller should ask
// for a clearer photo. Only undecodable image bytes are an error.
func (s *BarcodeService) DecodeBarcode(buf []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("%w: not a readable image: %v", ErrInvalidInput, err)
	}

	img = downscale(img, maxDecodeWidth)

	source := gozxing.NewLuminanceSourceFromImage(img)
	bmp, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(source))
	if err != nil {
		return "", fmt.Errorf("%w: binarize image: %v", ErrInvalidInput, err)
	}

	reader := oned.NewMultiFormatOneDReader(s.hints)
	result, err := reader.Decode(bmp, s.hints)
	if err != nil {
		// No supported symbology found. Expected for blurry or
		// barcode-less photos, not worth more than a debug line.
		logger.Debugw("barcode decode miss", "error", err)
		return "", nil
	}

	return result.GetText(), nil
}

func downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
