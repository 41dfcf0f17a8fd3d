package filters

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads an image in any registered format (png, jpeg, gif, bmp, tiff,
// webp), applying the EXIF orientation so the pixels match what a viewer shows.
func Decode(r io.Reader) (image.Image, error) {
	im, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if im.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecodeFailed)
	}
	return im, nil
}

func DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrDecodeFailed)
	}
	return Decode(bytes.NewReader(data))
}

func Encode(w io.Writer, im image.Image, format imaging.Format) error {
	if format == imaging.JPEG {
		return imaging.Encode(w, im, format, imaging.JPEGQuality(90))
	}
	return imaging.Encode(w, im, format)
}

func EncodeBytes(im image.Image, format imaging.Format) ([]byte, error) {
	var b bytes.Buffer
	if err := Encode(&b, im, format); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func LoadImageFile(imageFilename string) (image.Image, error) {
	imageFile, err := os.Open(imageFilename)
	if err != nil {
		return nil, err
	}
	defer imageFile.Close()
	return Decode(imageFile)
}

// SaveImageFile writes im choosing the format from the file extension.
func SaveImageFile(im image.Image, imageFilename string) error {
	format, err := imaging.FormatFromFilename(imageFilename)
	if err != nil {
		return err
	}
	imageFile, err := os.Create(imageFilename)
	if err != nil {
		return err
	}
	if err := Encode(imageFile, im, format); err != nil {
		imageFile.Close()
		return err
	}
	return imageFile.Close()
}
