package image

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/webp"
)

type Decode func(io.Reader) (image.Image, error)

func getDecoder(file string) (Decode, error) {
	inputExt := filepath.Ext(file)
	var decode Decode
	switch inputExt {
	case ".png":
		decode = png.Decode
	case ".jpg", ".jpeg":
		decode = jpeg.Decode
	case ".webp":
		decode = webp.Decode
	default:
		return nil, fmt.Errorf("image: unsupported extension: %s", inputExt)
	}
	return decode, nil
}

type Encode func(io.Writer, image.Image) error

func getEncoder(file string) (Encode, error) {
	outputExt := filepath.Ext(file)
	var encode Encode
	switch outputExt {
	case ".png":
		encode = png.Encode
	case ".jpg", ".jpeg":
		encode = func(w io.Writer, m image.Image) error {
			return jpeg.Encode(w, m, nil)
		}
	default:
		return nil, fmt.Errorf("image: unsupported extension: %s", outputExt)
	}
	return encode, nil
}

// Size returns the pixel dimensions of an image file.
func Size(file string) (int, int, error) {
	decode, err := getDecoder(file)
	if err != nil {
		return 0, 0, err
	}
	f, err := os.Open(file)
	if err != nil {
		return 0, 0, fmt.Errorf("image: couldn't open %s: %w", file, err)
	}
	defer f.Close()
	img, err := decode(f)
	if err != nil {
		return 0, 0, fmt.Errorf("image: couldn't decode %s: %w", file, err)
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}

// Convert re-encodes an image into the format implied by the output
// extension. Overlay assets arrive in whatever format the designer
// exported, webp included, and the video filters only take png or
// jpeg.
func Convert(input, output string) error {
	decode, err := getDecoder(input)
	if err != nil {
		return err
	}
	encode, err := getEncoder(output)
	if err != nil {
		return err
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("image: couldn't open %s: %w", input, err)
	}
	defer in.Close()
	img, err := decode(in)
	if err != nil {
		return fmt.Errorf("image: couldn't decode %s: %w", input, err)
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("image: couldn't create %s: %w", output, err)
	}
	defer out.Close()
	if err := encode(out, img); err != nil {
		return fmt.Errorf("image: couldn't encode %s: %w", output, err)
	}
	return nil
}
