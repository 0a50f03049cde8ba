package export

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

// writePDF emits a minimal PDF: one JPEG image XObject per page, drawn to
// fill the page's media box at one point per pixel. The document contains no
// text objects and no structure beyond the page tree, so nothing extractable
// survives flattening.
func writePDF(w io.Writer, pages []*image.RGBA, jpegQuality int) error {
	var buf bytes.Buffer
	// Object numbering: 1 catalog, 2 page tree, then (image, contents, page)
	// triplets per page.
	objCount := 2 + 3*len(pages)
	offsets := make([]int, objCount+1)

	writeObj := func(num int, body func() error) error {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", num)
		if err := body(); err != nil {
			return err
		}
		buf.WriteString("endobj\n")
		return nil
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	if err := writeObj(1, func() error {
		buf.WriteString("<< /Type /Catalog /Pages 2 0 R >>\n")
		return nil
	}); err != nil {
		return err
	}

	if err := writeObj(2, func() error {
		buf.WriteString("<< /Type /Pages /Kids [")
		for i := range pages {
			fmt.Fprintf(&buf, "%d 0 R ", pageObjNum(i))
		}
		fmt.Fprintf(&buf, "] /Count %d >>\n", len(pages))
		return nil
	}); err != nil {
		return err
	}

	for i, page := range pages {
		width := page.Bounds().Dx()
		height := page.Bounds().Dy()

		var jpg bytes.Buffer
		if err := jpeg.Encode(&jpg, page, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}

		if err := writeObj(imageObjNum(i), func() error {
			fmt.Fprintf(&buf, "<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>\nstream\n", width, height, jpg.Len())
			buf.Write(jpg.Bytes())
			buf.WriteString("\nendstream\n")
			return nil
		}); err != nil {
			return err
		}

		content := fmt.Sprintf("q\n%d 0 0 %d 0 0 cm\n/Im0 Do\nQ\n", width, height)
		if err := writeObj(contentsObjNum(i), func() error {
			fmt.Fprintf(&buf, "<< /Length %d >>\nstream\n%s\nendstream\n", len(content), content)
			return nil
		}); err != nil {
			return err
		}

		if err := writeObj(pageObjNum(i), func() error {
			fmt.Fprintf(&buf, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /XObject << /Im0 %d 0 R >> >> /Contents %d 0 R >>\n",
				width, height, imageObjNum(i), contentsObjNum(i))
			return nil
		}); err != nil {
			return err
		}
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", objCount+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= objCount; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", objCount+1, xrefOffset)

	_, err := w.Write(buf.Bytes())
	return err
}

func imageObjNum(page int) int    { return 3 + 3*page }
func contentsObjNum(page int) int { return 4 + 3*page }
func pageObjNum(page int) int     { return 5 + 3*page }
