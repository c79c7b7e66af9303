package imaging

import (
	"fmt"
	"image"
)

// AbsDiffSum returns the sum of |a - b| over the red, green and blue
// channels of every pixel. Alpha is not part of the sum.
func AbsDiffSum(a, b *image.NRGBA) (uint64, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 0, fmt.Errorf("size mismatch: %dx%d vs %dx%d", ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}

	var sum uint64
	for y := 0; y < ab.Dy(); y++ {
		ia := a.PixOffset(ab.Min.X, ab.Min.Y+y)
		ib := b.PixOffset(bb.Min.X, bb.Min.Y+y)
		for x := 0; x < ab.Dx(); x++ {
			for c := 0; c < 3; c++ {
				pa, pb := a.Pix[ia+c], b.Pix[ib+c]
				if pa > pb {
					sum += uint64(pa - pb)
				} else {
					sum += uint64(pb - pa)
				}
			}
			ia += 4
			ib += 4
		}
	}
	return sum, nil
}

// RegionDiff crops region from both frames and returns their AbsDiffSum.
func RegionDiff(prev, curr image.Image, region image.Rectangle) (uint64, error) {
	if prev.Bounds() != curr.Bounds() {
		return 0, fmt.Errorf("frame bounds differ: %v vs %v", prev.Bounds(), curr.Bounds())
	}
	a, err := CropRegion(prev, region)
	if err != nil {
		return 0, err
	}
	b, err := CropRegion(curr, region)
	if err != nil {
		return 0, err
	}
	return AbsDiffSum(a, b)
}
