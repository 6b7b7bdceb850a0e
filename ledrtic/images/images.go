// Package images renders the frames shown by the animation: a pulsing heart,
// a static Rust "R" logo and a scrolling author slide.
//
// All functions are pure. The same inputs always produce the same frame.
package images

import "github.com/harveysanders/microbitplayground/ledrtic/matrix"

// Heart returns a heart outline at full brightness whose interior is lit at
// brightness b.
func Heart(b uint8) matrix.Frame {
	return matrix.NewFrame([matrix.Height][matrix.Width]uint8{
		{0, 7, 0, 7, 0},
		{7, b, 7, b, 7},
		{7, b, b, b, 7},
		{0, 7, b, 7, 0},
		{0, 0, 7, 0, 0},
	})
}

// RustLogo returns a static "R".
func RustLogo() matrix.Frame {
	return matrix.NewFrame([matrix.Height][matrix.Width]uint8{
		{0, 7, 7, 0, 0},
		{0, 7, 0, 7, 0},
		{0, 7, 7, 0, 0},
		{0, 7, 0, 7, 0},
		{0, 7, 0, 7, 0},
	})
}

// SlideWidth is the width of the author slide in columns.
const SlideWidth = 8

// slide spells "AH" across eight columns.
var slide = [matrix.Height][SlideWidth]uint8{
	{0, 0, 7, 0, 0, 7, 0, 7},
	{0, 7, 0, 7, 0, 7, 0, 7},
	{0, 7, 7, 7, 0, 7, 7, 7},
	{0, 7, 0, 7, 0, 7, 0, 7},
	{0, 7, 0, 7, 0, 7, 0, 7},
}

// SlideOffset returns the first slide column visible at the given animation
// step. The slide moves one column every three steps and wraps.
func SlideOffset(step uint8) int {
	return int(step/3) % SlideWidth
}

// AuthorSlide returns a five column window over the author slide, scrolled
// according to step.
func AuthorSlide(step uint8) matrix.Frame {
	offset := SlideOffset(step)
	var px [matrix.Height][matrix.Width]uint8
	for y := 0; y < matrix.Height; y++ {
		for x := 0; x < matrix.Width; x++ {
			px[y][x] = slide[y][(x+offset)%SlideWidth]
		}
	}
	return matrix.NewFrame(px)
}
